package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tube-digest/shared/config"
)

type fakeMetrics string

func (m fakeMetrics) GetSummary() string { return string(m) }

type fakeAgent struct {
	initErr error
	run     func(ctx context.Context, events *AgentEvents) error
	runs    int
}

func (a *fakeAgent) Name() string                         { return "fake-agent" }
func (a *fakeAgent) Initialize(ctx context.Context) error { return a.initErr }

func (a *fakeAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	a.runs++
	return a.run(ctx, events)
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name        string
		run         func(ctx context.Context, events *AgentEvents) error
		wantErr     bool
		wantHealthy bool
		wantStatus  string
	}{
		{
			name: "Success recorded",
			run: func(ctx context.Context, events *AgentEvents) error {
				events.OnSuccess(fakeMetrics("3 videos summarized"), time.Second)
				return nil
			},
			wantHealthy: true,
			wantStatus:  "3 videos summarized",
		},
		{
			name: "Partial failure keeps health",
			run: func(ctx context.Context, events *AgentEvents) error {
				events.OnPartialFailure(errors.New("one video failed"), time.Second)
				events.OnSuccess(fakeMetrics("2 videos summarized"), time.Second)
				return nil
			},
			wantHealthy: true,
			wantStatus:  "1 partial failures",
		},
		{
			name: "Returned error is critical",
			run: func(ctx context.Context, events *AgentEvents) error {
				return errors.New("smtp down")
			},
			wantErr:     true,
			wantHealthy: false,
			wantStatus:  "fake-agent failed: smtp down",
		},
		{
			name: "Reported critical failure",
			run: func(ctx context.Context, events *AgentEvents) error {
				events.OnCriticalFailure(errors.New("discovery failed"), time.Second)
				return nil
			},
			wantHealthy: false,
			wantStatus:  "fake-agent critical failure: discovery failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &fakeAgent{run: tt.run}
			s := New(&config.Config{Schedule: "0 0 7 * * *"}, agent)

			err := s.RunOnce(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunOnce() error = %v, wantErr %t", err, tt.wantErr)
			}
			if agent.runs != 1 {
				t.Errorf("Agent ran %d times, want 1", agent.runs)
			}
			if s.monitor.IsHealthy() != tt.wantHealthy {
				t.Errorf("Healthy = %t, want %t", s.monitor.IsHealthy(), tt.wantHealthy)
			}
			if got := s.monitor.GetStatusSummary(); !strings.Contains(got, tt.wantStatus) {
				t.Errorf("Status = %q, want it to contain %q", got, tt.wantStatus)
			}
		})
	}
}

func TestStartErrors(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		initErr  error
		wantErr  string
	}{
		{
			name:     "Initialization fails",
			schedule: "0 0 7 * * *",
			initErr:  errors.New("bad credentials"),
			wantErr:  "failed to initialize agent",
		},
		{
			name:     "Invalid schedule",
			schedule: "every morning",
			wantErr:  "failed to add cron job",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &fakeAgent{initErr: tt.initErr}
			s := New(&config.Config{Schedule: tt.schedule}, agent)

			err := s.Start(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Start() error = %v, want %q", err, tt.wantErr)
			}
			if agent.runs != 0 {
				t.Errorf("Agent should not run, ran %d times", agent.runs)
			}
		})
	}
}
