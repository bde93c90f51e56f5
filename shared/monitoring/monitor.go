package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Monitor keeps the outcome of the most recent digest run for the health endpoints.
type Monitor struct {
	mu              sync.RWMutex
	lastRunSuccess  bool
	lastRunTime     time.Time
	lastSummary     string
	lastError       string
	partialFailures int
	now             func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{now: time.Now}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRunSuccess = true
	m.lastRunTime = m.now()
	m.lastSummary = summary
	m.lastError = ""

	log.Printf("Run completed successfully - %s (took %v)", summary, duration.Round(time.Millisecond))
}

// RecordPartialFailure logs a recovered failure. Health is unaffected.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.partialFailures++
	log.Printf("Warning: PARTIAL FAILURE: %v (after %v)", err, duration.Round(time.Millisecond))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRunSuccess = false
	m.lastRunTime = m.now()
	m.lastError = err.Error()

	log.Printf("CRITICAL FAILURE: %v (after %v)", err, duration.Round(time.Millisecond))
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	at := m.lastRunTime.Format("Jan 2 15:04")
	if !m.lastRunSuccess {
		return fmt.Sprintf("Last run failed: %s (%s)", at, m.lastError)
	}

	status := fmt.Sprintf("Last run: %s - %s", at, m.lastSummary)
	if m.partialFailures > 0 {
		status += fmt.Sprintf(" [%d partial failures since start]", m.partialFailures)
	}
	return status
}
