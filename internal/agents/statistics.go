package agents

import (
	"sync"
	"time"
)

// Statistics is a point-in-time snapshot of an agent's counters
type Statistics struct {
	ExecutionCount      int64   `json:"execution_count"`
	SuccessCount        int64   `json:"success_count"`
	SuccessRate         float64 `json:"success_rate"`
	AvgProcessingTime   float64 `json:"avg_processing_time"`
	TotalProcessingTime float64 `json:"total_processing_time"`
}

// statsTracker holds process-lifetime counters for one agent
type statsTracker struct {
	mu         sync.Mutex
	executions int64
	successes  int64
	total      time.Duration
}

// begin counts a new execution and returns its id
func (s *statsTracker) begin() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions++
	return s.executions
}

// finish accumulates the elapsed time of an execution
func (s *statsTracker) finish(success bool, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if success {
		s.successes++
	}
	s.total += elapsed
}

func (s *statsTracker) snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		ExecutionCount:      s.executions,
		SuccessCount:        s.successes,
		TotalProcessingTime: s.total.Seconds(),
	}
	if s.executions > 0 {
		stats.SuccessRate = float64(s.successes) / float64(s.executions)
		stats.AvgProcessingTime = s.total.Seconds() / float64(s.executions)
	}
	return stats
}
