package api

import (
	"time"

	"ttlearn/domain/run"
	"ttlearn/internal/analysis"
	"ttlearn/internal/observability"
)

// RunEventBroadcaster adapts the SSEHub (and metrics) to the notification
// points of the analysis flow.
type RunEventBroadcaster struct {
	sseHub  *SSEHub
	metrics *observability.Metrics
}

// NewRunEventBroadcaster creates a new run event broadcaster
func NewRunEventBroadcaster(sseHub *SSEHub, metrics *observability.Metrics) *RunEventBroadcaster {
	return &RunEventBroadcaster{sseHub: sseHub, metrics: metrics}
}

// LogSink returns a log function that forwards progress lines to clients
// following the run.
func (b *RunEventBroadcaster) LogSink(runID string) analysis.LogFunc {
	return func(line string) {
		b.sseHub.Broadcast(RunEvent{
			RunID:     runID,
			EventType: EventLog,
			Line:      line,
			Timestamp: time.Now(),
		})
	}
}

// RunFinished announces a terminal run state to connected clients.
func (b *RunEventBroadcaster) RunFinished(rn run.Run) {
	b.metrics.RunFinished(rn)
	b.sseHub.Broadcast(RunEvent{
		RunID:     rn.ID.String(),
		EventType: EventStatus,
		Status:    rn.Status,
		Timestamp: time.Now(),
	})
}
