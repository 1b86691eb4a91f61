package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/infrascope/internal/logging"
	"github.com/aretw0/infrascope/pkg/domain"
)

// allRuns is the subscription key that receives every run's events.
const allRuns = ""

// Message is one event pushed to SSE subscribers.
type Message struct {
	RunID string
	Type  domain.EventType
	Data  []byte
}

// StreamManager fans lifecycle events out to SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // RunID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for runID, or for every run when runID is
// empty. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(runID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 32)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[runID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, runID)
				}
			}
			close(ch)
		})
	}
}

// Broadcast delivers msg to the run's subscribers and to the global ones.
// Slow clients drop messages instead of blocking the run.
func (sm *StreamManager) Broadcast(msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{allRuns}
	if msg.RunID != allRuns {
		keys = append(keys, msg.RunID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", "run_id", msg.RunID, "type", msg.Type)
			}
		}
	}
}

// Hooks publishes every lifecycle event to the stream.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(runID string, t domain.EventType, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			sm.logger.Error("SSE: encoding event failed", "type", t, "error", err)
			return
		}
		sm.Broadcast(Message{RunID: runID, Type: t, Data: data})
	}
	step := func(_ context.Context, e *domain.StepEvent) {
		publish(e.RunID, e.Type, stepPayload{StepEvent: e, Error: errText(e.Err)})
	}
	tool := func(_ context.Context, e *domain.ToolEvent) {
		publish(e.RunID, e.Type, toolPayload{ToolEvent: e, Error: errText(e.Err)})
	}
	return domain.LifecycleHooks{
		OnStepEnter:  step,
		OnStepLeave:  step,
		OnToolCall:   tool,
		OnToolReturn: tool,
		OnReport: func(_ context.Context, e *domain.ReportEvent) {
			publish(e.RunID, e.Type, e)
		},
	}
}

type stepPayload struct {
	*domain.StepEvent
	Error string `json:"error,omitempty"`
}

type toolPayload struct {
	*domain.ToolEvent
	Error string `json:"error,omitempty"`
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
