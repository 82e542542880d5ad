// ABOUTME: Event system for the analysis pipeline, enabling real-time observation of query processing.
// ABOUTME: Provides EventEmitter with subscribe/emit/unsubscribe pattern and typed PipelineEvent delivery.
package analyst

import (
	"sync"
	"time"
)

// EventKind discriminates the type of pipeline event.
type EventKind string

const (
	EventQuerySubmitted   EventKind = "query_submitted"
	EventPlanGenerated    EventKind = "plan_generated"
	EventPlanMalformed    EventKind = "plan_malformed"
	EventSessionCreated   EventKind = "session_created"
	EventExecutionStart   EventKind = "execution_start"
	EventExecutionEnd     EventKind = "execution_end"
	EventSynthesisStart   EventKind = "synthesis_start"
	EventSynthesisEnd     EventKind = "synthesis_end"
	EventArtifactResolved EventKind = "artifact_resolved"
	EventArtifactFailed   EventKind = "artifact_failed"
	EventAnswerReady      EventKind = "answer_ready"
	EventReset            EventKind = "reset"
	EventError            EventKind = "error"
)

// PipelineEvent represents a typed event emitted during query processing.
type PipelineEvent struct {
	Kind           EventKind      `json:"kind"`
	Timestamp      time.Time      `json:"timestamp"`
	ConversationID string         `json:"conversation_id"`
	Data           map[string]any `json:"data,omitempty"`
}

// EventEmitter delivers pipeline events to subscribed channels.
type EventEmitter struct {
	mu          sync.RWMutex
	subscribers []chan PipelineEvent
	closed      bool
}

// NewEventEmitter creates a new EventEmitter.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{
		subscribers: make([]chan PipelineEvent, 0),
	}
}

// Subscribe registers a new subscriber channel and returns it.
// The channel has a buffer of 64 to reduce the likelihood of blocking.
func (e *EventEmitter) Subscribe() <-chan PipelineEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan PipelineEvent, 64)
	e.subscribers = append(e.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (e *EventEmitter) Unsubscribe(ch <-chan PipelineEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, sub := range e.subscribers {
		if (<-chan PipelineEvent)(sub) == ch {
			close(sub)
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			return
		}
	}
}

// Emit sends an event to all subscribers. Non-blocking: if a subscriber's
// channel buffer is full, the event is dropped for that subscriber.
func (e *EventEmitter) Emit(event PipelineEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	for _, ch := range e.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event for slow subscribers rather than blocking
		}
	}
}

// Close closes the emitter and all subscriber channels.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subscribers {
		close(ch)
	}
	e.subscribers = nil
}
