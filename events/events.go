// Package events publishes the runtime's structured events on the
// urdf/events channel and consumes the host's flow-lifecycle bus.
// Publication is best-effort: failures are logged at debug level and
// never alter control flow.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360/urdf/natsclient"
)

// Subject is the single topic every runtime event is published on.
const Subject = "urdf.events"

// Flow-lifecycle subjects emitted by the host.
const (
	SubjectFlowsStarted  = "flows.started"
	SubjectFlowsDeployed = "flows.deployed"
	SubjectFlowsUpdated  = "flows.updated"
)

// Event is the envelope carried on the event channel.
type Event struct {
	ID       string         `json:"id"`
	TS       int64          `json:"ts"`
	Type     string         `json:"type"`
	Request  *Request       `json:"request,omitempty"`
	Response map[string]any `json:"response,omitempty"`
}

// Request describes the operation that produced an event.
type Request struct {
	Method  string `json:"method,omitempty"`
	Path    string `json:"path,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Publisher emits events to NATS and to any registered local sinks (the
// websocket mirror registers one).
type Publisher struct {
	client *natsclient.Client // may be nil when NATS is disabled
	logger *slog.Logger
	sinks  []func(Event)
}

// NewPublisher creates a publisher. A nil client disables the NATS leg;
// local sinks still receive every event.
func NewPublisher(client *natsclient.Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, logger: logger}
}

// AddSink registers a local fan-out target. Sinks must not block.
func (p *Publisher) AddSink(sink func(Event)) {
	p.sinks = append(p.sinks, sink)
}

// Publish emits one event. Implements inference.EventSink for payload-only
// callers.
func (p *Publisher) Publish(eventType string, response map[string]any) {
	p.PublishRequest(eventType, nil, response)
}

// PublishRequest emits one event with request context.
func (p *Publisher) PublishRequest(eventType string, req *Request, response map[string]any) {
	ev := Event{
		ID:       uuid.NewString(),
		TS:       time.Now().UnixMilli(),
		Type:     eventType,
		Request:  req,
		Response: response,
	}
	for _, sink := range p.sinks {
		sink(ev)
	}
	if p.client == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Debug("event marshal failed", "type", eventType, "error", err)
		return
	}
	if err := p.client.Publish(Subject, data); err != nil {
		p.logger.Debug("event publish failed", "type", eventType, "error", err)
	}
}

// Subscriber is the subscription capability SubscribeFlowEvents needs;
// *natsclient.Client satisfies it.
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) error
}

// SubscribeFlowEvents wires the host flow-lifecycle subjects to a single
// handler carrying the triggering subject name.
func SubscribeFlowEvents(client Subscriber, handler func(subject string)) error {
	for _, subject := range []string{SubjectFlowsStarted, SubjectFlowsDeployed, SubjectFlowsUpdated} {
		s := subject
		if err := client.Subscribe(s, func([]byte) { handler(s) }); err != nil {
			return err
		}
	}
	return nil
}
