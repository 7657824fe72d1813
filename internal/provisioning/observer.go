package provisioning

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/imamik/srcdsctl/internal/log"
	"github.com/imamik/srcdsctl/internal/registry"
)

// EventType classifies provisioning events.
type EventType string

const (
	// EventPhaseStarted marks a lifecycle phase beginning its work.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted marks a lifecycle phase finishing cleanly.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed marks a lifecycle phase aborting with an error.
	EventPhaseFailed EventType = "phase.failed"
	// EventInstanceReady marks an instance reaching its terminal
	// success state.
	EventInstanceReady EventType = "instance.ready"
	// EventInstanceDeleted marks an instance removed from provider and
	// registry.
	EventInstanceDeleted EventType = "instance.deleted"
	// EventWarning marks a non-fatal problem the operator should see.
	EventWarning EventType = "warning"
	// EventInfo marks progress detail.
	EventInfo EventType = "info"
)

// Event is one observable step of an instance's lifecycle.
type Event struct {
	Type      EventType
	Instance  string
	Phase     registry.Phase
	Message   string
	Err       error
	Timestamp time.Time
	Fields    map[string]string
}

// Observer receives lifecycle events. Implementations must be safe for
// concurrent use; bulk operations publish from one goroutine per
// instance.
type Observer interface {
	Event(Event)

	// WithFields returns an Observer that attaches the given fields to
	// every event it publishes.
	WithFields(fields map[string]string) Observer
}

// LogObserver publishes events through the structured logger. It is the
// default observer and the fallback when no terminal is attached.
type LogObserver struct {
	logger zerolog.Logger
	fields map[string]string
}

// NewLogObserver returns an observer writing to the provisioning
// component logger.
func NewLogObserver() *LogObserver {
	return &LogObserver{logger: log.WithComponent("provision")}
}

// Event implements Observer.
func (o *LogObserver) Event(e Event) {
	var ev *zerolog.Event
	switch e.Type {
	case EventPhaseFailed:
		ev = o.logger.Error()
	case EventWarning:
		ev = o.logger.Warn()
	default:
		ev = o.logger.Info()
	}

	ev = ev.Str("event", string(e.Type))
	if e.Instance != "" {
		ev = ev.Str("instance", e.Instance)
	}
	if e.Phase != "" {
		ev = ev.Str("phase", string(e.Phase))
	}
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	for k, v := range o.fields {
		ev = ev.Str(k, v)
	}
	for k, v := range e.Fields {
		ev = ev.Str(k, v)
	}
	ev.Msg(e.Message)
}

// WithFields implements Observer.
func (o *LogObserver) WithFields(fields map[string]string) Observer {
	merged := make(map[string]string, len(o.fields)+len(fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &LogObserver{logger: o.logger, fields: merged}
}
