package metrics

import (
	"context"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/event"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	eventTypes := []event.Type{
		event.NodeStudied,
		event.NodeReset,
		event.TabStudied,
		event.TabReset,
		event.PlayerLevelUp,
		event.PointsChanged,
		event.TreeReloaded,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	// Always increment event counter
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.NodeStudied:
		if p, ok := evt.Payload.(event.NodeStudiedPayloadV1); ok {
			NodesStudied.WithLabelValues(p.TabID).Inc()
		}

	case event.NodeReset:
		if p, ok := evt.Payload.(event.NodeStudiedPayloadV1); ok {
			NodesReset.WithLabelValues(p.TabID).Inc()
		}

	case event.TabStudied:
		if p, ok := evt.Payload.(event.TabStudiedPayloadV1); ok {
			TabsStudied.WithLabelValues(p.TabID).Inc()
		}

	case event.TabReset:
		if p, ok := evt.Payload.(event.TabStudiedPayloadV1); ok {
			TabsReset.WithLabelValues(p.TabID).Inc()
		}

	case event.PlayerLevelUp:
		LevelUps.Inc()

	case event.PointsChanged:
		if p, ok := evt.Payload.(event.PointsChangedPayloadV1); ok {
			if p.Delta < 0 {
				PointsSpent.WithLabelValues(p.PointsType).Add(float64(-p.Delta))
			} else {
				PointsGranted.WithLabelValues(p.PointsType).Add(float64(p.Delta))
			}
		}

	case event.TreeReloaded:
		TreeReloads.Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
