// FILE: internal/service/event_monitor_service.go
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/thetahealth/mirobody-sub003/internal/pkg/logger"
	"github.com/thetahealth/mirobody-sub003/pkg/events"
	pktNats "github.com/thetahealth/mirobody-sub003/pkg/nats"
)

// EventMonitorService tails the domain event stream into the operational log
// and keeps per-type counters the daemon reports on shutdown.
type EventMonitorService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger

	mu     sync.Mutex
	counts map[string]int64
}

func NewEventMonitorService(sub *pktNats.Subscriber, log logger.ILogger) *EventMonitorService {
	return &EventMonitorService{
		subscriber: sub,
		logger:     log,
		counts:     map[string]int64{},
	}
}

// Start begins listening to the event bus.
func (s *EventMonitorService) Start() {
	err := s.subscriber.Subscribe("events.>", "event-monitor-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("EventMonitor", "Failed to start event subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("EventMonitor", "Event monitor started, listening to events.>", nil)
}

func (s *EventMonitorService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := event.EventType()

	s.mu.Lock()
	s.counts[typeCode]++
	s.mu.Unlock()

	s.logger.Info("EventMonitor", fmt.Sprintf("Observed event: %s", typeCode), event.Payload())
	return nil
}

// Counts returns a snapshot of observed event totals by type.
func (s *EventMonitorService) Counts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]int64, len(s.counts))
	for k, v := range s.counts {
		snapshot[k] = v
	}
	return snapshot
}
