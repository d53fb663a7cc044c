package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/events"
	"github.com/helpdeskhq/helpdesk/internal/service"
)

const defaultQueueSize = 256

// NotificationWorker delivers notifications off the request path. Events are
// queued by the dispatcher and drained by a single goroutine.
type NotificationWorker struct {
	notifications *service.NotificationService
	logger        *zap.Logger
	queue         chan events.Event
	done          chan struct{}
	wg            sync.WaitGroup
	stopOnce      sync.Once
}

// StartNotificationWorker subscribes the notification service to dispatcher
// and starts draining. Call Stop to flush queued events.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, notificationService *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	if dispatcher == nil || notificationService == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &NotificationWorker{
		notifications: notificationService,
		logger:        logger,
		queue:         make(chan events.Event, defaultQueueSize),
		done:          make(chan struct{}),
	}
	for _, eventType := range notificationService.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}

	w.wg.Add(1)
	go w.run(ctx)
	return w
}

// Stop drains the queue and waits for the worker to exit.
func (w *NotificationWorker) Stop() {
	if w == nil {
		return
	}
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
}

// enqueue never blocks the publishing request; a full queue drops the event.
func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case <-w.done:
		w.logger.Warn("notification worker stopped, dropping event", zap.String("event_type", string(event.Type)))
		return nil
	default:
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, dropping event", zap.String("event_type", string(event.Type)))
	}
	return nil
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		case <-ctx.Done():
			return
		case <-w.done:
			for {
				select {
				case event := <-w.queue:
					w.deliver(ctx, event)
				default:
					return
				}
			}
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, event events.Event) {
	if err := w.notifications.Handle(ctx, event); err != nil {
		w.logger.Warn("notification failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
