package notify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/dispatcher"
	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/events"
	"github.com/discord-modmail/modmail/internal/extensions"
	"github.com/discord-modmail/modmail/internal/worker"
)

// Name is the extension name.
const Name = "notify"

// Sink accepts webhook deliveries.
type Sink interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
	Enqueue(d worker.Delivery) error
}

// Notification is the webhook body.
type Notification struct {
	Event      string    `json:"event"`
	TicketID   string    `json:"ticket_id"`
	ThreadID   string    `json:"thread_id"`
	CreatorID  string    `json:"creator_id"`
	Status     string    `json:"status"`
	Direction  string    `json:"direction,omitempty"`
	AuthorID   string    `json:"author_id,omitempty"`
	Content    string    `json:"content,omitempty"`
	Edited     bool      `json:"edited,omitempty"`
	Deleted    bool      `json:"deleted,omitempty"`
	ClosedBy   string    `json:"closed_by,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Extension logs ticket activity and mirrors it to a webhook when one is configured.
type Extension struct {
	sink     Sink
	logger   *zap.Logger
	now      func() time.Time
	bindings []dispatcher.Binding
}

// New builds the extension. sink may be nil, in which case events are only logged.
func New(sink Sink, logger *zap.Logger) *Extension {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extension{sink: sink, logger: logger.Named(Name), now: time.Now}
	e.bindings = []dispatcher.Binding{
		dispatcher.Bind("", dispatcher.Listener("on_"+events.ThreadCreate, e.handleThreadCreate)),
		dispatcher.Bind("", dispatcher.Listener("on_"+events.ThreadMessage, e.handleThreadMessage)),
		dispatcher.Bind("", dispatcher.Listener("on_"+events.ThreadClose, e.handleThreadClose)),
	}
	return e
}

func (e *Extension) Name() string { return Name }

func (e *Extension) Metadata() extensions.Metadata {
	return extensions.Metadata{LoadIfMode: extensions.ModeProduction}
}

func (e *Extension) EventHandlers() []dispatcher.Binding { return e.bindings }

// Setup starts webhook delivery.
func (e *Extension) Setup(ctx context.Context) error {
	if e.sink != nil {
		e.sink.Start(context.WithoutCancel(ctx))
	}
	return nil
}

// Teardown flushes pending deliveries.
func (e *Extension) Teardown(ctx context.Context) error {
	if e.sink != nil {
		e.sink.Stop(ctx)
	}
	return nil
}

func (e *Extension) handleThreadCreate(_ context.Context, args ...any) error {
	ev, err := events.Payload[events.ThreadCreated](args)
	if err != nil {
		return err
	}
	e.logger.Info("TicketCreated",
		zap.String("ticket_id", ev.Ticket.ID),
		zap.String("thread_id", ev.Ticket.ThreadID),
		zap.String("creator_id", ev.Ticket.CreatorID))
	e.publish(e.base(events.ThreadCreate, ev.Ticket))
	return nil
}

func (e *Extension) handleThreadMessage(_ context.Context, args ...any) error {
	ev, err := events.Payload[events.MessageRelayed](args)
	if err != nil {
		return err
	}
	e.logger.Info("TicketMessageAdded",
		zap.String("ticket_id", ev.Ticket.ID),
		zap.String("direction", string(ev.Message.Direction)))

	n := e.base(events.ThreadMessage, ev.Ticket)
	n.Direction = string(ev.Message.Direction)
	n.AuthorID = ev.Message.AuthorID
	n.Edited = ev.Message.EditedAt != nil
	n.Deleted = ev.Message.Deleted()
	// Internal notes stay out of external systems.
	if !ev.Message.Internal {
		n.Content = ev.Message.Content
	}
	e.publish(n)
	return nil
}

func (e *Extension) handleThreadClose(_ context.Context, args ...any) error {
	ev, err := events.Payload[events.ThreadClosed](args)
	if err != nil {
		return err
	}
	e.logger.Info("TicketClosed",
		zap.String("ticket_id", ev.Ticket.ID),
		zap.String("closed_by", ev.ClosedBy))

	n := e.base(events.ThreadClose, ev.Ticket)
	n.ClosedBy = ev.ClosedBy
	n.Reason = ev.Reason
	e.publish(n)
	return nil
}

func (e *Extension) base(event string, t *domain.Ticket) Notification {
	return Notification{
		Event:      event,
		TicketID:   t.ID,
		ThreadID:   t.ThreadID,
		CreatorID:  t.CreatorID,
		Status:     string(t.Status),
		OccurredAt: e.now().UTC(),
	}
}

func (e *Extension) publish(n Notification) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Enqueue(worker.Delivery{Event: n.Event, Body: n}); err != nil {
		e.logger.Warn("webhook notification dropped",
			zap.String("event", n.Event),
			zap.String("ticket_id", n.TicketID),
			zap.Error(err))
	}
}

// NewSink returns a webhook worker for url, or nil when url is blank.
func NewSink(url string, timeout time.Duration, logger *zap.Logger) Sink {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	return worker.NewWebhookWorker(worker.WebhookConfig{URL: url, Timeout: timeout}, logger)
}
