package blocklist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/dispatcher"
	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/events"
	"github.com/discord-modmail/modmail/internal/extensions"
)

// Name is the extension name.
const Name = "blocklist"

// Priority runs the blocklist check ahead of the relay.
const Priority = -10

// Extension drops direct messages from blocked users before any ticket is touched.
type Extension struct {
	store    *Store
	logger   *zap.Logger
	bindings []dispatcher.Binding
}

// New builds the extension.
func New(store *Store, logger *zap.Logger) *Extension {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extension{store: store, logger: logger.Named(Name)}
	e.bindings = []dispatcher.Binding{
		dispatcher.Bind(events.DMReceive, dispatcher.NewHandler("drop_blocked", e.dropBlocked), dispatcher.WithPriority(Priority)),
	}
	return e
}

func (e *Extension) Name() string { return Name }

func (e *Extension) Metadata() extensions.Metadata {
	return extensions.Metadata{LoadIfMode: extensions.ModeProduction | extensions.ModeDevelop}
}

func (e *Extension) EventHandlers() []dispatcher.Binding { return e.bindings }

// Setup fails the load when Redis is unreachable.
func (e *Extension) Setup(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("blocklist store: %w", err)
	}
	return nil
}

// Store exposes the underlying store.
func (e *Extension) Store() *Store { return e.store }

func (e *Extension) dropBlocked(ctx context.Context, args ...any) (bool, error) {
	msg, err := events.Payload[*domain.InboundMessage](args)
	if err != nil {
		return false, err
	}
	blocked, err := e.store.IsBlocked(ctx, msg.AuthorID)
	if err != nil {
		return false, fmt.Errorf("check blocklist: %w", err)
	}
	if blocked {
		e.logger.Info("dropped message from blocked user",
			zap.String("user_id", msg.AuthorID),
			zap.String("message_id", msg.ID))
	}
	return blocked, nil
}
