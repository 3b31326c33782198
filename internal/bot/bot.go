package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/dispatcher"
	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/events"
	"github.com/discord-modmail/modmail/internal/extensions"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("bot already started")

const failureText = "Something went wrong while handling your message. Please try again later."

// Sender posts messages to Discord channels.
type Sender interface {
	SendMessage(ctx context.Context, channelID, content string) (string, error)
}

// Options configures a Bot.
type Options struct {
	Mode         extensions.Mode
	Disabled     []string
	FailureEmoji string
	Logger       *zap.Logger
	Recorder     dispatcher.Recorder
}

// Bot owns the event dispatcher and the extensions bound to it.
type Bot struct {
	dispatcher *dispatcher.Dispatcher
	extensions *extensions.Manager
	sender     Sender
	opts       Options
	logger     *zap.Logger

	mu      sync.Mutex
	started bool
}

// New builds a bot with every bot event declared and no extension loaded.
func New(sender Sender, opts Options) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == 0 {
		opts.Mode = extensions.ModeProduction
	}
	d := dispatcher.NewWithEvents(events.Names(),
		dispatcher.WithLogger(logger.Named("dispatcher")),
		dispatcher.WithRecorder(opts.Recorder))
	return &Bot{
		dispatcher: d,
		extensions: extensions.NewManager(d, logger.Named("extensions")),
		sender:     sender,
		opts:       opts,
		logger:     logger,
	}
}

// Dispatcher returns the bot's dispatcher.
func (b *Bot) Dispatcher() *dispatcher.Dispatcher { return b.dispatcher }

// Extensions returns the bot's extension manager.
func (b *Bot) Extensions() *extensions.Manager { return b.extensions }

// Start loads the extensions enabled for the bot mode. Extensions that fail to
// load are logged and skipped.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true

	if err := b.extensions.LoadEnabled(ctx, b.opts.Mode, b.opts.Disabled); err != nil {
		b.logger.Warn("some extensions failed to load", zap.Error(err))
	}
	b.logger.Info("bot started",
		zap.Stringer("mode", b.opts.Mode),
		zap.Strings("events", b.dispatcher.Events()))
	return nil
}

// HandleMessage dispatches an incoming message as dm_receive or guild_message. If a
// handler fails, the author is told in the channel the message came from and the
// error is returned.
func (b *Bot) HandleMessage(ctx context.Context, msg *domain.InboundMessage) error {
	event := events.GuildMessage
	if msg.IsDirect() {
		event = events.DMReceive
	}

	err := b.dispatcher.Dispatch(ctx, event, msg)
	if err == nil {
		return nil
	}

	b.logger.Error("message handling failed",
		zap.String("event", event),
		zap.String("message_id", msg.ID),
		zap.String("channel_id", msg.ChannelID),
		zap.Error(err))
	text := strings.TrimSpace(b.opts.FailureEmoji + " " + failureText)
	if _, sendErr := b.sender.SendMessage(ctx, msg.ChannelID, text); sendErr != nil {
		b.logger.Warn("failure notice not sent", zap.String("channel_id", msg.ChannelID), zap.Error(sendErr))
	}
	return err
}

// HandleMessageEdit dispatches message_edit. Failures are logged and returned;
// nobody is told in Discord.
func (b *Bot) HandleMessageEdit(ctx context.Context, edit *domain.MessageEdit) error {
	return b.dispatchQuiet(ctx, events.MessageEdit, edit, zap.String("message_id", edit.ID))
}

// HandleMessageDelete dispatches message_delete.
func (b *Bot) HandleMessageDelete(ctx context.Context, del *domain.MessageDelete) error {
	return b.dispatchQuiet(ctx, events.MessageDelete, del, zap.String("message_id", del.ID))
}

// HandleThreadArchive dispatches thread_archive.
func (b *Bot) HandleThreadArchive(ctx context.Context, ev *domain.ThreadArchive) error {
	return b.dispatchQuiet(ctx, events.ThreadArchive, ev, zap.String("thread_id", ev.ThreadID))
}

func (b *Bot) dispatchQuiet(ctx context.Context, event string, payload any, field zap.Field) error {
	if err := b.dispatcher.Dispatch(ctx, event, payload); err != nil {
		b.logger.Error("event handling failed", zap.String("event", event), field, zap.Error(err))
		return err
	}
	return nil
}

// Close unloads every extension. Failures are logged and returned together.
func (b *Bot) Close(ctx context.Context) error {
	err := b.extensions.UnloadAll(ctx)
	if err != nil {
		b.logger.Error("errors while unloading extensions", zap.Error(err))
	}
	b.logger.Info("bot closed")
	return err
}
