package threads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/dispatcher"
	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/events"
	"github.com/discord-modmail/modmail/internal/extensions"
	"github.com/discord-modmail/modmail/internal/service"
)

// Name is the extension name.
const Name = "threads"

// Relay is the ticket workflow the extension drives.
type Relay interface {
	HandleDirectMessage(ctx context.Context, msg *domain.InboundMessage) (*domain.Ticket, error)
	Reply(ctx context.Context, msg *domain.InboundMessage, body string) (*domain.Message, error)
	AddNote(ctx context.Context, msg *domain.InboundMessage, body string) (*domain.Message, error)
	EditReply(ctx context.Context, msg *domain.InboundMessage, body string) (*domain.Message, error)
	DeleteReply(ctx context.Context, msg *domain.InboundMessage) (*domain.Message, error)
	Contact(ctx context.Context, msg *domain.InboundMessage, recipientID, reason string) (*domain.Ticket, error)
	Close(ctx context.Context, threadID, closedBy, reason string) (*domain.Ticket, error)
	IsTicketThread(ctx context.Context, channelID string) (bool, error)
	HandleMessageEdit(ctx context.Context, edit *domain.MessageEdit) error
	HandleMessageDelete(ctx context.Context, del *domain.MessageDelete) error
	HandleThreadArchive(ctx context.Context, ev *domain.ThreadArchive) error
}

// Responder gives command feedback in Discord.
type Responder interface {
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	React(ctx context.Context, channelID, messageID, emoji string) error
}

// Config holds command settings. Contact is accepted in RelayChannelID and in
// ticket threads.
type Config struct {
	Prefix         string
	SuccessEmoji   string
	FailureEmoji   string
	RelayChannelID string
}

const jumpURL = "https://discord.com/channels/%s/%s"

// Extension relays DMs into ticket threads and runs the staff commands inside
// those threads.
type Extension struct {
	relay     Relay
	responder Responder
	cfg       Config
	logger    *zap.Logger
	bindings  []dispatcher.Binding
}

// New builds the extension.
func New(relay Relay, responder Responder, cfg Config, logger *zap.Logger) *Extension {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extension{relay: relay, responder: responder, cfg: cfg, logger: logger.Named(Name)}
	e.bindings = []dispatcher.Binding{
		dispatcher.Bind(events.DMReceive, dispatcher.NewHandler("relay_dm", e.relayDM), dispatcher.WithPriority(0)),
		dispatcher.Bind(events.GuildMessage, dispatcher.NewHandler("thread_commands", e.threadCommand), dispatcher.WithPriority(0)),
		dispatcher.Bind(events.MessageEdit, dispatcher.Listener("mirror_edit", e.mirrorEdit)),
		dispatcher.Bind(events.MessageDelete, dispatcher.Listener("mirror_delete", e.mirrorDelete)),
		dispatcher.Bind(events.ThreadArchive, dispatcher.Listener("close_on_archive", e.closeOnArchive)),
	}
	return e
}

func (e *Extension) Name() string { return Name }

func (e *Extension) Metadata() extensions.Metadata {
	return extensions.Metadata{
		LoadIfMode: extensions.ModeProduction | extensions.ModeDevelop | extensions.ModePluginDev,
		NoUnload:   true,
	}
}

func (e *Extension) EventHandlers() []dispatcher.Binding { return e.bindings }

func (e *Extension) relayDM(ctx context.Context, args ...any) (bool, error) {
	msg, err := events.Payload[*domain.InboundMessage](args)
	if err != nil {
		return false, err
	}
	if _, err := e.relay.HandleDirectMessage(ctx, msg); err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			return true, nil
		}
		return false, err
	}
	e.react(ctx, msg, e.cfg.SuccessEmoji)
	return true, nil
}

func (e *Extension) threadCommand(ctx context.Context, args ...any) (bool, error) {
	msg, err := events.Payload[*domain.InboundMessage](args)
	if err != nil {
		return false, err
	}
	cmd, ok := extensions.ParseCommand(e.cfg.Prefix, msg.Content)
	if !ok {
		return false, nil
	}

	if cmd.Name == "contact" {
		return e.contact(ctx, msg, cmd.Args)
	}

	var run func() error
	react := true
	switch cmd.Name {
	case "reply", "r":
		run = func() error {
			_, err := e.relay.Reply(ctx, msg, cmd.Args)
			return err
		}
	case "note":
		run = func() error {
			_, err := e.relay.AddNote(ctx, msg, cmd.Args)
			return err
		}
	case "edit", "e", "ed":
		run = func() error {
			_, err := e.relay.EditReply(ctx, msg, cmd.Args)
			return err
		}
	case "delete", "d", "del":
		run = func() error {
			_, err := e.relay.DeleteReply(ctx, msg)
			return err
		}
	case "close":
		// The thread is archived by the close, so there is nothing left to react on.
		react = false
		run = func() error {
			_, err := e.relay.Close(ctx, msg.ChannelID, msg.AuthorID, cmd.Args)
			return err
		}
	default:
		return false, nil
	}

	isTicket, err := e.relay.IsTicketThread(ctx, msg.ChannelID)
	if err != nil {
		return false, err
	}
	if !isTicket {
		return false, nil
	}

	if err := run(); err != nil {
		switch {
		case errors.Is(err, service.ErrTicketClosed):
			e.respond(ctx, msg, "This ticket is already closed.")
		case errors.Is(err, service.ErrEmptyMessage):
			e.respond(ctx, msg, "Nothing to send.")
		case errors.Is(err, service.ErrReplyNotFound):
			e.respond(ctx, msg, "There is no relayed reply here to act on.")
		default:
			return false, err
		}
		return true, nil
	}

	e.logger.Debug("thread command handled",
		zap.String("command", cmd.Name),
		zap.String("thread_id", msg.ChannelID),
		zap.String("author_id", msg.AuthorID))
	if react {
		e.react(ctx, msg, e.cfg.SuccessEmoji)
	}
	return true, nil
}

func (e *Extension) contact(ctx context.Context, msg *domain.InboundMessage, args string) (bool, error) {
	if msg.ChannelID != e.cfg.RelayChannelID {
		isTicket, err := e.relay.IsTicketThread(ctx, msg.ChannelID)
		if err != nil {
			return false, err
		}
		if !isTicket {
			return false, nil
		}
	}

	target, reason, _ := strings.Cut(args, " ")
	userID, ok := parseUserID(target)
	if !ok {
		e.respond(ctx, msg, fmt.Sprintf("Usage: `%scontact <user> [reason]`", e.cfg.Prefix))
		return true, nil
	}

	_, err := e.relay.Contact(ctx, msg, userID, reason)
	var exists *service.TicketExistsError
	switch {
	case err == nil:
		e.react(ctx, msg, e.cfg.SuccessEmoji)
	case errors.As(err, &exists):
		e.respond(ctx, msg, fmt.Sprintf("A ticket already exists with <@%s>. You can find it here: <"+jumpURL+">",
			userID, exists.Ticket.GuildID, exists.Ticket.ThreadID))
	case errors.Is(err, service.ErrBotRecipient):
		e.respond(ctx, msg, "You can't open a ticket with a bot.")
	default:
		return false, err
	}
	return true, nil
}

func (e *Extension) mirrorEdit(ctx context.Context, args ...any) error {
	edit, err := events.Payload[*domain.MessageEdit](args)
	if err != nil {
		return err
	}
	return e.relay.HandleMessageEdit(ctx, edit)
}

func (e *Extension) mirrorDelete(ctx context.Context, args ...any) error {
	del, err := events.Payload[*domain.MessageDelete](args)
	if err != nil {
		return err
	}
	return e.relay.HandleMessageDelete(ctx, del)
}

func (e *Extension) closeOnArchive(ctx context.Context, args ...any) error {
	ev, err := events.Payload[*domain.ThreadArchive](args)
	if err != nil {
		return err
	}
	return e.relay.HandleThreadArchive(ctx, ev)
}

// parseUserID accepts a raw snowflake or a <@id> / <@!id> mention.
func parseUserID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<@") && strings.HasSuffix(s, ">") {
		s = strings.TrimPrefix(strings.TrimSuffix(s[2:], ">"), "!")
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

func (e *Extension) respond(ctx context.Context, msg *domain.InboundMessage, text string) {
	e.react(ctx, msg, e.cfg.FailureEmoji)
	if _, err := e.responder.SendMessage(ctx, msg.ChannelID, text); err != nil {
		e.logger.Warn("command response failed", zap.String("channel_id", msg.ChannelID), zap.Error(err))
	}
}

func (e *Extension) react(ctx context.Context, msg *domain.InboundMessage, emoji string) {
	if emoji == "" {
		return
	}
	if err := e.responder.React(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
		e.logger.Debug("reaction failed", zap.String("message_id", msg.ID), zap.Error(err))
	}
}
