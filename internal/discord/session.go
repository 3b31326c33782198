package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/domain"
)

// threadArchiveMinutes is the auto-archive duration of ticket threads.
const threadArchiveMinutes = 10080

// MessageHandler receives messages and their edits and deletions from the gateway,
// along with thread archives.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *domain.InboundMessage) error
	HandleMessageEdit(ctx context.Context, edit *domain.MessageEdit) error
	HandleMessageDelete(ctx context.Context, del *domain.MessageDelete) error
	HandleThreadArchive(ctx context.Context, ev *domain.ThreadArchive) error
}

// Session adapts a discordgo session to the relay gateway and feeds incoming
// messages to a MessageHandler.
type Session struct {
	session        *discordgo.Session
	handler        MessageHandler
	handlerTimeout time.Duration
	logger         *zap.Logger
	removeHandlers []func()
}

// New creates an unopened session authenticated with a bot token.
func New(token string, handlerTimeout time.Duration, logger *zap.Logger) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	if logger == nil {
		logger = zap.NewNop()
	}
	if handlerTimeout <= 0 {
		handlerTimeout = 30 * time.Second
	}
	return &Session{session: dg, handlerTimeout: handlerTimeout, logger: logger}, nil
}

// SetHandler sets the receiver of incoming messages. Call it before Open.
func (s *Session) SetHandler(h MessageHandler) {
	s.handler = h
}

// Open connects to the gateway.
func (s *Session) Open() error {
	s.removeHandlers = append(s.removeHandlers,
		s.session.AddHandler(s.onMessageCreate),
		s.session.AddHandler(s.onMessageUpdate),
		s.session.AddHandler(s.onMessageDelete),
		s.session.AddHandler(s.onThreadUpdate),
	)
	if err := s.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	s.logger.Info("connected to discord gateway")
	return nil
}

// Close disconnects from the gateway.
func (s *Session) Close() error {
	for _, remove := range s.removeHandlers {
		remove()
	}
	s.removeHandlers = nil
	return s.session.Close()
}

func (s *Session) onMessageCreate(dg *discordgo.Session, m *discordgo.MessageCreate) {
	if s.handler == nil || !shouldHandle(selfID(dg), m.Message) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.handlerTimeout)
	defer cancel()
	// Errors were already reported to the author and logged by the handler.
	_ = s.handler.HandleMessage(ctx, toInbound(m.Message))
}

func (s *Session) onMessageUpdate(dg *discordgo.Session, m *discordgo.MessageUpdate) {
	if s.handler == nil {
		return
	}
	edit, ok := toEdit(selfID(dg), m)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.handlerTimeout)
	defer cancel()
	_ = s.handler.HandleMessageEdit(ctx, edit)
}

func (s *Session) onMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	if s.handler == nil || m.Message == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.handlerTimeout)
	defer cancel()
	_ = s.handler.HandleMessageDelete(ctx, &domain.MessageDelete{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
	})
}

func (s *Session) onThreadUpdate(_ *discordgo.Session, t *discordgo.ThreadUpdate) {
	if s.handler == nil {
		return
	}
	ev, ok := toArchive(t)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.handlerTimeout)
	defer cancel()
	_ = s.handler.HandleThreadArchive(ctx, ev)
}

func selfID(dg *discordgo.Session) string {
	if dg == nil || dg.State == nil || dg.State.User == nil {
		return ""
	}
	return dg.State.User.ID
}

// SendMessage posts content to a channel and returns the new message id.
func (s *Session) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := s.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditMessage replaces the content of a message the bot sent.
func (s *Session) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	_, err := s.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
	return err
}

// DeleteMessage deletes a message.
func (s *Session) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return s.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

// LookupUser fetches a user by id.
func (s *Session) LookupUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return toUser(u), nil
}

// CreateThread starts a public thread in channelID.
func (s *Session) CreateThread(ctx context.Context, channelID, name string) (string, error) {
	ch, err := s.session.ThreadStart(channelID, name, discordgo.ChannelTypeGuildPublicThread, threadArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

// OpenDM returns the DM channel with userID.
func (s *Session) OpenDM(ctx context.Context, userID string) (string, error) {
	ch, err := s.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

// ArchiveThread archives and locks a thread.
func (s *Session) ArchiveThread(ctx context.Context, threadID string) error {
	archived, locked := true, true
	_, err := s.session.ChannelEdit(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}, discordgo.WithContext(ctx))
	return err
}

// React adds a unicode emoji reaction to a message.
func (s *Session) React(ctx context.Context, channelID, messageID, emoji string) error {
	return s.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func shouldHandle(selfID string, m *discordgo.Message) bool {
	if m == nil || m.Author == nil {
		return false
	}
	if m.Author.Bot || m.Author.ID == selfID {
		return false
	}
	return m.Type == discordgo.MessageTypeDefault || m.Type == discordgo.MessageTypeReply
}

func toInbound(m *discordgo.Message) *domain.InboundMessage {
	msg := &domain.InboundMessage{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
	}
	if m.MessageReference != nil {
		msg.ReferenceID = m.MessageReference.MessageID
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			FileName:  a.Filename,
			URL:       a.URL,
			MimeType:  a.ContentType,
			SizeBytes: int64(a.Size),
		})
	}
	return msg
}

// toEdit keeps content edits of messages written by someone other than the bot.
// Partial updates without an author or with unchanged content are dropped.
func toEdit(selfID string, m *discordgo.MessageUpdate) (*domain.MessageEdit, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return nil, false
	}
	if m.Author.Bot || m.Author.ID == selfID {
		return nil, false
	}
	if m.BeforeUpdate != nil && m.BeforeUpdate.Content == m.Content {
		return nil, false
	}
	return &domain.MessageEdit{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
	}, true
}

// toArchive reports threads that just became archived. Without a cached previous
// state every archived update counts.
func toArchive(t *discordgo.ThreadUpdate) (*domain.ThreadArchive, bool) {
	if t == nil || t.Channel == nil || t.ThreadMetadata == nil || !t.ThreadMetadata.Archived {
		return nil, false
	}
	parentID := t.ParentID
	if before := t.BeforeUpdate; before != nil {
		if before.ThreadMetadata != nil && before.ThreadMetadata.Archived {
			return nil, false
		}
		if before.ParentID != "" {
			parentID = before.ParentID
		}
	}
	return &domain.ThreadArchive{ThreadID: t.ID, ParentID: parentID, GuildID: t.GuildID}, true
}

func toUser(u *discordgo.User) *domain.User {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return &domain.User{ID: u.ID, Name: name, Bot: u.Bot}
}
