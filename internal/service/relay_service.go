package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/events"
	"github.com/discord-modmail/modmail/internal/repository"
)

var (
	// ErrTicketNotFound is returned when no ticket matches the lookup.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrTicketClosed is returned when acting on a closed ticket.
	ErrTicketClosed = errors.New("ticket closed")
	// ErrEmptyMessage is returned when there is nothing to relay.
	ErrEmptyMessage = errors.New("message has no content")
	// ErrTicketExists is returned by Contact when the user already has an open ticket.
	ErrTicketExists = errors.New("ticket already exists")
	// ErrBotRecipient is returned by Contact for bot accounts.
	ErrBotRecipient = errors.New("cannot open a ticket with a bot")
	// ErrReplyNotFound is returned when an edit or delete has no relayed reply to act on.
	ErrReplyNotFound = errors.New("no relayed reply to act on")
)

// TicketExistsError carries the open ticket that blocked Contact.
type TicketExistsError struct {
	Ticket *domain.Ticket
}

func (e *TicketExistsError) Error() string {
	return fmt.Sprintf("%v: thread %s", ErrTicketExists, e.Ticket.ThreadID)
}

func (e *TicketExistsError) Is(target error) bool {
	return target == ErrTicketExists
}

// ArchiveCloser is recorded as the closer of tickets whose thread was archived by hand.
const ArchiveCloser = "system:thread_archive"

const maxThreadNameLen = 100

// Gateway is the part of the Discord API the relay needs.
type Gateway interface {
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	CreateThread(ctx context.Context, channelID, name string) (string, error)
	OpenDM(ctx context.Context, userID string) (string, error)
	ArchiveThread(ctx context.Context, threadID string) error
	LookupUser(ctx context.Context, userID string) (*domain.User, error)
}

// EventDispatcher publishes relay events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventName string, args ...any) error
}

// RelayRecorder counts relayed messages.
type RelayRecorder interface {
	RecordRelay(direction string)
}

// RelayService moves messages between user DMs and ticket threads.
type RelayService struct {
	tickets        repository.TicketRepository
	messages       repository.MessageRepository
	attachments    repository.AttachmentRepository
	gateway        Gateway
	dispatcher     EventDispatcher
	recorder       RelayRecorder
	logger         *zap.Logger
	guildID        string
	relayChannelID string
	now            func() time.Time

	// openMu serialises get-or-create of a user's ticket.
	openMu sync.Mutex
}

// RelayDependencies bundles collaborators for the relay service.
type RelayDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.MessageRepository
	AttachmentRepo repository.AttachmentRepository
	Gateway        Gateway
	Dispatcher     EventDispatcher
	Recorder       RelayRecorder
	Logger         *zap.Logger
	GuildID        string
	RelayChannelID string
}

// NewRelayService constructs the service.
func NewRelayService(deps RelayDependencies) *RelayService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayService{
		tickets:        deps.TicketRepo,
		messages:       deps.MessageRepo,
		attachments:    deps.AttachmentRepo,
		gateway:        deps.Gateway,
		dispatcher:     deps.Dispatcher,
		recorder:       deps.Recorder,
		logger:         logger,
		guildID:        deps.GuildID,
		relayChannelID: deps.RelayChannelID,
		now:            time.Now,
	}
}

// HandleDirectMessage relays a user's DM into their open ticket, opening one first
// when needed.
func (s *RelayService) HandleDirectMessage(ctx context.Context, msg *domain.InboundMessage) (*domain.Ticket, error) {
	if isEmpty(msg.Content, msg.Attachments) {
		return nil, ErrEmptyMessage
	}

	ticket, created, err := s.openTicket(ctx, msg)
	if err != nil {
		return nil, err
	}
	if created {
		s.publishEvent(ctx, events.ThreadCreate, events.ThreadCreated{Ticket: ticket, Opener: msg})
		if _, err := s.gateway.SendMessage(ctx, msg.ChannelID,
			"Your message has been sent to the staff team. Replies will arrive here."); err != nil {
			s.logger.Warn("ticket acknowledgement failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	mirrored, err := s.gateway.SendMessage(ctx, ticket.ThreadID, formatRelay(msg.AuthorName, msg.Content, msg.Attachments))
	if err != nil {
		return nil, fmt.Errorf("mirror message into thread: %w", err)
	}

	stored, err := s.storeMessage(ctx, ticket, msg, msg.Content, &mirrored, domain.DirectionToStaff)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.ThreadMessage, events.MessageRelayed{Ticket: ticket, Message: stored})
	return ticket, nil
}

func (s *RelayService) openTicket(ctx context.Context, msg *domain.InboundMessage) (*domain.Ticket, bool, error) {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	ticket, err := s.tickets.GetOpenByCreator(ctx, s.guildID, msg.AuthorID)
	if err == nil {
		return ticket, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	header := fmt.Sprintf("New ticket from **%s** (`%s`).", msg.AuthorName, msg.AuthorID)
	ticket, err = s.createTicket(ctx, domain.User{ID: msg.AuthorID, Name: msg.AuthorName}, msg, header)
	if err != nil {
		return nil, false, err
	}
	return ticket, true, nil
}

// createTicket starts the thread and stores the ticket. Callers hold openMu.
func (s *RelayService) createTicket(ctx context.Context, recipient domain.User, src *domain.InboundMessage, header string) (*domain.Ticket, error) {
	threadID, err := s.gateway.CreateThread(ctx, s.relayChannelID, threadName(recipient))
	if err != nil {
		return nil, fmt.Errorf("create ticket thread: %w", err)
	}

	ticket := &domain.Ticket{
		GuildID:           s.guildID,
		ThreadID:          threadID,
		CreatorID:         recipient.ID,
		CreatorName:       recipient.Name,
		CreatingMessageID: src.ID,
		CreatingChannelID: src.ChannelID,
		Status:            domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if _, err := s.gateway.SendMessage(ctx, threadID, header); err != nil {
		s.logger.Warn("ticket header failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	s.logger.Info("ticket opened",
		zap.String("ticket_id", ticket.ID),
		zap.String("thread_id", threadID),
		zap.String("creator_id", recipient.ID),
		zap.String("opened_by", src.AuthorID))
	return ticket, nil
}

// Contact opens a ticket with recipientID on behalf of the staff member who sent
// msg. The user is told by DM; if that fails the thread says so. A user with an
// open ticket yields a *TicketExistsError.
func (s *RelayService) Contact(ctx context.Context, msg *domain.InboundMessage, recipientID, reason string) (*domain.Ticket, error) {
	recipient, err := s.gateway.LookupUser(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("look up user %s: %w", recipientID, err)
	}
	if recipient.Bot {
		return nil, ErrBotRecipient
	}

	s.openMu.Lock()
	existing, err := s.tickets.GetOpenByCreator(ctx, s.guildID, recipient.ID)
	switch {
	case err == nil:
		s.openMu.Unlock()
		return nil, &TicketExistsError{Ticket: existing}
	case !errors.Is(err, pgx.ErrNoRows):
		s.openMu.Unlock()
		return nil, err
	}
	header := fmt.Sprintf("Ticket opened with **%s** (`%s`) by <@%s>.", recipient.Name, recipient.ID, msg.AuthorID)
	if reason = strings.TrimSpace(reason); reason != "" {
		header += "\nReason: " + reason
	}
	ticket, err := s.createTicket(ctx, *recipient, msg, header)
	s.openMu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.ThreadCreate, events.ThreadCreated{Ticket: ticket, Opener: msg})
	notice := "A staff member has opened a ticket with you. Reply here to talk to them."
	if err := s.sendDM(ctx, ticket.CreatorID, notice); err != nil {
		s.logger.Warn("contact notice failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		failure := fmt.Sprintf("Could not DM **%s**. They may have DMs disabled.", recipient.Name)
		if _, err := s.gateway.SendMessage(ctx, ticket.ThreadID, failure); err != nil {
			s.logger.Warn("dm failure notice failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	return ticket, nil
}

// Reply sends body from a staff member in a ticket thread to the ticket's user.
func (s *RelayService) Reply(ctx context.Context, msg *domain.InboundMessage, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if isEmpty(body, msg.Attachments) {
		return nil, ErrEmptyMessage
	}
	ticket, err := s.openTicketByThread(ctx, msg.ChannelID)
	if err != nil {
		return nil, err
	}

	dm, err := s.gateway.OpenDM(ctx, ticket.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("open dm: %w", err)
	}
	mirrored, err := s.gateway.SendMessage(ctx, dm, formatRelay("Staff", body, msg.Attachments))
	if err != nil {
		return nil, fmt.Errorf("send reply: %w", err)
	}

	stored, err := s.storeMessage(ctx, ticket, msg, body, &mirrored, domain.DirectionToUser)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.ThreadMessage, events.MessageRelayed{Ticket: ticket, Message: stored})
	return stored, nil
}

// AddNote records an internal staff note. Notes are never relayed to the user.
func (s *RelayService) AddNote(ctx context.Context, msg *domain.InboundMessage, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if isEmpty(body, msg.Attachments) {
		return nil, ErrEmptyMessage
	}
	ticket, err := s.openTicketByThread(ctx, msg.ChannelID)
	if err != nil {
		return nil, err
	}

	stored, err := s.storeMessage(ctx, ticket, msg, body, nil, domain.DirectionNote)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.ThreadMessage, events.MessageRelayed{Ticket: ticket, Message: stored})
	return stored, nil
}

// EditReply changes the DM copy of a staff reply. The reply is the one msg
// references, or the latest reply of the thread's ticket.
func (s *RelayService) EditReply(ctx context.Context, msg *domain.InboundMessage, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	ticket, reply, err := s.resolveReply(ctx, msg)
	if err != nil {
		return nil, err
	}

	dm, err := s.gateway.OpenDM(ctx, ticket.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("open dm: %w", err)
	}
	attachments, err := s.attachments.ListByMessage(ctx, reply.ID)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.EditMessage(ctx, dm, *reply.MirroredID, formatRelay("Staff", body, attachments)); err != nil {
		return nil, fmt.Errorf("edit reply: %w", err)
	}

	now := s.now().UTC()
	if err := s.messages.UpdateContent(ctx, reply.ID, body, now); err != nil {
		return nil, err
	}
	reply.Content = body
	reply.EditedAt = &now
	reply.Attachments = attachments
	s.publishEvent(ctx, events.ThreadMessage, events.MessageRelayed{Ticket: ticket, Message: reply})
	return reply, nil
}

// DeleteReply removes the DM copy of a staff reply, resolved like EditReply.
func (s *RelayService) DeleteReply(ctx context.Context, msg *domain.InboundMessage) (*domain.Message, error) {
	ticket, reply, err := s.resolveReply(ctx, msg)
	if err != nil {
		return nil, err
	}
	if err := s.retractReply(ctx, ticket, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *RelayService) resolveReply(ctx context.Context, msg *domain.InboundMessage) (*domain.Ticket, *domain.Message, error) {
	ticket, err := s.openTicketByThread(ctx, msg.ChannelID)
	if err != nil {
		return nil, nil, err
	}

	var reply *domain.Message
	if msg.ReferenceID != "" {
		reply, err = s.messages.GetBySourceID(ctx, msg.ReferenceID)
	} else {
		reply, err = s.messages.LatestReply(ctx, ticket.ID)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrReplyNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if reply.TicketID != ticket.ID || reply.Direction != domain.DirectionToUser ||
		reply.MirroredID == nil || reply.Deleted() {
		return nil, nil, ErrReplyNotFound
	}
	return ticket, reply, nil
}

func (s *RelayService) retractReply(ctx context.Context, ticket *domain.Ticket, reply *domain.Message) error {
	dm, err := s.gateway.OpenDM(ctx, ticket.CreatorID)
	if err != nil {
		return fmt.Errorf("open dm: %w", err)
	}
	if err := s.gateway.DeleteMessage(ctx, dm, *reply.MirroredID); err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	now := s.now().UTC()
	if err := s.messages.MarkDeleted(ctx, reply.ID, now); err != nil {
		return err
	}
	reply.DeletedAt = &now
	s.publishEvent(ctx, events.ThreadMessage, events.MessageRelayed{Ticket: ticket, Message: reply})
	return nil
}

// HandleMessageEdit mirrors a user's DM edit into the ticket thread, keeping the
// former content visible. Edits of anything that was not relayed are ignored.
func (s *RelayService) HandleMessageEdit(ctx context.Context, edit *domain.MessageEdit) error {
	if !edit.IsDirect() {
		return nil
	}
	ticket, stored, err := s.relayedSource(ctx, edit.ID, domain.DirectionToStaff)
	if err != nil || stored == nil {
		return err
	}
	if stored.Content == edit.Content {
		return nil
	}

	attachments, err := s.attachments.ListByMessage(ctx, stored.ID)
	if err != nil {
		return err
	}
	content := formatRelay(ticket.CreatorName, edit.Content, attachments)
	if former := strings.TrimSpace(stored.Content); former != "" {
		content += "\n-# Former contents: " + former
	}
	if err := s.gateway.EditMessage(ctx, ticket.ThreadID, *stored.MirroredID, content); err != nil {
		return fmt.Errorf("mirror dm edit: %w", err)
	}

	now := s.now().UTC()
	if err := s.messages.UpdateContent(ctx, stored.ID, edit.Content, now); err != nil {
		return err
	}
	stored.Content = edit.Content
	stored.EditedAt = &now
	stored.Attachments = attachments
	s.publishEvent(ctx, events.ThreadMessage, events.MessageRelayed{Ticket: ticket, Message: stored})
	return nil
}

// HandleMessageDelete reacts to deleted messages. A user deleting a relayed DM gets
// the thread copy marked as deleted; staff deleting the source of a reply in a
// ticket thread removes the DM copy.
func (s *RelayService) HandleMessageDelete(ctx context.Context, del *domain.MessageDelete) error {
	if !del.IsDirect() {
		ticket, stored, err := s.relayedSource(ctx, del.ID, domain.DirectionToUser)
		if err != nil || stored == nil {
			return err
		}
		if ticket.ThreadID != del.ChannelID {
			return nil
		}
		s.logger.Info("relaying reply deletion",
			zap.String("ticket_id", ticket.ID),
			zap.String("message_id", stored.ID))
		return s.retractReply(ctx, ticket, stored)
	}

	ticket, stored, err := s.relayedSource(ctx, del.ID, domain.DirectionToStaff)
	if err != nil || stored == nil {
		return err
	}
	attachments, err := s.attachments.ListByMessage(ctx, stored.ID)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	content := formatRelay(ticket.CreatorName, stored.Content, attachments) +
		fmt.Sprintf("\n-# Deleted by the user <t:%d:f>", now.Unix())
	if err := s.gateway.EditMessage(ctx, ticket.ThreadID, *stored.MirroredID, content); err != nil {
		return fmt.Errorf("mirror dm delete: %w", err)
	}
	if err := s.messages.MarkDeleted(ctx, stored.ID, now); err != nil {
		return err
	}
	stored.DeletedAt = &now
	s.publishEvent(ctx, events.ThreadMessage, events.MessageRelayed{Ticket: ticket, Message: stored})
	return nil
}

// relayedSource finds the live relayed message written as sourceID and its open
// ticket. Both are nil when there is nothing to act on.
func (s *RelayService) relayedSource(ctx context.Context, sourceID string, direction domain.MessageDirection) (*domain.Ticket, *domain.Message, error) {
	stored, err := s.messages.GetBySourceID(ctx, sourceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if stored.Direction != direction || stored.MirroredID == nil || stored.Deleted() {
		return nil, nil, nil
	}
	ticket, err := s.tickets.GetByID(ctx, stored.TicketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if !ticket.IsOpen() {
		return nil, nil, nil
	}
	return ticket, stored, nil
}

// HandleThreadArchive closes the ticket of a relay thread that was archived by
// hand or by Discord. The thread is left archived as it is.
func (s *RelayService) HandleThreadArchive(ctx context.Context, ev *domain.ThreadArchive) error {
	if ev.ParentID != s.relayChannelID {
		return nil
	}
	ticket, err := s.tickets.GetByThreadID(ctx, ev.ThreadID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if !ticket.IsOpen() {
		return nil
	}
	_, err = s.closeTicket(ctx, ticket, ArchiveCloser, "Thread archived", false)
	return err
}

// Close closes the ticket mirrored into threadID.
func (s *RelayService) Close(ctx context.Context, threadID, closedBy, reason string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByThreadID(ctx, threadID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return s.closeTicket(ctx, ticket, closedBy, reason, true)
}

// CloseByID closes a ticket by its id.
func (s *RelayService) CloseByID(ctx context.Context, id, closedBy, reason string) (*domain.Ticket, error) {
	ticket, err := s.ticketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.closeTicket(ctx, ticket, closedBy, reason, true)
}

func (s *RelayService) closeTicket(ctx context.Context, ticket *domain.Ticket, closedBy, reason string, archive bool) (*domain.Ticket, error) {
	if !ticket.IsOpen() {
		return nil, ErrTicketClosed
	}

	now := s.now().UTC()
	reason = strings.TrimSpace(reason)
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.ClosedBy = &closedBy
	if reason != "" {
		ticket.CloseReason = &reason
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	notice := "Your ticket has been closed."
	if reason != "" {
		notice += " Reason: " + reason
	}
	if err := s.sendDM(ctx, ticket.CreatorID, notice); err != nil {
		s.logger.Warn("close notice failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if archive {
		if err := s.gateway.ArchiveThread(ctx, ticket.ThreadID); err != nil {
			s.logger.Warn("archive thread failed", zap.String("thread_id", ticket.ThreadID), zap.Error(err))
		}
	}

	s.logger.Info("ticket closed", zap.String("ticket_id", ticket.ID), zap.String("closed_by", closedBy))
	s.publishEvent(ctx, events.ThreadClose, events.ThreadClosed{Ticket: ticket, ClosedBy: closedBy, Reason: reason})
	return ticket, nil
}

// GetTicket returns a ticket with its messages.
func (s *RelayService) GetTicket(ctx context.Context, id string) (*domain.Ticket, []domain.Message, error) {
	ticket, err := s.ticketByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	for i := range messages {
		attachments, err := s.attachments.ListByMessage(ctx, messages[i].ID)
		if err != nil {
			return nil, nil, err
		}
		messages[i].Attachments = attachments
	}
	return ticket, messages, nil
}

// ListTickets lists tickets for the dashboard.
func (s *RelayService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// IsTicketThread reports whether channelID is the thread of a known ticket.
func (s *RelayService) IsTicketThread(ctx context.Context, channelID string) (bool, error) {
	_, err := s.tickets.GetByThreadID(ctx, channelID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ticketByID treats ids that are not UUIDs as unknown tickets.
func (s *RelayService) ticketByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTicketNotFound
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return ticket, nil
}

func (s *RelayService) sendDM(ctx context.Context, userID, content string) error {
	dm, err := s.gateway.OpenDM(ctx, userID)
	if err != nil {
		return fmt.Errorf("open dm: %w", err)
	}
	_, err = s.gateway.SendMessage(ctx, dm, content)
	return err
}

func (s *RelayService) openTicketByThread(ctx context.Context, threadID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByThreadID(ctx, threadID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !ticket.IsOpen() {
		return nil, ErrTicketClosed
	}
	return ticket, nil
}

func (s *RelayService) storeMessage(ctx context.Context, ticket *domain.Ticket, src *domain.InboundMessage, content string, mirroredID *string, direction domain.MessageDirection) (*domain.Message, error) {
	stored := &domain.Message{
		TicketID:   ticket.ID,
		SourceID:   src.ID,
		MirroredID: mirroredID,
		AuthorID:   src.AuthorID,
		Content:    content,
		Direction:  direction,
		Internal:   direction == domain.DirectionNote,
	}
	if err := s.messages.Create(ctx, stored); err != nil {
		return nil, err
	}
	for _, att := range src.Attachments {
		att.ID = ""
		att.MessageID = stored.ID
		if err := s.attachments.Create(ctx, &att); err != nil {
			return nil, err
		}
		stored.Attachments = append(stored.Attachments, att)
	}
	if s.recorder != nil {
		s.recorder.RecordRelay(string(direction))
	}
	return stored, nil
}

func (s *RelayService) publishEvent(ctx context.Context, name string, payload any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, name, payload); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", name), zap.Error(err))
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTicketNotFound
	}
	return err
}

func isEmpty(content string, attachments []domain.Attachment) bool {
	return strings.TrimSpace(content) == "" && len(attachments) == 0
}

func threadName(user domain.User) string {
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = user.ID
	}
	if runes := []rune(name); len(runes) > maxThreadNameLen {
		name = string(runes[:maxThreadNameLen])
	}
	return name
}

func formatRelay(author, content string, attachments []domain.Attachment) string {
	var b strings.Builder
	b.WriteString("**")
	b.WriteString(author)
	b.WriteString(":**")
	if content = strings.TrimSpace(content); content != "" {
		b.WriteString(" ")
		b.WriteString(content)
	}
	for _, att := range attachments {
		b.WriteString("\n")
		b.WriteString(att.URL)
	}
	return b.String()
}
