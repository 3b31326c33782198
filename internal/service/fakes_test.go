package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/repository"
)

type fakeTickets struct {
	mu      sync.Mutex
	byID    map[string]*domain.Ticket
	failGet error
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{byID: make(map[string]*domain.Ticket)}
}

func (f *fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTickets) find(match func(*domain.Ticket) bool) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	for _, t := range f.byID {
		if match(t) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	return f.find(func(t *domain.Ticket) bool { return t.ID == id })
}

func (f *fakeTickets) GetByThreadID(_ context.Context, threadID string) (*domain.Ticket, error) {
	return f.find(func(t *domain.Ticket) bool { return t.ThreadID == threadID })
}

func (f *fakeTickets) GetOpenByCreator(_ context.Context, guildID, creatorID string) (*domain.Ticket, error) {
	return f.find(func(t *domain.Ticket) bool {
		return t.GuildID == guildID && t.CreatorID == creatorID && t.IsOpen()
	})
}

func (f *fakeTickets) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.byID {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMessages struct {
	mu     sync.Mutex
	items  []domain.Message
	nextID int
}

func (f *fakeMessages) Create(_ context.Context, m *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = fmt.Sprintf("message-%d", f.nextID)
	f.items = append(f.items, *m)
	return nil
}

func (f *fakeMessages) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.items {
		if m.TicketID == ticketID {
			m.Attachments = nil
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) GetBySourceID(_ context.Context, sourceID string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.items {
		if m.SourceID == sourceID {
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMessages) LatestReply(_ context.Context, ticketID string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.items) - 1; i >= 0; i-- {
		m := f.items[i]
		if m.TicketID == ticketID && m.Direction == domain.DirectionToUser && !m.Deleted() {
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMessages) UpdateContent(_ context.Context, id, content string, editedAt time.Time) error {
	return f.update(id, func(m *domain.Message) {
		m.Content = content
		m.EditedAt = &editedAt
	})
}

func (f *fakeMessages) MarkDeleted(_ context.Context, id string, deletedAt time.Time) error {
	return f.update(id, func(m *domain.Message) { m.DeletedAt = &deletedAt })
}

func (f *fakeMessages) update(id string, apply func(*domain.Message)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			apply(&f.items[i])
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeMessages) get(id string) domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.items {
		if m.ID == id {
			return m
		}
	}
	return domain.Message{}
}

type fakeAttachments struct {
	mu    sync.Mutex
	items []domain.Attachment
}

func (f *fakeAttachments) Create(_ context.Context, a *domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = fmt.Sprintf("attachment-%d", len(f.items)+1)
	f.items = append(f.items, *a)
	return nil
}

func (f *fakeAttachments) ListByMessage(_ context.Context, messageID string) ([]domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Attachment
	for _, a := range f.items {
		if a.MessageID == messageID {
			out = append(out, a)
		}
	}
	return out, nil
}

type sentMessage struct {
	ChannelID string
	MessageID string
	Content   string
}

type fakeGateway struct {
	mu          sync.Mutex
	sent        []sentMessage
	edited      []sentMessage
	deleted     []sentMessage
	threads     []string
	archived    []string
	users       map[string]*domain.User
	nextID      int
	failSend    error
	failDM      error
	failArchive error
}

func (g *fakeGateway) SendMessage(_ context.Context, channelID, content string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSend != nil {
		return "", g.failSend
	}
	if g.failDM != nil && strings.HasPrefix(channelID, "dm-") {
		return "", g.failDM
	}
	g.nextID++
	id := fmt.Sprintf("sent-%d", g.nextID)
	g.sent = append(g.sent, sentMessage{ChannelID: channelID, MessageID: id, Content: content})
	return id, nil
}

func (g *fakeGateway) EditMessage(_ context.Context, channelID, messageID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edited = append(g.edited, sentMessage{ChannelID: channelID, MessageID: messageID, Content: content})
	return nil
}

func (g *fakeGateway) DeleteMessage(_ context.Context, channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, sentMessage{ChannelID: channelID, MessageID: messageID})
	return nil
}

func (g *fakeGateway) LookupUser(_ context.Context, userID string) (*domain.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.users[userID]
	if !ok {
		return nil, errors.New("unknown user")
	}
	cp := *u
	return &cp, nil
}

func (g *fakeGateway) CreateThread(_ context.Context, _ string, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threads = append(g.threads, name)
	return fmt.Sprintf("thread-%d", len(g.threads)), nil
}

func (g *fakeGateway) OpenDM(_ context.Context, userID string) (string, error) {
	return "dm-" + userID, nil
}

func (g *fakeGateway) ArchiveThread(_ context.Context, threadID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failArchive != nil {
		return g.failArchive
	}
	g.archived = append(g.archived, threadID)
	return nil
}

func (g *fakeGateway) sentTo(channelID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, m := range g.sent {
		if m.ChannelID == channelID {
			out = append(out, m.Content)
		}
	}
	return out
}

var errBoom = errors.New("boom")
