package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discord-modmail/modmail/internal/dispatcher"
	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/events"
	"github.com/discord-modmail/modmail/internal/extensions"
	"github.com/discord-modmail/modmail/internal/worker"
)

type fakeSink struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	received []worker.Delivery
}

func (f *fakeSink) Start(context.Context) { f.started = true }
func (f *fakeSink) Stop(context.Context)  { f.stopped = true }

func (f *fakeSink) Enqueue(d worker.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, d)
	return nil
}

func TestNotify_LifecycleAndPayloads(t *testing.T) {
	sink := &fakeSink{}
	core, logs := observer.New(zap.InfoLevel)
	ext := New(sink, zap.New(core))
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ext.now = func() time.Time { return fixed }

	d := dispatcher.NewWithEvents(events.Names())
	m := extensions.NewManager(d, nil)
	require.NoError(t, m.Add(ext))
	ctx := context.Background()
	require.NoError(t, m.Load(ctx, Name))
	assert.True(t, sink.started)

	ticket := &domain.Ticket{ID: "t1", ThreadID: "th1", CreatorID: "u1", Status: domain.TicketStatusOpen}
	require.NoError(t, d.Dispatch(ctx, events.ThreadCreate, events.ThreadCreated{Ticket: ticket}))
	require.NoError(t, d.Dispatch(ctx, events.ThreadMessage, events.MessageRelayed{
		Ticket:  ticket,
		Message: &domain.Message{AuthorID: "mod", Content: "secret", Direction: domain.DirectionNote, Internal: true},
	}))
	require.NoError(t, d.Dispatch(ctx, events.ThreadClose, events.ThreadClosed{Ticket: ticket, ClosedBy: "mod", Reason: "done"}))

	require.Len(t, sink.received, 3)
	created := sink.received[0].Body.(Notification)
	assert.Equal(t, Notification{
		Event: "thread_create", TicketID: "t1", ThreadID: "th1", CreatorID: "u1", Status: "OPEN", OccurredAt: fixed,
	}, created)

	note := sink.received[1].Body.(Notification)
	assert.Empty(t, note.Content)
	assert.Equal(t, "NOTE", note.Direction)

	closed := sink.received[2].Body.(Notification)
	assert.Equal(t, "done", closed.Reason)
	assert.Equal(t, "mod", closed.ClosedBy)

	assert.Equal(t, 1, logs.FilterMessage("TicketClosed").Len())

	require.NoError(t, m.Unload(ctx, Name))
	assert.True(t, sink.stopped)
}

func TestNotify_WithoutSinkOnlyLogs(t *testing.T) {
	ext := New(nil, nil)
	require.NoError(t, ext.Setup(context.Background()))
	require.NoError(t, ext.handleThreadCreate(context.Background(), events.ThreadCreated{Ticket: &domain.Ticket{ID: "t"}}))
	require.NoError(t, ext.Teardown(context.Background()))
}

func TestNotify_FlagsEditedAndDeletedMessages(t *testing.T) {
	sink := &fakeSink{}
	ext := New(sink, nil)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{ID: "t1", Status: domain.TicketStatusOpen}

	require.NoError(t, ext.handleThreadMessage(context.Background(), events.MessageRelayed{
		Ticket:  ticket,
		Message: &domain.Message{Content: "fixed", Direction: domain.DirectionToUser, EditedAt: &at},
	}))
	require.NoError(t, ext.handleThreadMessage(context.Background(), events.MessageRelayed{
		Ticket:  ticket,
		Message: &domain.Message{Content: "gone", Direction: domain.DirectionToStaff, DeletedAt: &at},
	}))

	require.Len(t, sink.received, 2)
	edited := sink.received[0].Body.(Notification)
	assert.True(t, edited.Edited)
	assert.False(t, edited.Deleted)
	deleted := sink.received[1].Body.(Notification)
	assert.True(t, deleted.Deleted)
	assert.Equal(t, "gone", deleted.Content)
}

func TestNotify_BadPayload(t *testing.T) {
	ext := New(nil, nil)
	err := ext.handleThreadClose(context.Background(), events.ThreadCreated{})
	assert.ErrorIs(t, err, events.ErrUnexpectedPayload)
}

func TestNewSink(t *testing.T) {
	assert.Nil(t, NewSink(" ", time.Second, nil))
	assert.NotNil(t, NewSink("http://hooks.local/x", time.Second, nil))
}
