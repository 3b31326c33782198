package blocklist

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discord-modmail/modmail/internal/dispatcher"
	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/events"
	"github.com/discord-modmail/modmail/internal/extensions"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "guild"), mr
}

func TestStore(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	added, err := store.Block(ctx, "2")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = store.Block(ctx, "2")
	require.NoError(t, err)
	assert.False(t, added)
	_, err = store.Block(ctx, "1")
	require.NoError(t, err)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)

	members, err := mr.Members("modmail:blocklist:guild")
	require.NoError(t, err)
	assert.Len(t, members, 2)

	blocked, err := store.IsBlocked(ctx, "2")
	require.NoError(t, err)
	assert.True(t, blocked)

	removed, err := store.Unblock(ctx, "2")
	require.NoError(t, err)
	assert.True(t, removed)
	blocked, err = store.IsBlocked(ctx, "2")
	require.NoError(t, err)
	assert.False(t, blocked)

	_, err = store.Block(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestExtension_ClaimsBlockedDMs(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	_, err := store.Block(ctx, "spammer")
	require.NoError(t, err)

	d := dispatcher.NewWithEvents(events.Names())
	m := extensions.NewManager(d, nil)
	require.NoError(t, m.Add(New(store, nil)))
	require.NoError(t, m.Load(ctx, Name))

	relayed := 0
	_, err = d.Register(events.DMReceive, dispatcher.NewHandler("relay", func(context.Context, ...any) (bool, error) {
		relayed++
		return true, nil
	}), dispatcher.WithPriority(0))
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(ctx, events.DMReceive, &domain.InboundMessage{ID: "m1", AuthorID: "spammer"}))
	assert.Equal(t, 0, relayed)

	require.NoError(t, d.Dispatch(ctx, events.DMReceive, &domain.InboundMessage{ID: "m2", AuthorID: "friend"}))
	assert.Equal(t, 1, relayed)
}

func TestExtension_SetupFailsWithoutRedis(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	err := New(store, nil).Setup(context.Background())
	require.Error(t, err)
}

func TestExtension_RejectsUnexpectedPayload(t *testing.T) {
	store, _ := newStore(t)
	e := New(store, nil)

	_, err := e.dropBlocked(context.Background(), "not a message")
	assert.ErrorIs(t, err, events.ErrUnexpectedPayload)
}
