package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discord-modmail/modmail/internal/domain"
)

func TestShouldHandle(t *testing.T) {
	user := &discordgo.User{ID: "u1", Username: "alice"}

	assert.True(t, shouldHandle("self", &discordgo.Message{Author: user}))
	assert.True(t, shouldHandle("self", &discordgo.Message{Author: user, Type: discordgo.MessageTypeReply}))
	assert.False(t, shouldHandle("self", &discordgo.Message{Author: user, Type: discordgo.MessageTypeThreadCreated}))
	assert.False(t, shouldHandle("self", &discordgo.Message{}))
	assert.False(t, shouldHandle("self", nil))
	assert.False(t, shouldHandle("u1", &discordgo.Message{Author: user}))
	assert.False(t, shouldHandle("self", &discordgo.Message{Author: &discordgo.User{ID: "b", Bot: true}}))
}

func TestToInbound(t *testing.T) {
	m := &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   "hello",
		Author:    &discordgo.User{ID: "u1", Username: "alice"},
		Attachments: []*discordgo.MessageAttachment{
			{Filename: "a.png", URL: "https://cdn/a.png", ContentType: "image/png", Size: 42},
			nil,
		},
	}

	got := toInbound(m)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "c1", got.ChannelID)
	assert.Equal(t, "g1", got.GuildID)
	assert.Equal(t, "u1", got.AuthorID)
	assert.Equal(t, "alice", got.AuthorName)
	assert.False(t, got.IsDirect())
	assert.Len(t, got.Attachments, 1)
	assert.Equal(t, int64(42), got.Attachments[0].SizeBytes)
	assert.Equal(t, "image/png", got.Attachments[0].MimeType)

	assert.Empty(t, got.ReferenceID)

	m.GuildID = ""
	m.MessageReference = &discordgo.MessageReference{MessageID: "m0"}
	direct := toInbound(m)
	assert.True(t, direct.IsDirect())
	assert.Equal(t, "m0", direct.ReferenceID)
}

func TestToEdit(t *testing.T) {
	user := &discordgo.User{ID: "u1"}
	update := &discordgo.MessageUpdate{
		Message:      &discordgo.Message{ID: "m1", ChannelID: "dm", Author: user, Content: "new"},
		BeforeUpdate: &discordgo.Message{Content: "old"},
	}

	edit, ok := toEdit("self", update)
	require.True(t, ok)
	assert.Equal(t, &domain.MessageEdit{ID: "m1", ChannelID: "dm", AuthorID: "u1", Content: "new"}, edit)
	assert.True(t, edit.IsDirect())

	_, ok = toEdit("u1", update)
	assert.False(t, ok, "own edits")
	update.BeforeUpdate.Content = "new"
	_, ok = toEdit("self", update)
	assert.False(t, ok, "embed-only update")
	_, ok = toEdit("self", &discordgo.MessageUpdate{Message: &discordgo.Message{ID: "m1", Content: "x"}})
	assert.False(t, ok, "partial update")
	_, ok = toEdit("self", &discordgo.MessageUpdate{})
	assert.False(t, ok)

	update.BeforeUpdate = nil
	_, ok = toEdit("self", update)
	assert.True(t, ok, "uncached message")
}

func TestToArchive(t *testing.T) {
	archived := &discordgo.ThreadMetadata{Archived: true}
	ev, ok := toArchive(&discordgo.ThreadUpdate{
		Channel:      &discordgo.Channel{ID: "th1", GuildID: "g1", ParentID: "relay", ThreadMetadata: archived},
		BeforeUpdate: &discordgo.Channel{ParentID: "relay", ThreadMetadata: &discordgo.ThreadMetadata{}},
	})
	require.True(t, ok)
	assert.Equal(t, &domain.ThreadArchive{ThreadID: "th1", ParentID: "relay", GuildID: "g1"}, ev)

	_, ok = toArchive(&discordgo.ThreadUpdate{
		Channel:      &discordgo.Channel{ID: "th1", ThreadMetadata: archived},
		BeforeUpdate: &discordgo.Channel{ThreadMetadata: archived},
	})
	assert.False(t, ok, "already archived")
	_, ok = toArchive(&discordgo.ThreadUpdate{
		Channel: &discordgo.Channel{ID: "th1", ThreadMetadata: &discordgo.ThreadMetadata{}},
	})
	assert.False(t, ok, "unarchived")
	_, ok = toArchive(&discordgo.ThreadUpdate{Channel: &discordgo.Channel{ID: "c1"}})
	assert.False(t, ok, "not a thread")

	ev, ok = toArchive(&discordgo.ThreadUpdate{
		Channel: &discordgo.Channel{ID: "th2", ParentID: "relay", ThreadMetadata: archived},
	})
	require.True(t, ok)
	assert.Equal(t, "relay", ev.ParentID)
}

func TestToUser(t *testing.T) {
	assert.Equal(t, &domain.User{ID: "1", Name: "Alice"}, toUser(&discordgo.User{ID: "1", Username: "alice", GlobalName: "Alice"}))
	assert.Equal(t, &domain.User{ID: "2", Name: "helper", Bot: true}, toUser(&discordgo.User{ID: "2", Username: "helper", Bot: true}))
}
