package events

import (
	"github.com/discord-modmail/modmail/internal/domain"
)

// Event names declared by the bot at startup.
const (
	// DMReceive carries a *domain.InboundMessage sent to the bot in a DM.
	DMReceive = "dm_receive"
	// GuildMessage carries a *domain.InboundMessage posted in a guild channel or thread.
	GuildMessage = "guild_message"
	// MessageEdit carries a *domain.MessageEdit for a DM or guild message.
	MessageEdit = "message_edit"
	// MessageDelete carries a *domain.MessageDelete for a DM or guild message.
	MessageDelete = "message_delete"
	// ThreadArchive carries a *domain.ThreadArchive when a thread gets archived.
	ThreadArchive = "thread_archive"
	// ThreadCreate carries a ThreadCreated.
	ThreadCreate = "thread_create"
	// ThreadMessage carries a MessageRelayed.
	ThreadMessage = "thread_message"
	// ThreadClose carries a ThreadClosed.
	ThreadClose = "thread_close"
)

// Names returns every event the bot declares.
func Names() []string {
	return []string{
		DMReceive, GuildMessage, MessageEdit, MessageDelete, ThreadArchive,
		ThreadCreate, ThreadMessage, ThreadClose,
	}
}

// ThreadCreated is dispatched after a ticket and its thread were opened.
type ThreadCreated struct {
	Ticket *domain.Ticket
	Opener *domain.InboundMessage
}

// MessageRelayed is dispatched after a message was relayed, noted, edited or deleted.
type MessageRelayed struct {
	Ticket  *domain.Ticket
	Message *domain.Message
}

// ThreadClosed is dispatched after a ticket was closed.
type ThreadClosed struct {
	Ticket   *domain.Ticket
	ClosedBy string
	Reason   string
}
