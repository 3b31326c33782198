package domain

import "time"

// MessageDirection records which side of the relay a message came from.
type MessageDirection string

const (
	DirectionToStaff MessageDirection = "TO_STAFF"
	DirectionToUser  MessageDirection = "TO_USER"
	DirectionNote    MessageDirection = "NOTE"
)

// Message is a relayed or internal message of a ticket. SourceID is the Discord
// message that was written, MirroredID the copy the bot posted on the other side.
type Message struct {
	ID          string
	TicketID    string
	SourceID    string
	MirroredID  *string
	AuthorID    string
	Content     string
	Direction   MessageDirection
	Internal    bool
	Attachments []Attachment
	CreatedAt   time.Time
	EditedAt    *time.Time
	DeletedAt   *time.Time
}

// Deleted reports whether the message was retracted.
func (m *Message) Deleted() bool {
	return m.DeletedAt != nil
}

// Attachment stores metadata of a file attached to a relayed message.
type Attachment struct {
	ID        string
	MessageID string
	FileName  string
	URL       string
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time
}
