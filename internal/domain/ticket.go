package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// Ticket is a modmail conversation between one user and the staff of one guild,
// mirrored into a guild thread.
type Ticket struct {
	ID                string
	GuildID           string
	ThreadID          string
	CreatorID         string
	CreatorName       string
	CreatingMessageID string
	CreatingChannelID string
	Status            TicketStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ClosedAt          *time.Time
	ClosedBy          *string
	CloseReason       *string
}

// IsOpen reports whether messages may still be relayed.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}
