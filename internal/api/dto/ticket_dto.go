package dto

import (
	"time"

	"github.com/discord-modmail/modmail/internal/domain"
)

// TicketSummary response.
type TicketSummary struct {
	ID          string              `json:"id"`
	GuildID     string              `json:"guild_id"`
	ThreadID    string              `json:"thread_id"`
	CreatorID   string              `json:"creator_id"`
	CreatorName string              `json:"creator_name"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	ClosedAt    *time.Time          `json:"closed_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	CreatingMessageID string            `json:"creating_message_id"`
	CreatingChannelID string            `json:"creating_channel_id"`
	ClosedBy          *string           `json:"closed_by"`
	CloseReason       *string           `json:"close_reason"`
	Messages          []MessageResponse `json:"messages"`
}

// MessageResponse represents a relayed message or note.
type MessageResponse struct {
	ID          string                  `json:"id"`
	SourceID    string                  `json:"source_id"`
	MirroredID  *string                 `json:"mirrored_id"`
	AuthorID    string                  `json:"author_id"`
	Direction   domain.MessageDirection `json:"direction"`
	Internal    bool                    `json:"internal"`
	Content     string                  `json:"content"`
	Attachments []AttachmentResponse    `json:"attachments"`
	CreatedAt   time.Time               `json:"created_at"`
	EditedAt    *time.Time              `json:"edited_at,omitempty"`
	DeletedAt   *time.Time              `json:"deleted_at,omitempty"`
}

// AttachmentResponse describes attachment metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	URL       string `json:"url"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	Reason string `json:"reason"`
}
