package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/discord-modmail/modmail/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByMessage(ctx context.Context, messageID string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO attachments (id, message_id, file_name, url, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.ID,
		attachment.MessageID,
		attachment.FileName,
		attachment.URL,
		attachment.MimeType,
		attachment.SizeBytes,
	).Scan(&attachment.CreatedAt)
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, message_id, file_name, url, mime_type, size_bytes, created_at
        FROM attachments WHERE message_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.MessageID,
			&attachment.FileName,
			&attachment.URL,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
