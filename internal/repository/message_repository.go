package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/discord-modmail/modmail/internal/domain"
)

// MessageRepository manages relayed and internal ticket messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
	GetBySourceID(ctx context.Context, sourceID string) (*domain.Message, error)
	// LatestReply returns the newest staff reply of a ticket that was not deleted.
	LatestReply(ctx context.Context, ticketID string) (*domain.Message, error)
	UpdateContent(ctx context.Context, id, content string, editedAt time.Time) error
	MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error
}

const messageColumns = `id, ticket_id, source_id, mirrored_id, author_id, content, direction, internal,
        created_at, edited_at, deleted_at`

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO messages (id, ticket_id, source_id, mirrored_id, author_id, content, direction, internal)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		msg.ID,
		msg.TicketID,
		msg.SourceID,
		msg.MirroredID,
		msg.AuthorID,
		msg.Content,
		msg.Direction,
		msg.Internal,
	).Scan(&msg.CreatedAt)
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) GetBySourceID(ctx context.Context, sourceID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE source_id=$1 ORDER BY created_at DESC LIMIT 1`
	return scanMessage(r.pool.QueryRow(ctx, query, sourceID))
}

func (r *messageRepository) LatestReply(ctx context.Context, ticketID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE ticket_id=$1 AND direction=$2 AND deleted_at IS NULL
        ORDER BY created_at DESC LIMIT 1`
	return scanMessage(r.pool.QueryRow(ctx, query, ticketID, domain.DirectionToUser))
}

func (r *messageRepository) UpdateContent(ctx context.Context, id, content string, editedAt time.Time) error {
	const query = `UPDATE messages SET content=$2, edited_at=$3 WHERE id=$1`
	tag, err := r.pool.Exec(ctx, query, id, content, editedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *messageRepository) MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error {
	const query = `UPDATE messages SET deleted_at=$2 WHERE id=$1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, deletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	if err := row.Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.SourceID,
		&msg.MirroredID,
		&msg.AuthorID,
		&msg.Content,
		&msg.Direction,
		&msg.Internal,
		&msg.CreatedAt,
		&msg.EditedAt,
		&msg.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}
