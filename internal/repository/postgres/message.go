package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
)

type messageRepository struct {
	BaseRepository
}

func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &messageRepository{NewBaseRepository(db)}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message, history *model.MessageHistory) error {
	message.CreatedAt = time.Now()
	message.UpdatedAt = message.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO messages (
				id, contact_id, occasion_type, content, status, generated_by,
				created_by, approved_by, scheduled_for, approved_at, sent_at,
				metadata, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		if _, err := tx.ExecContext(ctx, query,
			message.ID,
			message.ContactID,
			message.OccasionType,
			message.Content,
			message.Status,
			message.GeneratedBy,
			message.CreatedBy,
			message.ApprovedBy,
			message.ScheduledFor,
			message.ApprovedAt,
			message.SentAt,
			message.Metadata,
			message.CreatedAt,
			message.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		return insertHistory(ctx, tx, history)
	})
}

func (r *messageRepository) Get(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	query := `SELECT * FROM messages WHERE id = $1`
	var message model.Message
	if err := r.GetDB().GetContext(ctx, &message, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("message", err)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &message, nil
}

func (r *messageRepository) List(ctx context.Context, filters *model.MessageFilters) ([]*model.Message, int64, error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.OccasionType != "" {
		args = append(args, filters.OccasionType)
		where += fmt.Sprintf(" AND occasion_type = $%d", len(args))
	}
	if filters.ContactID != nil {
		args = append(args, *filters.ContactID)
		where += fmt.Sprintf(" AND contact_id = $%d", len(args))
	}
	if filters.GeneratedBy != "" {
		args = append(args, filters.GeneratedBy)
		where += fmt.Sprintf(" AND generated_by = $%d", len(args))
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM messages`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	filters.Normalize()
	args = append(args, filters.Limit, filters.Skip)
	query := fmt.Sprintf(`SELECT * FROM messages%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	var messages []*model.Message
	if err := r.GetDB().SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, total, nil
}

// Transition re-reads the row under FOR UPDATE so the guard in fn is
// evaluated against current state, not the state the caller last saw.
func (r *messageRepository) Transition(ctx context.Context, id uuid.UUID, fn func(*model.Message) (*model.MessageHistory, error)) (*model.Message, error) {
	var message model.Message

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &message, `SELECT * FROM messages WHERE id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NotFound("message", err)
			}
			return fmt.Errorf("failed to lock message: %w", err)
		}

		history, err := fn(&message)
		if err != nil {
			return err
		}

		message.UpdatedAt = time.Now()
		query := `
			UPDATE messages SET
				content = $1, status = $2, approved_by = $3, scheduled_for = $4,
				approved_at = $5, sent_at = $6, metadata = $7, updated_at = $8
			WHERE id = $9
		`
		if _, err := tx.ExecContext(ctx, query,
			message.Content,
			message.Status,
			message.ApprovedBy,
			message.ScheduledFor,
			message.ApprovedAt,
			message.SentAt,
			message.Metadata,
			message.UpdatedAt,
			message.ID,
		); err != nil {
			return fmt.Errorf("failed to update message: %w", err)
		}

		return insertHistory(ctx, tx, history)
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uuid.UUID, guard func(*model.Message) error) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var message model.Message
		if err := tx.GetContext(ctx, &message, `SELECT * FROM messages WHERE id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NotFound("message", err)
			}
			return fmt.Errorf("failed to lock message: %w", err)
		}

		if err := guard(&message); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM message_history WHERE message_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete message history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
		return nil
	})
}

func (r *messageRepository) ListHistory(ctx context.Context, messageID uuid.UUID) ([]*model.MessageHistory, error) {
	query := `SELECT * FROM message_history WHERE message_id = $1 ORDER BY created_at DESC`
	var history []*model.MessageHistory
	if err := r.GetDB().SelectContext(ctx, &history, query, messageID); err != nil {
		return nil, fmt.Errorf("failed to list message history: %w", err)
	}
	return history, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, history *model.MessageHistory) error {
	if history == nil {
		return nil
	}
	if history.ID == uuid.Nil {
		history.ID = uuid.New()
	}
	history.CreatedAt = time.Now()

	query := `
		INSERT INTO message_history (id, message_id, action, user_id, old_content, new_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, query,
		history.ID,
		history.MessageID,
		history.Action,
		history.UserID,
		history.OldContent,
		history.NewContent,
		history.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to append message history: %w", err)
	}
	return nil
}
