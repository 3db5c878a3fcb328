package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
)

type contactRepository struct {
	BaseRepository
}

func NewContactRepository(db *sqlx.DB) repository.ContactRepository {
	return &contactRepository{NewBaseRepository(db)}
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) error {
	query := `
		INSERT INTO contacts (
			id, name, email, phone, segment, birthday, company, position,
			language, tags, custom_fields, last_interaction_date, created_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, query,
		contact.ID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Segment,
		contact.Birthday,
		contact.Company,
		contact.Position,
		contact.Language,
		contact.Tags,
		contact.CustomFields,
		contact.LastInteractionDate,
		contact.CreatedBy,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("contact with this email already exists")
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	query := `SELECT * FROM contacts WHERE id = $1`
	var contact model.Contact
	if err := r.GetDB().GetContext(ctx, &contact, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("contact", err)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	query := `SELECT * FROM contacts WHERE email = $1`
	var contact model.Contact
	if err := r.GetDB().GetContext(ctx, &contact, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("contact", err)
		}
		return nil, fmt.Errorf("failed to get contact by email: %w", err)
	}
	return &contact, nil
}

func (r *contactRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `SELECT * FROM contacts WHERE id = ANY($1)`
	var contacts []*model.Contact
	if err := r.GetDB().SelectContext(ctx, &contacts, query, pq.Array(raw)); err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	return contacts, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) error {
	query := `
		UPDATE contacts SET
			name = $1, email = $2, phone = $3, segment = $4, birthday = $5,
			company = $6, position = $7, language = $8, tags = $9,
			custom_fields = $10, last_interaction_date = $11, updated_at = $12
		WHERE id = $13
	`
	contact.UpdatedAt = time.Now()

	result, err := r.GetDB().ExecContext(ctx, query,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Segment,
		contact.Birthday,
		contact.Company,
		contact.Position,
		contact.Language,
		contact.Tags,
		contact.CustomFields,
		contact.LastInteractionDate,
		contact.UpdatedAt,
		contact.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("contact with this email already exists")
		}
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFound("contact", nil)
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM contacts WHERE id = $1`
	result, err := r.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFound("contact", nil)
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context, filters *model.ContactFilters) ([]*model.Contact, int64, error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if filters.Segment != "" {
		args = append(args, filters.Segment)
		where += fmt.Sprintf(" AND segment = $%d", len(args))
	}
	if filters.Language != "" {
		args = append(args, filters.Language)
		where += fmt.Sprintf(" AND language = $%d", len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", n, n, n)
	}
	if filters.HasBirthdayThisMonth {
		args = append(args, int(time.Now().Month()))
		where += fmt.Sprintf(" AND EXTRACT(MONTH FROM birthday) = $%d", len(args))
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM contacts`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	filters.Normalize()
	args = append(args, filters.Limit, filters.Skip)
	query := fmt.Sprintf(`SELECT * FROM contacts%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	var contacts []*model.Contact
	if err := r.GetDB().SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, total, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
