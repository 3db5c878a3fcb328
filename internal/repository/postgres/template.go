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

type templateRepository struct {
	BaseRepository
}

func NewTemplateRepository(db *sqlx.DB) repository.TemplateRepository {
	return &templateRepository{NewBaseRepository(db)}
}

func (r *templateRepository) Create(ctx context.Context, template *model.Template) error {
	query := `
		INSERT INTO templates (
			id, name, occasion_type, segment, content, language, is_active,
			usage_count, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	template.CreatedAt = time.Now()
	template.UpdatedAt = template.CreatedAt

	_, err := r.GetDB().ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.OccasionType,
		template.Segment,
		template.Content,
		template.Language,
		template.IsActive,
		template.UsageCount,
		template.CreatedBy,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	query := `SELECT * FROM templates WHERE id = $1`
	var template model.Template
	if err := r.GetDB().GetContext(ctx, &template, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("template", err)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

func (r *templateRepository) Update(ctx context.Context, template *model.Template) error {
	query := `
		UPDATE templates SET
			name = $1, occasion_type = $2, segment = $3, content = $4,
			language = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	template.UpdatedAt = time.Now()

	result, err := r.GetDB().ExecContext(ctx, query,
		template.Name,
		template.OccasionType,
		template.Segment,
		template.Content,
		template.Language,
		template.IsActive,
		template.UpdatedAt,
		template.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFound("template", nil)
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFound("template", nil)
	}
	return nil
}

func (r *templateRepository) List(ctx context.Context, filters *model.TemplateFilters) ([]*model.Template, int64, error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if filters.OccasionType != "" {
		args = append(args, filters.OccasionType)
		where += fmt.Sprintf(" AND occasion_type = $%d", len(args))
	}
	if filters.Segment != "" {
		args = append(args, filters.Segment)
		where += fmt.Sprintf(" AND segment = $%d", len(args))
	}
	if filters.Language != "" {
		args = append(args, filters.Language)
		where += fmt.Sprintf(" AND language = $%d", len(args))
	}
	if filters.ActiveOnly {
		where += " AND is_active = TRUE"
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM templates`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count templates: %w", err)
	}

	filters.Normalize()
	args = append(args, filters.Limit, filters.Skip)
	query := fmt.Sprintf(`SELECT * FROM templates%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	var templates []*model.Template
	if err := r.GetDB().SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, total, nil
}

func (r *templateRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	result, err := r.GetDB().ExecContext(ctx,
		`UPDATE templates SET usage_count = usage_count + 1, updated_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment template usage: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFound("template", nil)
	}
	return nil
}
