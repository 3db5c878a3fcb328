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

type campaignRepository struct {
	BaseRepository
}

func NewCampaignRepository(db *sqlx.DB) repository.CampaignRepository {
	return &campaignRepository{NewBaseRepository(db)}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *model.Campaign) error {
	query := `
		INSERT INTO campaigns (
			id, name, description, occasion_type, segment_filter, schedule_type,
			scheduled_at, recurrence_rule, status, created_by, stats,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = campaign.CreatedAt

	_, err := r.GetDB().ExecContext(ctx, query,
		campaign.ID,
		campaign.Name,
		campaign.Description,
		campaign.OccasionType,
		campaign.SegmentFilter,
		campaign.ScheduleType,
		campaign.ScheduledAt,
		campaign.RecurrenceRule,
		campaign.Status,
		campaign.CreatedBy,
		campaign.Stats,
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *campaignRepository) Get(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT * FROM campaigns WHERE id = $1`
	var campaign model.Campaign
	if err := r.GetDB().GetContext(ctx, &campaign, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("campaign", err)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

func (r *campaignRepository) Update(ctx context.Context, campaign *model.Campaign) error {
	query := `
		UPDATE campaigns SET
			name = $1, description = $2, occasion_type = $3, segment_filter = $4,
			schedule_type = $5, scheduled_at = $6, recurrence_rule = $7,
			status = $8, stats = $9, updated_at = $10
		WHERE id = $11
	`
	campaign.UpdatedAt = time.Now()

	result, err := r.GetDB().ExecContext(ctx, query,
		campaign.Name,
		campaign.Description,
		campaign.OccasionType,
		campaign.SegmentFilter,
		campaign.ScheduleType,
		campaign.ScheduledAt,
		campaign.RecurrenceRule,
		campaign.Status,
		campaign.Stats,
		campaign.UpdatedAt,
		campaign.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFound("campaign", nil)
	}
	return nil
}

func (r *campaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFound("campaign", nil)
	}
	return nil
}

func (r *campaignRepository) List(ctx context.Context, filters *model.CampaignFilters) ([]*model.Campaign, int64, error) {
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

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	filters.Normalize()
	args = append(args, filters.Limit, filters.Skip)
	query := fmt.Sprintf(`SELECT * FROM campaigns%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	var campaigns []*model.Campaign
	if err := r.GetDB().SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, total, nil
}

func (r *campaignRepository) Transition(ctx context.Context, id uuid.UUID, fn func(*model.Campaign) error) (*model.Campaign, error) {
	var campaign model.Campaign

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &campaign, `SELECT * FROM campaigns WHERE id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NotFound("campaign", err)
			}
			return fmt.Errorf("failed to lock campaign: %w", err)
		}

		if err := fn(&campaign); err != nil {
			return err
		}

		campaign.UpdatedAt = time.Now()
		_, err := tx.ExecContext(ctx,
			`UPDATE campaigns SET status = $1, stats = $2, updated_at = $3 WHERE id = $4`,
			campaign.Status, campaign.Stats, campaign.UpdatedAt, campaign.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update campaign: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}
