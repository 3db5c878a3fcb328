package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/messaging"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/metrics"
)

// Service manages campaign definitions and hands execution off to the worker
// through the message broker. Stats counters are owned by the worker; the API
// only initializes and reads them.
type Service struct {
	repo    repository.CampaignRepository
	broker  messaging.Broker
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.CampaignRepository, broker messaging.Broker, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		broker:  broker,
		logger:  logger,
		metrics: m,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateCampaignRequest, userID uuid.UUID) (*model.Campaign, error) {
	occasion := model.OccasionType(req.OccasionType)
	if !occasion.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid occasion type: %s", req.OccasionType), nil)
	}

	scheduleType := model.ScheduleType(req.ScheduleType)
	if req.ScheduleType == "" {
		scheduleType = model.ScheduleImmediate
	} else if !scheduleType.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid schedule type: %s", req.ScheduleType), nil)
	}

	if err := validateSchedule(scheduleType, req.ScheduledAt, req.RecurrenceRule); err != nil {
		return nil, err
	}

	campaign := &model.Campaign{
		Base:           model.Base{ID: uuid.New()},
		Name:           req.Name,
		Description:    req.Description,
		OccasionType:   occasion,
		SegmentFilter:  req.SegmentFilter,
		ScheduleType:   scheduleType,
		ScheduledAt:    req.ScheduledAt,
		RecurrenceRule: req.RecurrenceRule,
		Status:         model.CampaignStatusDraft,
		CreatedBy:      userID,
		Stats:          zeroStats(),
	}
	if campaign.SegmentFilter == nil {
		campaign.SegmentFilter = model.JSONMap{}
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.CampaignFilters) ([]*model.Campaign, int64, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateCampaignRequest) (*model.Campaign, error) {
	campaign, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Description != nil {
		campaign.Description = req.Description
	}
	if req.OccasionType != nil {
		occasion := model.OccasionType(*req.OccasionType)
		if !occasion.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid occasion type: %s", *req.OccasionType), nil)
		}
		campaign.OccasionType = occasion
	}
	if req.SegmentFilter != nil {
		campaign.SegmentFilter = req.SegmentFilter
	}
	if req.ScheduleType != nil {
		scheduleType := model.ScheduleType(*req.ScheduleType)
		if !scheduleType.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid schedule type: %s", *req.ScheduleType), nil)
		}
		campaign.ScheduleType = scheduleType
	}
	if req.ScheduledAt != nil {
		campaign.ScheduledAt = req.ScheduledAt
	}
	if req.RecurrenceRule != nil {
		campaign.RecurrenceRule = req.RecurrenceRule
	}

	if err := validateSchedule(campaign.ScheduleType, campaign.ScheduledAt, campaign.RecurrenceRule); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Activate moves a draft campaign into active so the scheduler picks it up.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	return s.repo.Transition(ctx, id, func(c *model.Campaign) error {
		if c.Status != model.CampaignStatusDraft && c.Status != model.CampaignStatusPaused {
			return apperrors.PolicyViolation(fmt.Sprintf("cannot activate a %s campaign", c.Status))
		}
		c.Status = model.CampaignStatusActive
		return nil
	})
}

func (s *Service) Pause(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	return s.repo.Transition(ctx, id, func(c *model.Campaign) error {
		if c.Status != model.CampaignStatusActive {
			return apperrors.PolicyViolation("only active campaigns can be paused")
		}
		c.Status = model.CampaignStatusPaused
		return nil
	})
}

func (s *Service) Resume(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	return s.repo.Transition(ctx, id, func(c *model.Campaign) error {
		if c.Status != model.CampaignStatusPaused {
			return apperrors.PolicyViolation("only paused campaigns can be resumed")
		}
		c.Status = model.CampaignStatusActive
		return nil
	})
}

// Execute publishes an execution event for the worker. The campaign record is
// not modified here; the worker updates stats as it processes the event.
func (s *Service) Execute(ctx context.Context, id uuid.UUID, req *model.ExecuteCampaignRequest, userID uuid.UUID) (*model.CampaignExecutionEvent, error) {
	campaign, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event := &model.CampaignExecutionEvent{
		CampaignID:  campaign.ID,
		RequestedBy: userID,
		TestMode:    req.TestMode,
		RequestedAt: time.Now().UTC(),
	}

	if err := s.broker.Publish(ctx, messaging.ChannelCampaignExecute, event); err != nil {
		return nil, fmt.Errorf("failed to publish campaign execution event: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CampaignExecutions.WithLabelValues(fmt.Sprintf("%t", req.TestMode)).Inc()
	}
	s.logger.Info().
		Str("campaign_id", campaign.ID.String()).
		Bool("test_mode", req.TestMode).
		Msg("campaign execution requested")

	return event, nil
}

func validateSchedule(scheduleType model.ScheduleType, scheduledAt *time.Time, recurrenceRule *string) error {
	switch scheduleType {
	case model.ScheduleScheduled:
		if scheduledAt == nil {
			return apperrors.BadRequest("scheduled_at is required for scheduled campaigns", nil)
		}
	case model.ScheduleRecurring:
		if recurrenceRule == nil || *recurrenceRule == "" {
			return apperrors.BadRequest("recurrence_rule is required for recurring campaigns", nil)
		}
		if _, err := cron.ParseStandard(*recurrenceRule); err != nil {
			return apperrors.BadRequest(fmt.Sprintf("invalid recurrence rule: %v", err), err)
		}
	}
	return nil
}

func zeroStats() model.JSONMap {
	return model.JSONMap{
		"generated_count": 0,
		"sent_count":      0,
		"failed_count":    0,
	}
}
