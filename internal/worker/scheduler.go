package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/messaging"
)

// Scheduler scans active campaigns once a minute and publishes execution
// events for those that are due: scheduled campaigns whose scheduled_at has
// passed and recurring campaigns whose cron rule fires in the current minute.
type Scheduler struct {
	campaignRepo repository.CampaignRepository
	broker       messaging.Broker
	cron         *cron.Cron
	logger       zerolog.Logger
}

func NewScheduler(campaignRepo repository.CampaignRepository, broker messaging.Broker, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		campaignRepo: campaignRepo,
		broker:       broker,
		cron:         cron.New(),
		logger:       logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("@every 1m", func() {
		if err := s.tick(ctx); err != nil {
			s.logger.Error().Err(err).Msg("campaign scan failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Msg("campaign scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick(ctx context.Context) error {
	now := time.Now()
	filters := &model.CampaignFilters{Status: string(model.CampaignStatusActive)}
	filters.Limit = model.MaxPageSize

	for {
		campaigns, _, err := s.campaignRepo.List(ctx, filters)
		if err != nil {
			return err
		}

		for _, c := range campaigns {
			if s.due(c, now) {
				s.publish(ctx, c, now)
			}
		}

		if len(campaigns) < filters.Limit {
			return nil
		}
		filters.Skip += filters.Limit
	}
}

func (s *Scheduler) due(c *model.Campaign, now time.Time) bool {
	switch c.ScheduleType {
	case model.ScheduleScheduled:
		return c.ScheduledAt != nil && !c.ScheduledAt.After(now)
	case model.ScheduleRecurring:
		if c.RecurrenceRule == nil {
			return false
		}
		schedule, err := cron.ParseStandard(*c.RecurrenceRule)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("campaign_id", c.ID.String()).
				Msg("unparseable recurrence rule")
			return false
		}
		next := schedule.Next(now.Add(-time.Minute))
		return !next.After(now)
	}
	return false
}

func (s *Scheduler) publish(ctx context.Context, c *model.Campaign, now time.Time) {
	event := &model.CampaignExecutionEvent{
		CampaignID:  c.ID,
		RequestedBy: c.CreatedBy,
		RequestedAt: now.UTC(),
	}
	if err := s.broker.Publish(ctx, messaging.ChannelCampaignExecute, event); err != nil {
		s.logger.Error().Err(err).
			Str("campaign_id", c.ID.String()).
			Msg("failed to publish scheduled execution")
		return
	}
	s.logger.Info().
		Str("campaign_id", c.ID.String()).
		Str("schedule_type", string(c.ScheduleType)).
		Msg("scheduled campaign dispatched")
}
