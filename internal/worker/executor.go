package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	messageService "github.com/MazadiaS/ai-crm-messaging-system/internal/service/message"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/messaging"
)

const contactPageSize = 100

// Executor consumes campaign execution events and generates one message per
// matching contact. It owns the campaign stats counters.
type Executor struct {
	campaignRepo repository.CampaignRepository
	contactRepo  repository.ContactRepository
	messages     *messageService.Service
	broker       messaging.Broker
	logger       zerolog.Logger
}

func NewExecutor(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactRepository,
	messages *messageService.Service,
	broker messaging.Broker,
	logger zerolog.Logger,
) *Executor {
	return &Executor{
		campaignRepo: campaignRepo,
		contactRepo:  contactRepo,
		messages:     messages,
		broker:       broker,
		logger:       logger,
	}
}

// Run blocks consuming execution events until the context is cancelled.
func (e *Executor) Run(ctx context.Context) error {
	events, err := e.broker.Subscribe(ctx, messaging.ChannelCampaignExecute)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", messaging.ChannelCampaignExecute, err)
	}
	e.logger.Info().Str("channel", messaging.ChannelCampaignExecute).Msg("worker subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-events:
			if !ok {
				return nil
			}
			var event model.CampaignExecutionEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				e.logger.Error().Err(err).Msg("malformed execution event")
				continue
			}
			if err := e.Execute(ctx, &event); err != nil {
				e.logger.Error().Err(err).
					Str("campaign_id", event.CampaignID.String()).
					Msg("campaign execution failed")
			}
		}
	}
}

// Execute generates messages for every contact matched by the campaign's
// segment filter. Test mode processes at most one contact and leaves stats
// untouched.
func (e *Executor) Execute(ctx context.Context, event *model.CampaignExecutionEvent) error {
	campaign, err := e.campaignRepo.Get(ctx, event.CampaignID)
	if err != nil {
		return err
	}

	e.logger.Info().
		Str("campaign_id", campaign.ID.String()).
		Str("occasion", string(campaign.OccasionType)).
		Bool("test_mode", event.TestMode).
		Msg("executing campaign")

	generated, failed, err := e.generateForSegment(ctx, campaign, event)
	if err != nil {
		return err
	}

	if event.TestMode {
		return nil
	}

	_, err = e.campaignRepo.Transition(ctx, campaign.ID, func(c *model.Campaign) error {
		if c.Stats == nil {
			c.Stats = model.JSONMap{}
		}
		c.Stats["generated_count"] = statInt(c.Stats, "generated_count") + generated
		c.Stats["failed_count"] = statInt(c.Stats, "failed_count") + failed
		if c.ScheduleType != model.ScheduleRecurring {
			c.Status = model.CampaignStatusCompleted
		}
		return nil
	})
	return err
}

func (e *Executor) generateForSegment(ctx context.Context, campaign *model.Campaign, event *model.CampaignExecutionEvent) (generated, failed int, err error) {
	filters := &model.ContactFilters{}
	if segment, ok := campaign.SegmentFilter["segment"].(string); ok {
		filters.Segment = segment
	}
	if language, ok := campaign.SegmentFilter["language"].(string); ok {
		filters.Language = language
	}
	filters.Limit = contactPageSize

	for {
		contacts, _, err := e.contactRepo.List(ctx, filters)
		if err != nil {
			return generated, failed, err
		}
		if len(contacts) == 0 {
			return generated, failed, nil
		}

		if event.TestMode {
			contacts = contacts[:1]
		}

		ids := make([]uuid.UUID, 0, len(contacts))
		for _, c := range contacts {
			ids = append(ids, c.ID)
		}

		messages, err := e.messages.BatchGenerate(ctx, &model.BatchGenerateRequest{
			ContactIDs:   ids,
			OccasionType: string(campaign.OccasionType),
		}, event.RequestedBy)
		if err != nil {
			return generated, failed, err
		}

		generated += len(messages)
		failed += len(ids) - len(messages)

		if event.TestMode || len(contacts) < contactPageSize {
			return generated, failed, nil
		}
		filters.Skip += contactPageSize
	}
}

func statInt(stats model.JSONMap, key string) int {
	switch v := stats[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
