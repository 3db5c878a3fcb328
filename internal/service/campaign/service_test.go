package campaign

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
)

type fakeCampaignRepo struct {
	campaigns map[uuid.UUID]*model.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[uuid.UUID]*model.Campaign)}
}

func (r *fakeCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) Get(_ context.Context, id uuid.UUID) (*model.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, apperrors.NotFound("campaign", nil)
	}
	return c, nil
}

func (r *fakeCampaignRepo) Update(_ context.Context, c *model.Campaign) error {
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.campaigns, id)
	return nil
}

func (r *fakeCampaignRepo) List(_ context.Context, _ *model.CampaignFilters) ([]*model.Campaign, int64, error) {
	var out []*model.Campaign
	for _, c := range r.campaigns {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCampaignRepo) Transition(_ context.Context, id uuid.UUID, fn func(*model.Campaign) error) (*model.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, apperrors.NotFound("campaign", nil)
	}
	copied := *c
	if err := fn(&copied); err != nil {
		return nil, err
	}
	r.campaigns[id] = &copied
	return &copied, nil
}

type fakeBroker struct {
	published []publishedEvent
}

type publishedEvent struct {
	channel string
	message interface{}
}

func (b *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.published = append(b.published, publishedEvent{channel: channel, message: message})
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *fakeBroker) Close() error { return nil }

func newTestService(repo *fakeCampaignRepo, broker *fakeBroker) *Service {
	return NewService(repo, broker, zerolog.Nop(), nil)
}

func TestCreateCampaignDefaults(t *testing.T) {
	repo := newFakeCampaignRepo()
	svc := newTestService(repo, &fakeBroker{})
	userID := uuid.New()

	c, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
		Name:         "New Year VIP",
		OccasionType: "new_year",
		SegmentFilter: model.JSONMap{
			"segment": "VIP",
		},
	}, userID)
	require.NoError(t, err)

	assert.Equal(t, model.CampaignStatusDraft, c.Status)
	assert.Equal(t, model.ScheduleImmediate, c.ScheduleType)
	assert.Equal(t, userID, c.CreatedBy)
	assert.Equal(t, 0, c.Stats["generated_count"])
	assert.Equal(t, 0, c.Stats["sent_count"])
	assert.Equal(t, 0, c.Stats["failed_count"])
}

func TestCreateCampaignValidatesOccasion(t *testing.T) {
	svc := newTestService(newFakeCampaignRepo(), &fakeBroker{})

	_, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
		Name:         "Bad",
		OccasionType: "anniversary",
	}, uuid.New())
	require.Error(t, err)
}

func TestCreateScheduledCampaignRequiresTime(t *testing.T) {
	svc := newTestService(newFakeCampaignRepo(), &fakeBroker{})

	_, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
		Name:         "Scheduled",
		OccasionType: "holiday",
		ScheduleType: "scheduled",
	}, uuid.New())
	require.Error(t, err)

	at := time.Now().Add(time.Hour)
	_, err = svc.Create(context.Background(), &model.CreateCampaignRequest{
		Name:         "Scheduled",
		OccasionType: "holiday",
		ScheduleType: "scheduled",
		ScheduledAt:  &at,
	}, uuid.New())
	require.NoError(t, err)
}

func TestCreateRecurringCampaignValidatesCron(t *testing.T) {
	svc := newTestService(newFakeCampaignRepo(), &fakeBroker{})

	bad := "not a cron rule"
	_, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
		Name:           "Recurring",
		OccasionType:   "promotion",
		ScheduleType:   "recurring",
		RecurrenceRule: &bad,
	}, uuid.New())
	require.Error(t, err)

	good := "0 9 * * 1"
	_, err = svc.Create(context.Background(), &model.CreateCampaignRequest{
		Name:           "Recurring",
		OccasionType:   "promotion",
		ScheduleType:   "recurring",
		RecurrenceRule: &good,
	}, uuid.New())
	require.NoError(t, err)
}

func TestPauseResumeGuards(t *testing.T) {
	repo := newFakeCampaignRepo()
	svc := newTestService(repo, &fakeBroker{})

	c, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
		Name:         "Guarded",
		OccasionType: "birthday",
	}, uuid.New())
	require.NoError(t, err)

	// Draft campaigns cannot be paused.
	_, err = svc.Pause(context.Background(), c.ID)
	assert.True(t, apperrors.IsPolicyViolation(err))

	_, err = svc.Activate(context.Background(), c.ID)
	require.NoError(t, err)

	paused, err := svc.Pause(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusPaused, paused.Status)

	// Pausing twice is a guard failure.
	_, err = svc.Pause(context.Background(), c.ID)
	assert.True(t, apperrors.IsPolicyViolation(err))

	resumed, err := svc.Resume(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusActive, resumed.Status)

	// Resuming an active campaign is a guard failure.
	_, err = svc.Resume(context.Background(), c.ID)
	assert.True(t, apperrors.IsPolicyViolation(err))
}

func TestExecutePublishesEvent(t *testing.T) {
	repo := newFakeCampaignRepo()
	broker := &fakeBroker{}
	svc := newTestService(repo, broker)
	userID := uuid.New()

	c, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
		Name:         "Execute me",
		OccasionType: "holiday",
	}, userID)
	require.NoError(t, err)

	event, err := svc.Execute(context.Background(), c.ID, &model.ExecuteCampaignRequest{TestMode: true}, userID)
	require.NoError(t, err)

	assert.Equal(t, c.ID, event.CampaignID)
	assert.Equal(t, userID, event.RequestedBy)
	assert.True(t, event.TestMode)

	require.Len(t, broker.published, 1)
	assert.Equal(t, "campaign.execute", broker.published[0].channel)
	published, ok := broker.published[0].message.(*model.CampaignExecutionEvent)
	require.True(t, ok)
	assert.Equal(t, c.ID, published.CampaignID)

	// Execution must not mutate the campaign record.
	stored, _ := svc.Get(context.Background(), c.ID)
	assert.Equal(t, model.CampaignStatusDraft, stored.Status)
	assert.Equal(t, 0, stored.Stats["generated_count"])
}

func TestExecuteUnknownCampaign(t *testing.T) {
	broker := &fakeBroker{}
	svc := newTestService(newFakeCampaignRepo(), broker)

	_, err := svc.Execute(context.Background(), uuid.New(), &model.ExecuteCampaignRequest{}, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, broker.published)
}
