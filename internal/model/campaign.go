package model

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleType string

const (
	ScheduleImmediate ScheduleType = "immediate"
	ScheduleScheduled ScheduleType = "scheduled"
	ScheduleRecurring ScheduleType = "recurring"
)

func (s ScheduleType) Valid() bool {
	switch s {
	case ScheduleImmediate, ScheduleScheduled, ScheduleRecurring:
		return true
	}
	return false
}

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused, CampaignStatusCompleted:
		return true
	}
	return false
}

// CampaignStats counters are owned by the external execution worker; the API
// only initializes them to zero and reads them back.
type CampaignStats struct {
	GeneratedCount int `json:"generated_count"`
	SentCount      int `json:"sent_count"`
	FailedCount    int `json:"failed_count"`
}

// Campaign describes a bulk-send intent over a contact segment.
type Campaign struct {
	Base
	Name           string         `db:"name" json:"name"`
	Description    *string        `db:"description" json:"description,omitempty"`
	OccasionType   OccasionType   `db:"occasion_type" json:"occasion_type"`
	SegmentFilter  JSONMap        `db:"segment_filter" json:"segment_filter"`
	ScheduleType   ScheduleType   `db:"schedule_type" json:"schedule_type"`
	ScheduledAt    *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	RecurrenceRule *string        `db:"recurrence_rule" json:"recurrence_rule,omitempty"`
	Status         CampaignStatus `db:"status" json:"status"`
	CreatedBy      uuid.UUID      `db:"created_by" json:"created_by"`
	Stats          JSONMap        `db:"stats" json:"stats"`
}

type CreateCampaignRequest struct {
	Name           string     `json:"name" binding:"required,min=1,max=200"`
	Description    *string    `json:"description" binding:"omitempty,max=1000"`
	OccasionType   string     `json:"occasion_type" binding:"required,occasion"`
	SegmentFilter  JSONMap    `json:"segment_filter"`
	ScheduleType   string     `json:"schedule_type" binding:"omitempty,schedule_type"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
	RecurrenceRule *string    `json:"recurrence_rule"`
}

type UpdateCampaignRequest struct {
	Name           *string    `json:"name" binding:"omitempty,min=1,max=200"`
	Description    *string    `json:"description" binding:"omitempty,max=1000"`
	OccasionType   *string    `json:"occasion_type" binding:"omitempty,occasion"`
	SegmentFilter  JSONMap    `json:"segment_filter"`
	ScheduleType   *string    `json:"schedule_type" binding:"omitempty,schedule_type"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
	RecurrenceRule *string    `json:"recurrence_rule"`
}

type ExecuteCampaignRequest struct {
	TestMode bool `json:"test_mode"`
}

// CampaignExecutionEvent is published to the broker when execution is
// requested. A scheduler/worker collaborator subscribes to perform the real
// generation/sending and to update the campaign stats.
type CampaignExecutionEvent struct {
	CampaignID  uuid.UUID `json:"campaign_id"`
	RequestedBy uuid.UUID `json:"requested_by"`
	TestMode    bool      `json:"test_mode"`
	RequestedAt time.Time `json:"requested_at"`
}

type CampaignFilters struct {
	Status       string `form:"status"`
	OccasionType string `form:"occasion_type"`
	Pagination
}
