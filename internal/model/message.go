package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OccasionType string

const (
	OccasionBirthday  OccasionType = "birthday"
	OccasionNewYear   OccasionType = "new_year"
	OccasionHoliday   OccasionType = "holiday"
	OccasionPromotion OccasionType = "promotion"
	OccasionCustom    OccasionType = "custom"
)

func (o OccasionType) Valid() bool {
	switch o {
	case OccasionBirthday, OccasionNewYear, OccasionHoliday, OccasionPromotion, OccasionCustom:
		return true
	}
	return false
}

type MessageStatus string

const (
	MessageStatusDraft           MessageStatus = "draft"
	MessageStatusPendingApproval MessageStatus = "pending_approval"
	MessageStatusApproved        MessageStatus = "approved"
	MessageStatusSent            MessageStatus = "sent"
	MessageStatusFailed          MessageStatus = "failed"
	MessageStatusRejected        MessageStatus = "rejected"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusDraft, MessageStatusPendingApproval, MessageStatusApproved,
		MessageStatusSent, MessageStatusFailed, MessageStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is allowed.
func (s MessageStatus) Terminal() bool {
	return s == MessageStatusSent || s == MessageStatusFailed || s == MessageStatusRejected
}

type GeneratedBy string

const (
	GeneratedByAI     GeneratedBy = "AI"
	GeneratedByManual GeneratedBy = "manual"
)

const (
	MinContentLength = 10
	MaxContentLength = 2000
)

// Message is a single outbound communication tied to one contact.
type Message struct {
	Base
	ContactID    uuid.UUID       `db:"contact_id" json:"contact_id"`
	OccasionType OccasionType    `db:"occasion_type" json:"occasion_type"`
	Content      string          `db:"content" json:"content"`
	Status       MessageStatus   `db:"status" json:"status"`
	GeneratedBy  GeneratedBy     `db:"generated_by" json:"generated_by"`
	CreatedBy    uuid.UUID       `db:"created_by" json:"created_by"`
	ApprovedBy   *uuid.UUID      `db:"approved_by" json:"approved_by,omitempty"`
	ScheduledFor *time.Time      `db:"scheduled_for" json:"scheduled_for,omitempty"`
	ApprovedAt   *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	SentAt       *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
	Metadata     MessageMetadata `db:"metadata" json:"metadata"`
}

type HistoryAction string

const (
	HistoryActionCreated  HistoryAction = "created"
	HistoryActionEdited   HistoryAction = "edited"
	HistoryActionApproved HistoryAction = "approved"
	HistoryActionRejected HistoryAction = "rejected"
	HistoryActionSent     HistoryAction = "sent"
)

// MessageHistory is an append-only audit row. Rows are never updated or
// deleted by the lifecycle engine.
type MessageHistory struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	MessageID  uuid.UUID     `db:"message_id" json:"message_id"`
	Action     HistoryAction `db:"action" json:"action"`
	UserID     uuid.UUID     `db:"user_id" json:"user_id"`
	OldContent *string       `db:"old_content" json:"old_content,omitempty"`
	NewContent *string       `db:"new_content" json:"new_content,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// MessageMetadata holds the known generation/lifecycle annotations with an
// Extra escape hatch for keys this version does not model. It marshals to a
// single flat JSON object (known fields first, Extra merged underneath) so
// the JSONB column stays forward compatible.
type MessageMetadata struct {
	Model           string     `json:"model,omitempty"`
	InputTokens     int        `json:"input_tokens,omitempty"`
	OutputTokens    int        `json:"output_tokens,omitempty"`
	TotalTokens     int        `json:"total_tokens,omitempty"`
	CostUSD         float64    `json:"cost_usd,omitempty"`
	Tone            string     `json:"tone,omitempty"`
	Language        string     `json:"language,omitempty"`
	OccasionType    string     `json:"occasion_type,omitempty"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
	FallbackUsed    bool       `json:"fallback_used,omitempty"`
	ErrorType       string     `json:"error_type,omitempty"`
	Error           string     `json:"error,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedManually bool       `json:"created_manually,omitempty"`

	Extra map[string]interface{} `json:"-"`
}

var metadataKnownKeys = map[string]struct{}{
	"model": {}, "input_tokens": {}, "output_tokens": {}, "total_tokens": {},
	"cost_usd": {}, "tone": {}, "language": {}, "occasion_type": {},
	"generated_at": {}, "fallback_used": {}, "error_type": {}, "error": {},
	"rejection_reason": {}, "created_manually": {},
}

type metadataAlias MessageMetadata

func (m MessageMetadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metadataAlias(m))
	if err != nil {
		return nil, err
	}

	if len(m.Extra) == 0 {
		return known, nil
	}

	flat := make(map[string]interface{}, len(m.Extra))
	for k, v := range m.Extra {
		if _, reserved := metadataKnownKeys[k]; reserved {
			continue
		}
		flat[k] = v
	}
	if err := json.Unmarshal(known, &flat); err != nil {
		return nil, err
	}
	return json.Marshal(flat)
}

func (m *MessageMetadata) UnmarshalJSON(data []byte) error {
	var alias metadataAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range metadataKnownKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		alias.Extra = make(map[string]interface{}, len(raw))
		for k, v := range raw {
			var val interface{}
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			alias.Extra[k] = val
		}
	}

	*m = MessageMetadata(alias)
	return nil
}

func (m MessageMetadata) Value() (driver.Value, error) {
	return m.MarshalJSON()
}

func (m *MessageMetadata) Scan(src interface{}) error {
	if src == nil {
		*m = MessageMetadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}
	return m.UnmarshalJSON(b)
}

type GenerateMessageRequest struct {
	ContactID     uuid.UUID `json:"contact_id" binding:"required"`
	OccasionType  string    `json:"occasion_type" binding:"required,occasion"`
	CustomContext *string   `json:"custom_context"`
	Tone          string    `json:"tone"`
}

type BatchGenerateRequest struct {
	ContactIDs    []uuid.UUID `json:"contact_ids" binding:"required,min=1"`
	OccasionType  string      `json:"occasion_type" binding:"required,occasion"`
	CustomContext *string     `json:"custom_context"`
	Tone          string      `json:"tone"`
}

type CreateMessageRequest struct {
	ContactID    uuid.UUID `json:"contact_id" binding:"required"`
	OccasionType string    `json:"occasion_type" binding:"required,occasion"`
	Content      string    `json:"content" binding:"required,min=10,max=2000"`
}

type UpdateMessageRequest struct {
	Content      *string    `json:"content" binding:"omitempty,min=10,max=2000"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type RejectMessageRequest struct {
	Reason *string `json:"reason"`
}

type MessageFilters struct {
	Status       string     `form:"status"`
	OccasionType string     `form:"occasion_type"`
	ContactID    *uuid.UUID `form:"contact_id"`
	GeneratedBy  string     `form:"generated_by"`
	Pagination
}
