package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ContactSegment string

const (
	SegmentVIP       ContactSegment = "VIP"
	SegmentRegular   ContactSegment = "regular"
	SegmentNewClient ContactSegment = "new_client"
	SegmentPartner   ContactSegment = "partner"
)

func (s ContactSegment) Valid() bool {
	switch s {
	case SegmentVIP, SegmentRegular, SegmentNewClient, SegmentPartner:
		return true
	}
	return false
}

type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"
	LanguageUZ Language = "uz"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageRU, LanguageEN, LanguageUZ:
		return true
	}
	return false
}

// Contact is a CRM record a message can be addressed to.
type Contact struct {
	Base
	Name                string         `db:"name" json:"name"`
	Email               string         `db:"email" json:"email"`
	Phone               *string        `db:"phone" json:"phone,omitempty"`
	Segment             ContactSegment `db:"segment" json:"segment"`
	Birthday            *time.Time     `db:"birthday" json:"birthday,omitempty"`
	Company             *string        `db:"company" json:"company,omitempty"`
	Position            *string        `db:"position" json:"position,omitempty"`
	Language            Language       `db:"language" json:"language"`
	Tags                pq.StringArray `db:"tags" json:"tags"`
	CustomFields        JSONMap        `db:"custom_fields" json:"custom_fields"`
	LastInteractionDate *time.Time     `db:"last_interaction_date" json:"last_interaction_date,omitempty"`
	CreatedBy           uuid.UUID      `db:"created_by" json:"created_by"`
}

type CreateContactRequest struct {
	Name         string     `json:"name" binding:"required,min=1,max=200"`
	Email        string     `json:"email" binding:"required,email"`
	Phone        *string    `json:"phone"`
	Segment      string     `json:"segment" binding:"omitempty,segment"`
	Birthday     *time.Time `json:"birthday"`
	Company      *string    `json:"company"`
	Position     *string    `json:"position"`
	Language     string     `json:"language" binding:"omitempty,language"`
	Tags         []string   `json:"tags"`
	CustomFields JSONMap    `json:"custom_fields"`
}

// UpdateContactRequest carries a partial update: only non-nil fields change.
type UpdateContactRequest struct {
	Name                *string    `json:"name" binding:"omitempty,min=1,max=200"`
	Email               *string    `json:"email" binding:"omitempty,email"`
	Phone               *string    `json:"phone"`
	Segment             *string    `json:"segment" binding:"omitempty,segment"`
	Birthday            *time.Time `json:"birthday"`
	Company             *string    `json:"company"`
	Position            *string    `json:"position"`
	Language            *string    `json:"language" binding:"omitempty,language"`
	Tags                []string   `json:"tags"`
	CustomFields        JSONMap    `json:"custom_fields"`
	LastInteractionDate *time.Time `json:"last_interaction_date"`
}

type ContactFilters struct {
	Segment               string `form:"segment"`
	Language              string `form:"language"`
	Search                string `form:"search"`
	HasBirthdayThisMonth  bool   `form:"has_birthday_this_month"`
	Pagination
}
