package model

import (
	"github.com/google/uuid"
)

// Template is a reusable content pattern with {{placeholder}} tokens.
type Template struct {
	Base
	Name         string          `db:"name" json:"name"`
	OccasionType OccasionType    `db:"occasion_type" json:"occasion_type"`
	Segment      *ContactSegment `db:"segment" json:"segment,omitempty"`
	Content      string          `db:"content" json:"content"`
	Language     Language        `db:"language" json:"language"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	UsageCount   int             `db:"usage_count" json:"usage_count"`
	CreatedBy    uuid.UUID       `db:"created_by" json:"created_by"`
}

type CreateTemplateRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=200"`
	OccasionType string  `json:"occasion_type" binding:"required,occasion"`
	Segment      *string `json:"segment" binding:"omitempty,segment"`
	Content      string  `json:"content" binding:"required,min=1"`
	Language     string  `json:"language" binding:"omitempty,language"`
}

type UpdateTemplateRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=200"`
	OccasionType *string `json:"occasion_type" binding:"omitempty,occasion"`
	Segment      *string `json:"segment" binding:"omitempty,segment"`
	Content      *string `json:"content" binding:"omitempty,min=1"`
	Language     *string `json:"language" binding:"omitempty,language"`
	IsActive     *bool   `json:"is_active"`
}

type PreviewTemplateRequest struct {
	ContactID uuid.UUID `json:"contact_id" binding:"required"`
}

type TemplateFilters struct {
	OccasionType string `form:"occasion_type"`
	Segment      string `form:"segment"`
	Language     string `form:"language"`
	ActiveOnly   bool   `form:"active_only"`
	Pagination
}
