package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	Get(ctx context.Context, id uuid.UUID) (*model.Contact, error)
	GetByEmail(ctx context.Context, email string) (*model.Contact, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Contact, error)
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.ContactFilters) ([]*model.Contact, int64, error)
}

type MessageRepository interface {
	// Create persists a message and its initial history row atomically.
	Create(ctx context.Context, message *model.Message, history *model.MessageHistory) error
	Get(ctx context.Context, id uuid.UUID) (*model.Message, error)
	List(ctx context.Context, filters *model.MessageFilters) ([]*model.Message, int64, error)
	// Transition locks the row, lets fn validate the guard and mutate the
	// message, then writes the update and the returned history row in one
	// transaction. A guard error rolls everything back.
	Transition(ctx context.Context, id uuid.UUID, fn func(*model.Message) (*model.MessageHistory, error)) (*model.Message, error)
	// Delete removes the message and cascades to its history rows after the
	// guard passes; all within one transaction.
	Delete(ctx context.Context, id uuid.UUID, guard func(*model.Message) error) error
	ListHistory(ctx context.Context, messageID uuid.UUID) ([]*model.MessageHistory, error)
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign *model.Campaign) error
	Get(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	Update(ctx context.Context, campaign *model.Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.CampaignFilters) ([]*model.Campaign, int64, error)
	// Transition locks the row, lets fn validate and mutate, and persists.
	Transition(ctx context.Context, id uuid.UUID, fn func(*model.Campaign) error) (*model.Campaign, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, template *model.Template) error
	Get(ctx context.Context, id uuid.UUID) (*model.Template, error)
	Update(ctx context.Context, template *model.Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.TemplateFilters) ([]*model.Template, int64, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
