package contact

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
)

type Service struct {
	repo   repository.ContactRepository
	logger zerolog.Logger
}

func NewService(repo repository.ContactRepository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, req *model.CreateContactRequest, userID uuid.UUID) (*model.Contact, error) {
	segment := model.ContactSegment(req.Segment)
	if req.Segment == "" {
		segment = model.SegmentRegular
	} else if !segment.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid segment: %s", req.Segment), nil)
	}

	language := model.Language(req.Language)
	if req.Language == "" {
		language = model.LanguageRU
	} else if !language.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid language: %s", req.Language), nil)
	}

	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, apperrors.Conflict("contact with this email already exists")
	} else if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	contact := &model.Contact{
		Base:         model.Base{ID: uuid.New()},
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Segment:      segment,
		Birthday:     req.Birthday,
		Company:      req.Company,
		Position:     req.Position,
		Language:     language,
		Tags:         req.Tags,
		CustomFields: req.CustomFields,
		CreatedBy:    userID,
	}
	if contact.Tags == nil {
		contact.Tags = []string{}
	}
	if contact.CustomFields == nil {
		contact.CustomFields = model.JSONMap{}
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.ContactFilters) ([]*model.Contact, int64, error) {
	return s.repo.List(ctx, filters)
}

// Update applies a partial update; only non-nil request fields change. A new
// email is checked for uniqueness before being applied.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateContactRequest) (*model.Contact, error) {
	contact, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != contact.Email {
		if existing, err := s.repo.GetByEmail(ctx, *req.Email); err == nil && existing != nil {
			return nil, apperrors.Conflict("contact with this email already exists")
		} else if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		contact.Email = *req.Email
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Phone != nil {
		contact.Phone = req.Phone
	}
	if req.Segment != nil {
		segment := model.ContactSegment(*req.Segment)
		if !segment.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid segment: %s", *req.Segment), nil)
		}
		contact.Segment = segment
	}
	if req.Birthday != nil {
		contact.Birthday = req.Birthday
	}
	if req.Company != nil {
		contact.Company = req.Company
	}
	if req.Position != nil {
		contact.Position = req.Position
	}
	if req.Language != nil {
		language := model.Language(*req.Language)
		if !language.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid language: %s", *req.Language), nil)
		}
		contact.Language = language
	}
	if req.Tags != nil {
		contact.Tags = req.Tags
	}
	if req.CustomFields != nil {
		contact.CustomFields = req.CustomFields
	}
	if req.LastInteractionDate != nil {
		contact.LastInteractionDate = req.LastInteractionDate
	}

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
