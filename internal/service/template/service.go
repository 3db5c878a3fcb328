package template

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service manages reusable message templates. Individual template reads go
// through a short-lived in-process cache; any write invalidates the entry.
type Service struct {
	repo        repository.TemplateRepository
	contactRepo repository.ContactRepository
	cache       *gocache.Cache
	logger      zerolog.Logger
}

func NewService(repo repository.TemplateRepository, contactRepo repository.ContactRepository, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		contactRepo: contactRepo,
		cache:       gocache.New(cacheTTL, cacheCleanup),
		logger:      logger,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateTemplateRequest, userID uuid.UUID) (*model.Template, error) {
	occasion := model.OccasionType(req.OccasionType)
	if !occasion.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid occasion type: %s", req.OccasionType), nil)
	}

	language := model.Language(req.Language)
	if req.Language == "" {
		language = model.LanguageRU
	} else if !language.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid language: %s", req.Language), nil)
	}

	var segment *model.ContactSegment
	if req.Segment != nil {
		seg := model.ContactSegment(*req.Segment)
		if !seg.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid segment: %s", *req.Segment), nil)
		}
		segment = &seg
	}

	template := &model.Template{
		Base:         model.Base{ID: uuid.New()},
		Name:         req.Name,
		OccasionType: occasion,
		Segment:      segment,
		Content:      req.Content,
		Language:     language,
		IsActive:     true,
		CreatedBy:    userID,
	}

	if err := s.repo.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return cached.(*model.Template), nil
	}
	template, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id.String(), template, cacheTTL)
	return template, nil
}

func (s *Service) List(ctx context.Context, filters *model.TemplateFilters) ([]*model.Template, int64, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTemplateRequest) (*model.Template, error) {
	template, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.OccasionType != nil {
		occasion := model.OccasionType(*req.OccasionType)
		if !occasion.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid occasion type: %s", *req.OccasionType), nil)
		}
		template.OccasionType = occasion
	}
	if req.Segment != nil {
		seg := model.ContactSegment(*req.Segment)
		if !seg.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid segment: %s", *req.Segment), nil)
		}
		template.Segment = &seg
	}
	if req.Content != nil {
		template.Content = *req.Content
	}
	if req.Language != nil {
		language := model.Language(*req.Language)
		if !language.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid language: %s", *req.Language), nil)
		}
		template.Language = language
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, template); err != nil {
		return nil, err
	}
	s.cache.Delete(id.String())
	return template, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(id.String())
	return nil
}

// Preview renders the template against a real contact and counts the usage.
func (s *Service) Preview(ctx context.Context, id uuid.UUID, req *model.PreviewTemplateRequest) (string, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	contact, err := s.contactRepo.Get(ctx, req.ContactID)
	if err != nil {
		return "", err
	}

	rendered := Render(template.Content, contact)

	if err := s.repo.IncrementUsage(ctx, id); err != nil {
		s.logger.Warn().Err(err).
			Str("template_id", id.String()).
			Msg("failed to increment template usage")
	}
	s.cache.Delete(id.String())
	return rendered, nil
}

// Render substitutes {{name}}, {{company}} and {{position}} placeholders with
// the contact's values. Missing optional fields render as empty strings.
func Render(content string, contact *model.Contact) string {
	company := ""
	if contact.Company != nil {
		company = *contact.Company
	}
	position := ""
	if contact.Position != nil {
		position = *contact.Position
	}

	rendered := strings.ReplaceAll(content, "{{name}}", contact.Name)
	rendered = strings.ReplaceAll(rendered, "{{company}}", company)
	rendered = strings.ReplaceAll(rendered, "{{position}}", position)
	return rendered
}
