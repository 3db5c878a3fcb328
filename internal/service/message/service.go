package message

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/service/generator"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/metrics"
)

// Generator is the content-producing collaborator. The AI service satisfies
// it; tests substitute a double.
type Generator interface {
	Generate(ctx context.Context, contact *model.Contact, occasion model.OccasionType, customContext *string, tone string) (generator.Result, error)
	Fallback(contactName string, occasion model.OccasionType, lang model.Language) string
	BatchGenerate(ctx context.Context, contacts []*model.Contact, occasion model.OccasionType, customContext *string, tone string) ([]generator.BatchResult, error)
}

// Service enforces the message approval workflow. Every transition appends
// exactly one history row in the same transaction as the status change.
type Service struct {
	repo        repository.MessageRepository
	contactRepo repository.ContactRepository
	generator   Generator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

func NewService(repo repository.MessageRepository, contactRepo repository.ContactRepository, gen Generator, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:        repo,
		contactRepo: contactRepo,
		generator:   gen,
		logger:      logger,
		metrics:     m,
	}
}

func (s *Service) countTransition(action model.HistoryAction) {
	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(action)).Inc()
	}
}

// Generate produces AI content for the contact and persists the message in
// pending_approval. A failed generation call degrades to the fallback
// template; the caller always gets a persisted message.
func (s *Service) Generate(ctx context.Context, req *model.GenerateMessageRequest, userID uuid.UUID) (*model.Message, error) {
	occasion := model.OccasionType(req.OccasionType)
	if !occasion.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid occasion type: %s", req.OccasionType), nil)
	}

	contact, err := s.contactRepo.Get(ctx, req.ContactID)
	if err != nil {
		return nil, err
	}

	result, err := s.generator.Generate(ctx, contact, occasion, req.CustomContext, req.Tone)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}

	content := result.Content
	metadata := result.Metadata
	if !result.Success {
		content = s.generator.Fallback(contact.Name, occasion, contact.Language)
		metadata.FallbackUsed = true
		metadata.Error = result.Error
		s.logger.Warn().
			Str("contact_id", contact.ID.String()).
			Str("occasion", string(occasion)).
			Msg("generation failed, using fallback template")
	}

	return s.persistGenerated(ctx, contact, occasion, content, metadata, userID)
}

// BatchGenerate generates one message per contact. Contacts that fail
// generation get the fallback template; contacts that fail persistence are
// skipped and logged, never aborting the rest of the batch.
func (s *Service) BatchGenerate(ctx context.Context, req *model.BatchGenerateRequest, userID uuid.UUID) ([]*model.Message, error) {
	occasion := model.OccasionType(req.OccasionType)
	if !occasion.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid occasion type: %s", req.OccasionType), nil)
	}

	contacts, err := s.contactRepo.GetByIDs(ctx, req.ContactIDs)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, apperrors.NotFound("contacts", nil)
	}

	byID := make(map[uuid.UUID]*model.Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}

	results, err := s.generator.BatchGenerate(ctx, contacts, occasion, req.CustomContext, req.Tone)
	if err != nil {
		return nil, fmt.Errorf("batch generation failed: %w", err)
	}

	messages := make([]*model.Message, 0, len(results))
	for _, r := range results {
		contact := byID[r.ContactID]
		content := r.Content
		metadata := r.Metadata
		if !r.Success {
			content = s.generator.Fallback(contact.Name, occasion, contact.Language)
			metadata.FallbackUsed = true
			metadata.Error = r.Error
		}

		msg, err := s.persistGenerated(ctx, contact, occasion, content, metadata, userID)
		if err != nil {
			s.logger.Error().Err(err).
				Str("contact_id", contact.ID.String()).
				Msg("failed to persist generated message")
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *Service) persistGenerated(ctx context.Context, contact *model.Contact, occasion model.OccasionType, content string, metadata model.MessageMetadata, userID uuid.UUID) (*model.Message, error) {
	message := &model.Message{
		Base:         model.Base{ID: uuid.New()},
		ContactID:    contact.ID,
		OccasionType: occasion,
		Content:      content,
		Status:       model.MessageStatusPendingApproval,
		GeneratedBy:  model.GeneratedByAI,
		CreatedBy:    userID,
		Metadata:     metadata,
	}

	history := &model.MessageHistory{
		MessageID:  message.ID,
		Action:     model.HistoryActionCreated,
		UserID:     userID,
		NewContent: &content,
	}

	if err := s.repo.Create(ctx, message, history); err != nil {
		return nil, err
	}
	s.countTransition(model.HistoryActionCreated)
	return message, nil
}

// Create persists a manually authored message in draft.
func (s *Service) Create(ctx context.Context, req *model.CreateMessageRequest, userID uuid.UUID) (*model.Message, error) {
	occasion := model.OccasionType(req.OccasionType)
	if !occasion.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid occasion type: %s", req.OccasionType), nil)
	}
	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	if _, err := s.contactRepo.Get(ctx, req.ContactID); err != nil {
		return nil, err
	}

	message := &model.Message{
		Base:         model.Base{ID: uuid.New()},
		ContactID:    req.ContactID,
		OccasionType: occasion,
		Content:      req.Content,
		Status:       model.MessageStatusDraft,
		GeneratedBy:  model.GeneratedByManual,
		CreatedBy:    userID,
		Metadata:     model.MessageMetadata{CreatedManually: true},
	}

	history := &model.MessageHistory{
		MessageID:  message.ID,
		Action:     model.HistoryActionCreated,
		UserID:     userID,
		NewContent: &req.Content,
	}

	if err := s.repo.Create(ctx, message, history); err != nil {
		return nil, err
	}
	s.countTransition(model.HistoryActionCreated)
	return message, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.MessageFilters) ([]*model.Message, int64, error) {
	return s.repo.List(ctx, filters)
}

// Update edits content and/or schedule. Sent and failed messages cannot be
// edited; a history row is appended only when the content actually changed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateMessageRequest, userID uuid.UUID) (*model.Message, error) {
	if req.Content != nil {
		if err := validateContent(*req.Content); err != nil {
			return nil, err
		}
	}

	edited := false
	message, err := s.repo.Transition(ctx, id, func(m *model.Message) (*model.MessageHistory, error) {
		if m.Status == model.MessageStatusSent || m.Status == model.MessageStatusFailed {
			return nil, apperrors.PolicyViolation("cannot edit sent or failed messages")
		}

		var history *model.MessageHistory
		if req.Content != nil && *req.Content != m.Content {
			oldContent := m.Content
			m.Content = *req.Content
			edited = true
			history = &model.MessageHistory{
				MessageID:  m.ID,
				Action:     model.HistoryActionEdited,
				UserID:     userID,
				OldContent: &oldContent,
				NewContent: req.Content,
			}
		}
		if req.ScheduledFor != nil {
			m.ScheduledFor = req.ScheduledFor
		}
		return history, nil
	})
	if err != nil {
		return nil, err
	}
	if edited {
		s.countTransition(model.HistoryActionEdited)
	}
	return message, nil
}

// Approve moves a draft or pending message to approved.
func (s *Service) Approve(ctx context.Context, id, userID uuid.UUID) (*model.Message, error) {
	message, err := s.repo.Transition(ctx, id, func(m *model.Message) (*model.MessageHistory, error) {
		if m.Status != model.MessageStatusDraft && m.Status != model.MessageStatusPendingApproval {
			return nil, apperrors.PolicyViolation("only draft or pending messages can be approved")
		}

		now := time.Now()
		m.Status = model.MessageStatusApproved
		m.ApprovedBy = &userID
		m.ApprovedAt = &now

		return &model.MessageHistory{
			MessageID: m.ID,
			Action:    model.HistoryActionApproved,
			UserID:    userID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.countTransition(model.HistoryActionApproved)
	return message, nil
}

// Reject moves a non-terminal message to rejected, storing the optional
// reason in metadata.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason *string, userID uuid.UUID) (*model.Message, error) {
	message, err := s.repo.Transition(ctx, id, func(m *model.Message) (*model.MessageHistory, error) {
		if m.Status.Terminal() {
			return nil, apperrors.PolicyViolation(fmt.Sprintf("cannot reject a %s message", m.Status))
		}

		m.Status = model.MessageStatusRejected
		if reason != nil && *reason != "" {
			m.Metadata.RejectionReason = *reason
		}

		return &model.MessageHistory{
			MessageID: m.ID,
			Action:    model.HistoryActionRejected,
			UserID:    userID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.countTransition(model.HistoryActionRejected)
	return message, nil
}

// Send marks an approved message as sent. Delivery to a real channel is a
// collaborator concern; here the transition itself is the send.
func (s *Service) Send(ctx context.Context, id, userID uuid.UUID) (*model.Message, error) {
	message, err := s.repo.Transition(ctx, id, func(m *model.Message) (*model.MessageHistory, error) {
		if m.Status != model.MessageStatusApproved {
			return nil, apperrors.PolicyViolation("only approved messages can be sent")
		}

		now := time.Now()
		m.Status = model.MessageStatusSent
		m.SentAt = &now

		return &model.MessageHistory{
			MessageID: m.ID,
			Action:    model.HistoryActionSent,
			UserID:    userID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.countTransition(model.HistoryActionSent)
	return message, nil
}

// Delete removes a message and its history. Sent messages are immutable
// records and cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, func(m *model.Message) error {
		if m.Status == model.MessageStatusSent {
			return apperrors.PolicyViolation("cannot delete sent messages")
		}
		return nil
	})
}

// History returns the audit trail, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]*model.MessageHistory, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, id)
}

func validateContent(content string) error {
	// Character count, not bytes: Cyrillic content is two bytes per rune.
	length := utf8.RuneCountInString(strings.TrimSpace(content))
	if length < model.MinContentLength || length > model.MaxContentLength {
		return apperrors.BadRequest(
			fmt.Sprintf("content must be between %d and %d characters", model.MinContentLength, model.MaxContentLength), nil)
	}
	return nil
}
