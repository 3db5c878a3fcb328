package message

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/service/generator"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
)

type fakeMessageRepo struct {
	messages map[uuid.UUID]*model.Message
	history  []*model.MessageHistory
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*model.Message)}
}

func (r *fakeMessageRepo) Create(_ context.Context, message *model.Message, history *model.MessageHistory) error {
	r.messages[message.ID] = message
	r.appendHistory(history)
	return nil
}

func (r *fakeMessageRepo) Get(_ context.Context, id uuid.UUID) (*model.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, apperrors.NotFound("message", nil)
	}
	return m, nil
}

func (r *fakeMessageRepo) List(_ context.Context, _ *model.MessageFilters) ([]*model.Message, int64, error) {
	out := make([]*model.Message, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *fakeMessageRepo) Transition(_ context.Context, id uuid.UUID, fn func(*model.Message) (*model.MessageHistory, error)) (*model.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, apperrors.NotFound("message", nil)
	}
	copied := *m
	history, err := fn(&copied)
	if err != nil {
		return nil, err
	}
	r.messages[id] = &copied
	r.appendHistory(history)
	return &copied, nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id uuid.UUID, guard func(*model.Message) error) error {
	m, ok := r.messages[id]
	if !ok {
		return apperrors.NotFound("message", nil)
	}
	if err := guard(m); err != nil {
		return err
	}
	delete(r.messages, id)
	kept := r.history[:0]
	for _, h := range r.history {
		if h.MessageID != id {
			kept = append(kept, h)
		}
	}
	r.history = kept
	return nil
}

func (r *fakeMessageRepo) ListHistory(_ context.Context, messageID uuid.UUID) ([]*model.MessageHistory, error) {
	var out []*model.MessageHistory
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].MessageID == messageID {
			out = append(out, r.history[i])
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) appendHistory(h *model.MessageHistory) {
	if h == nil {
		return
	}
	h.ID = uuid.New()
	r.history = append(r.history, h)
}

func (r *fakeMessageRepo) historyFor(id uuid.UUID) []*model.MessageHistory {
	var out []*model.MessageHistory
	for _, h := range r.history {
		if h.MessageID == id {
			out = append(out, h)
		}
	}
	return out
}

type fakeContactRepo struct {
	contacts map[uuid.UUID]*model.Contact
}

func newFakeContactRepo(contacts ...*model.Contact) *fakeContactRepo {
	r := &fakeContactRepo{contacts: make(map[uuid.UUID]*model.Contact)}
	for _, c := range contacts {
		r.contacts[c.ID] = c
	}
	return r
}

func (r *fakeContactRepo) Create(_ context.Context, c *model.Contact) error {
	r.contacts[c.ID] = c
	return nil
}

func (r *fakeContactRepo) Get(_ context.Context, id uuid.UUID) (*model.Contact, error) {
	c, ok := r.contacts[id]
	if !ok {
		return nil, apperrors.NotFound("contact", nil)
	}
	return c, nil
}

func (r *fakeContactRepo) GetByEmail(_ context.Context, email string) (*model.Contact, error) {
	for _, c := range r.contacts {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, apperrors.NotFound("contact", nil)
}

func (r *fakeContactRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Contact, error) {
	var out []*model.Contact
	for _, id := range ids {
		if c, ok := r.contacts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContactRepo) Update(_ context.Context, c *model.Contact) error {
	r.contacts[c.ID] = c
	return nil
}

func (r *fakeContactRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.contacts, id)
	return nil
}

func (r *fakeContactRepo) List(_ context.Context, _ *model.ContactFilters) ([]*model.Contact, int64, error) {
	var out []*model.Contact
	for _, c := range r.contacts {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

type fakeGenerator struct {
	result generator.Result
	err    error
}

func (g *fakeGenerator) Generate(_ context.Context, _ *model.Contact, _ model.OccasionType, _ *string, _ string) (generator.Result, error) {
	return g.result, g.err
}

func (g *fakeGenerator) Fallback(contactName string, occasion model.OccasionType, lang model.Language) string {
	return generator.Fallback(contactName, occasion, lang)
}

func (g *fakeGenerator) BatchGenerate(_ context.Context, contacts []*model.Contact, _ model.OccasionType, _ *string, _ string) ([]generator.BatchResult, error) {
	var out []generator.BatchResult
	for _, c := range contacts {
		out = append(out, generator.BatchResult{ContactID: c.ID, ContactName: c.Name, Result: g.result})
	}
	return out, g.err
}

func fixtureContact() *model.Contact {
	return &model.Contact{
		Base:     model.Base{ID: uuid.New()},
		Name:     "Ivan Petrov",
		Email:    "ivan@example.com",
		Language: model.LanguageRU,
	}
}

func newLifecycleService(repo *fakeMessageRepo, contacts *fakeContactRepo, gen *fakeGenerator) *Service {
	if gen == nil {
		gen = &fakeGenerator{result: generator.Result{Success: true, Content: "generated greeting text"}}
	}
	return NewService(repo, contacts, gen, zerolog.Nop(), nil)
}

const validContent = "Happy birthday, wishing you all the best this year!"

func TestCreateManualMessage(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	userID := uuid.New()

	msg, err := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID:    contact.ID,
		OccasionType: "birthday",
		Content:      validContent,
	}, userID)
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusDraft, msg.Status)
	assert.Equal(t, model.GeneratedByManual, msg.GeneratedBy)
	assert.True(t, msg.Metadata.CreatedManually)
	assert.Equal(t, userID, msg.CreatedBy)

	history := repo.historyFor(msg.ID)
	require.Len(t, history, 1)
	assert.Equal(t, model.HistoryActionCreated, history[0].Action)
	require.NotNil(t, history[0].NewContent)
	assert.Equal(t, validContent, *history[0].NewContent)
}

func TestCreateManualMessageContentTooShort(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)

	_, err := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID:    contact.ID,
		OccasionType: "birthday",
		Content:      "short",
	}, uuid.New())
	require.Error(t, err)
	assert.Empty(t, repo.messages)
	assert.Empty(t, repo.history)
}

func TestContentLengthCountsCharactersNotBytes(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	userID := uuid.New()

	// 7 characters but 13 bytes: below the 10-character minimum.
	_, err := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID:    contact.ID,
		OccasionType: "birthday",
		Content:      "Привет!",
	}, userID)
	require.Error(t, err)
	assert.Empty(t, repo.messages)

	// 1500 characters but 3000 bytes: within the 2000-character maximum.
	long := strings.Repeat("ж", 1500)
	msg, err := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID:    contact.ID,
		OccasionType: "birthday",
		Content:      long,
	}, userID)
	require.NoError(t, err)
	assert.Equal(t, long, msg.Content)
}

func TestCreateManualMessageUnknownContact(t *testing.T) {
	svc := newLifecycleService(newFakeMessageRepo(), newFakeContactRepo(), nil)

	_, err := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID:    uuid.New(),
		OccasionType: "birthday",
		Content:      validContent,
	}, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGenerateProducesPendingApproval(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	gen := &fakeGenerator{result: generator.Result{
		Success:  true,
		Content:  "Уважаемый Иван, поздравляем!",
		Metadata: model.MessageMetadata{Model: "gpt-4o", TotalTokens: 42},
	}}
	svc := newLifecycleService(repo, newFakeContactRepo(contact), gen)

	msg, err := svc.Generate(context.Background(), &model.GenerateMessageRequest{
		ContactID:    contact.ID,
		OccasionType: "birthday",
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusPendingApproval, msg.Status)
	assert.Equal(t, model.GeneratedByAI, msg.GeneratedBy)
	assert.Equal(t, "Уважаемый Иван, поздравляем!", msg.Content)
	assert.Equal(t, 42, msg.Metadata.TotalTokens)
	assert.False(t, msg.Metadata.FallbackUsed)
	require.Len(t, repo.historyFor(msg.ID), 1)
}

func TestGenerateFailureUsesFallback(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	gen := &fakeGenerator{result: generator.Result{
		Success:  false,
		Metadata: model.MessageMetadata{ErrorType: "api_error"},
		Error:    "generation API error: upstream timeout",
	}}
	svc := newLifecycleService(repo, newFakeContactRepo(contact), gen)

	msg, err := svc.Generate(context.Background(), &model.GenerateMessageRequest{
		ContactID:    contact.ID,
		OccasionType: "birthday",
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusPendingApproval, msg.Status)
	assert.Equal(t, generator.Fallback(contact.Name, model.OccasionBirthday, contact.Language), msg.Content)
	assert.True(t, msg.Metadata.FallbackUsed)
	assert.Equal(t, "api_error", msg.Metadata.ErrorType)
	assert.Contains(t, msg.Metadata.Error, "upstream timeout")
}

func TestApproveFromPending(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	creator, approver := uuid.New(), uuid.New()

	msg, err := svc.Generate(context.Background(), &model.GenerateMessageRequest{
		ContactID:    contact.ID,
		OccasionType: "new_year",
	}, creator)
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), msg.ID, approver)
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, approver, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	history := repo.historyFor(msg.ID)
	require.Len(t, history, 2)
	assert.Equal(t, model.HistoryActionApproved, history[1].Action)
}

func TestDoubleApproveRejected(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)

	msg, _ := svc.Generate(context.Background(), &model.GenerateMessageRequest{
		ContactID: contact.ID, OccasionType: "birthday",
	}, uuid.New())

	_, err := svc.Approve(context.Background(), msg.ID, uuid.New())
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), msg.ID, uuid.New())
	assert.True(t, apperrors.IsPolicyViolation(err))
	assert.Len(t, repo.historyFor(msg.ID), 2)
}

func TestSendRequiresApproval(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	userID := uuid.New()

	msg, _ := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID: contact.ID, OccasionType: "birthday", Content: validContent,
	}, userID)

	_, err := svc.Send(context.Background(), msg.ID, userID)
	assert.True(t, apperrors.IsPolicyViolation(err))

	_, err = svc.Approve(context.Background(), msg.ID, userID)
	require.NoError(t, err)

	sent, err := svc.Send(context.Background(), msg.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.MessageStatusSent, sent.Status)
	assert.NotNil(t, sent.SentAt)
	assert.NotNil(t, sent.ApprovedAt)

	// Second send must fail and leave no extra history.
	before := len(repo.historyFor(msg.ID))
	_, err = svc.Send(context.Background(), msg.ID, userID)
	assert.True(t, apperrors.IsPolicyViolation(err))
	assert.Len(t, repo.historyFor(msg.ID), before)
}

func TestRejectStoresReason(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)

	msg, _ := svc.Generate(context.Background(), &model.GenerateMessageRequest{
		ContactID: contact.ID, OccasionType: "birthday",
	}, uuid.New())

	reason := "tone is off brand"
	rejected, err := svc.Reject(context.Background(), msg.ID, &reason, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusRejected, rejected.Status)
	assert.Equal(t, reason, rejected.Metadata.RejectionReason)

	history := repo.historyFor(msg.ID)
	require.Len(t, history, 2)
	assert.Equal(t, model.HistoryActionRejected, history[1].Action)
}

func TestRejectTerminalStates(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	userID := uuid.New()

	msg, _ := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID: contact.ID, OccasionType: "birthday", Content: validContent,
	}, userID)
	_, err := svc.Approve(context.Background(), msg.ID, userID)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), msg.ID, userID)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), msg.ID, nil, userID)
	assert.True(t, apperrors.IsPolicyViolation(err))
}

func TestUpdateContentRecordsEdit(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	userID := uuid.New()

	msg, _ := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID: contact.ID, OccasionType: "birthday", Content: validContent,
	}, userID)

	newContent := "Completely rewritten greeting with a better opening line."
	updated, err := svc.Update(context.Background(), msg.ID, &model.UpdateMessageRequest{Content: &newContent}, userID)
	require.NoError(t, err)
	assert.Equal(t, newContent, updated.Content)

	history := repo.historyFor(msg.ID)
	require.Len(t, history, 2)
	assert.Equal(t, model.HistoryActionEdited, history[1].Action)
	require.NotNil(t, history[1].OldContent)
	assert.Equal(t, validContent, *history[1].OldContent)
	require.NotNil(t, history[1].NewContent)
	assert.Equal(t, newContent, *history[1].NewContent)
}

func TestUpdateUnchangedContentAddsNoHistory(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	userID := uuid.New()

	msg, _ := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID: contact.ID, OccasionType: "birthday", Content: validContent,
	}, userID)

	same := validContent
	_, err := svc.Update(context.Background(), msg.ID, &model.UpdateMessageRequest{Content: &same}, userID)
	require.NoError(t, err)
	assert.Len(t, repo.historyFor(msg.ID), 1)
}

func TestUpdateSentMessageRejected(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	userID := uuid.New()

	msg, _ := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID: contact.ID, OccasionType: "birthday", Content: validContent,
	}, userID)
	_, err := svc.Approve(context.Background(), msg.ID, userID)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), msg.ID, userID)
	require.NoError(t, err)

	newContent := "An edit that must not be allowed on sent messages."
	before := len(repo.historyFor(msg.ID))
	_, err = svc.Update(context.Background(), msg.ID, &model.UpdateMessageRequest{Content: &newContent}, userID)
	assert.True(t, apperrors.IsPolicyViolation(err))
	assert.Len(t, repo.historyFor(msg.ID), before)

	current, _ := svc.Get(context.Background(), msg.ID)
	assert.Equal(t, validContent, current.Content)
}

func TestDeleteGuardsAndCascades(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	svc := newLifecycleService(repo, newFakeContactRepo(contact), nil)
	userID := uuid.New()

	draft, _ := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID: contact.ID, OccasionType: "birthday", Content: validContent,
	}, userID)

	sent, _ := svc.Create(context.Background(), &model.CreateMessageRequest{
		ContactID: contact.ID, OccasionType: "new_year", Content: validContent,
	}, userID)
	_, err := svc.Approve(context.Background(), sent.ID, userID)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), sent.ID, userID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), draft.ID))
	_, err = svc.Get(context.Background(), draft.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, repo.historyFor(draft.ID))

	err = svc.Delete(context.Background(), sent.ID)
	assert.True(t, apperrors.IsPolicyViolation(err))
}

func TestBatchGeneratePersistsPerContact(t *testing.T) {
	repo := newFakeMessageRepo()
	a, b := fixtureContact(), fixtureContact()
	b.Email = "second@example.com"
	gen := &fakeGenerator{result: generator.Result{Success: true, Content: "generated greeting text"}}
	svc := newLifecycleService(repo, newFakeContactRepo(a, b), gen)

	msgs, err := svc.BatchGenerate(context.Background(), &model.BatchGenerateRequest{
		ContactIDs:   []uuid.UUID{a.ID, b.ID},
		OccasionType: "holiday",
	}, uuid.New())
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Len(t, repo.messages, 2)
}

func TestBatchGenerateNoContactsFound(t *testing.T) {
	svc := newLifecycleService(newFakeMessageRepo(), newFakeContactRepo(), nil)

	_, err := svc.BatchGenerate(context.Background(), &model.BatchGenerateRequest{
		ContactIDs:   []uuid.UUID{uuid.New()},
		OccasionType: "holiday",
	}, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGenerateUnknownOccasionFailsBeforePersist(t *testing.T) {
	repo := newFakeMessageRepo()
	contact := fixtureContact()
	gen := &fakeGenerator{err: errors.New("unknown occasion type: wat")}
	svc := newLifecycleService(repo, newFakeContactRepo(contact), gen)

	_, err := svc.Generate(context.Background(), &model.GenerateMessageRequest{
		ContactID: contact.ID, OccasionType: "wat",
	}, uuid.New())
	require.Error(t, err)
	assert.Empty(t, repo.messages)
}
