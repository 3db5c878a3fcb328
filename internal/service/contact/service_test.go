package contact

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
)

type fakeContactRepo struct {
	contacts map[uuid.UUID]*model.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: make(map[uuid.UUID]*model.Contact)}
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

func newTestService(repo *fakeContactRepo) *Service {
	return NewService(repo, zerolog.Nop())
}

func TestCreateContactDefaults(t *testing.T) {
	svc := newTestService(newFakeContactRepo())

	c, err := svc.Create(context.Background(), &model.CreateContactRequest{
		Name:  "Ivan Petrov",
		Email: "ivan@example.com",
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, model.SegmentRegular, c.Segment)
	assert.Equal(t, model.LanguageRU, c.Language)
	assert.NotNil(t, c.Tags)
	assert.NotNil(t, c.CustomFields)
}

func TestCreateContactDuplicateEmail(t *testing.T) {
	repo := newFakeContactRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), &model.CreateContactRequest{
		Name:  "Ivan",
		Email: "ivan@example.com",
	}, uuid.New())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &model.CreateContactRequest{
		Name:  "Other Ivan",
		Email: "ivan@example.com",
	}, uuid.New())
	require.Error(t, err)
	assert.Len(t, repo.contacts, 1)
}

func TestCreateContactInvalidSegment(t *testing.T) {
	svc := newTestService(newFakeContactRepo())

	_, err := svc.Create(context.Background(), &model.CreateContactRequest{
		Name:    "Ivan",
		Email:   "ivan@example.com",
		Segment: "platinum",
	}, uuid.New())
	require.Error(t, err)
}

func TestUpdateContactPartial(t *testing.T) {
	svc := newTestService(newFakeContactRepo())

	c, err := svc.Create(context.Background(), &model.CreateContactRequest{
		Name:    "Ivan",
		Email:   "ivan@example.com",
		Segment: "VIP",
	}, uuid.New())
	require.NoError(t, err)

	company := "Acme LLC"
	updated, err := svc.Update(context.Background(), c.ID, &model.UpdateContactRequest{Company: &company})
	require.NoError(t, err)

	assert.Equal(t, "Ivan", updated.Name)
	assert.Equal(t, model.SegmentVIP, updated.Segment)
	require.NotNil(t, updated.Company)
	assert.Equal(t, company, *updated.Company)
}

func TestUpdateContactEmailCollision(t *testing.T) {
	svc := newTestService(newFakeContactRepo())

	a, err := svc.Create(context.Background(), &model.CreateContactRequest{Name: "A", Email: "a@example.com"}, uuid.New())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &model.CreateContactRequest{Name: "B", Email: "b@example.com"}, uuid.New())
	require.NoError(t, err)

	taken := "b@example.com"
	_, err = svc.Update(context.Background(), a.ID, &model.UpdateContactRequest{Email: &taken})
	require.Error(t, err)

	// Re-submitting the contact's own email is not a collision.
	own := "a@example.com"
	_, err = svc.Update(context.Background(), a.ID, &model.UpdateContactRequest{Email: &own})
	require.NoError(t, err)
}

func TestDeleteUnknownContact(t *testing.T) {
	svc := newTestService(newFakeContactRepo())
	err := svc.Delete(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
