package organizations

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/enums"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
	"github.com/ivankudzin/orgreviews/internal/domain/rules"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
)

type fakeStore struct {
	orgs      map[uuid.UUID]model.Organization
	lastLimit int
}

func newFakeStore() *fakeStore {
	return &fakeStore{orgs: map[uuid.UUID]model.Organization{}}
}

func (f *fakeStore) List(_ context.Context, limit, _ int) ([]model.Organization, error) {
	f.lastLimit = limit
	out := make([]model.Organization, 0, len(f.orgs))
	for _, org := range f.orgs {
		out = append(out, org)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (model.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return model.Organization{}, apperr.ErrNotFound
	}
	return org, nil
}

func (f *fakeStore) Create(_ context.Context, org model.Organization) (model.Organization, error) {
	f.orgs[org.ID] = org
	return org, nil
}

func (f *fakeStore) Update(_ context.Context, org model.Organization) (model.Organization, error) {
	if _, ok := f.orgs[org.ID]; !ok {
		return model.Organization{}, apperr.ErrNotFound
	}
	f.orgs[org.ID] = org
	return org, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.orgs[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.orgs, id)
	return nil
}

var (
	moderator = authsvc.Identity{UserID: uuid.New(), Role: enums.RoleModerator}
	member    = authsvc.Identity{UserID: uuid.New(), Role: enums.RoleDefault}
)

func TestCreateKeepsOpaqueDocuments(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	org, err := svc.Create(context.Background(), moderator, Input{
		Name:      "  Acme  ",
		Contacts:  json.RawMessage(`{"phone":"+100"}`),
		Documents: json.RawMessage(`[{"kind":"charter"}]`),
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", org.Name)
	assert.JSONEq(t, `{"phone":"+100"}`, string(org.Contacts))
	assert.NotEqual(t, uuid.Nil, org.ID)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Create(context.Background(), moderator, Input{Name: "   "})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(context.Background(), moderator, Input{Name: "Acme", Contacts: json.RawMessage(`{`)})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestWritesRequireModerator(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	existing, err := svc.Create(context.Background(), moderator, Input{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), member, Input{Name: "Other"})
	require.ErrorIs(t, err, apperr.ErrNotEnoughPermissions)

	_, err = svc.Update(context.Background(), member, existing.ID, Input{Name: "Renamed"})
	require.ErrorIs(t, err, apperr.ErrNotEnoughPermissions)

	err = svc.Delete(context.Background(), authsvc.Identity{}, existing.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	assert.Len(t, store.orgs, 1)
	assert.Equal(t, "Acme", store.orgs[existing.ID].Name)
}

func TestUpdateAndDeleteUnknownOrganization(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Update(context.Background(), moderator, uuid.New(), Input{Name: "Acme"})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.Delete(context.Background(), moderator, uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListNormalizesPaging(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	_, err := svc.List(context.Background(), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultPageSize, store.lastLimit)
}

type fakeCache struct {
	orgs        map[uuid.UUID]model.Organization
	invalidated []uuid.UUID
}

func (c *fakeCache) GetOrganization(_ context.Context, id uuid.UUID) (model.Organization, bool, error) {
	org, ok := c.orgs[id]
	return org, ok, nil
}

func (c *fakeCache) SetOrganization(_ context.Context, org model.Organization) error {
	c.orgs[org.ID] = org
	return nil
}

func (c *fakeCache) InvalidateOrganization(_ context.Context, id uuid.UUID) error {
	delete(c.orgs, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func TestGetReadsThroughCache(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{orgs: map[uuid.UUID]model.Organization{}}
	svc := NewService(store, cache)

	created, err := svc.Create(context.Background(), moderator, Input{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Contains(t, cache.orgs, created.ID)

	delete(store.orgs, created.ID)
	cached, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", cached.Name)
}

func TestWritesInvalidateCache(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{orgs: map[uuid.UUID]model.Organization{}}
	svc := NewService(store, cache)

	created, err := svc.Create(context.Background(), moderator, Input{Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), moderator, created.ID, Input{Name: "Renamed"})
	require.NoError(t, err)
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, svc.Delete(context.Background(), moderator, created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, []uuid.UUID{created.ID, created.ID}, cache.invalidated)
}
