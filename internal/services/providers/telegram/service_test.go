package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/enums"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
)

type fakeUserStore struct {
	byTelegram map[int64]model.User
	linked     map[uuid.UUID]model.TelegramInfo
	created    int
	lookupErr  error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byTelegram: map[int64]model.User{},
		linked:     map[uuid.UUID]model.TelegramInfo{},
	}
}

func (f *fakeUserStore) GetByTelegramID(_ context.Context, telegramID int64) (model.User, error) {
	if f.lookupErr != nil {
		return model.User{}, f.lookupErr
	}
	user, ok := f.byTelegram[telegramID]
	if !ok {
		return model.User{}, apperr.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) CreateFromTelegram(_ context.Context, info model.TelegramInfo) (model.User, error) {
	f.created++
	user := model.User{
		ID:       uuid.New(),
		Role:     enums.RoleDefault,
		Telegram: &info,
		Approvement: model.Approvement{
			Status: enums.ApprovementStatusNone,
		},
	}
	f.byTelegram[info.ID] = user
	return user, nil
}

func (f *fakeUserStore) LinkTelegram(_ context.Context, userID uuid.UUID, info model.TelegramInfo) (model.User, error) {
	f.linked[userID] = info
	return model.User{ID: userID, Role: enums.RoleDefault, Telegram: &info}, nil
}

type fakeIssuer struct {
	issued []uuid.UUID
	roles  []enums.Role
}

func (f *fakeIssuer) IssueSession(_ context.Context, userID uuid.UUID, role enums.Role) (authsvc.AuthResult, error) {
	f.issued = append(f.issued, userID)
	f.roles = append(f.roles, role)
	return authsvc.AuthResult{
		SessionID:   "sid-" + userID.String(),
		AccessToken: "token",
		UserID:      userID,
		Role:        role,
	}, nil
}

func signedWidget(t *testing.T, v *Verifier) WidgetData {
	t.Helper()
	data := sampleWidget()
	hash, err := v.Sign(data)
	require.NoError(t, err)
	data.Hash = hash
	return data
}

func newTestService(t *testing.T) (*Service, *Verifier, *fakeUserStore, *fakeIssuer) {
	t.Helper()
	v := NewVerifier(testBotToken, 24*time.Hour)
	v.now = func() time.Time { return time.Unix(sampleWidget().AuthDate, 0).Add(time.Minute) }
	users := newFakeUserStore()
	issuer := &fakeIssuer{}
	return NewService(v, users, issuer, nil), v, users, issuer
}

func TestLoginUnknownAccountNeedsConnect(t *testing.T) {
	svc, v, users, issuer := newTestService(t)

	res, err := svc.Login(context.Background(), signedWidget(t, v))
	require.NoError(t, err)
	assert.True(t, res.Response.NeedToConnect)
	assert.Nil(t, res.Session)
	assert.Empty(t, issuer.issued)
	assert.Zero(t, users.created)
}

func TestLoginKnownAccountIssuesSession(t *testing.T) {
	svc, v, users, issuer := newTestService(t)
	owner := model.User{ID: uuid.New(), Role: enums.RoleModerator}
	users.byTelegram[sampleWidget().ID] = owner

	res, err := svc.Login(context.Background(), signedWidget(t, v))
	require.NoError(t, err)
	assert.False(t, res.Response.NeedToConnect)
	require.NotNil(t, res.Session)
	assert.Equal(t, owner.ID, res.Session.UserID)
	assert.Equal(t, []enums.Role{enums.RoleModerator}, issuer.roles)
}

func TestLoginRejectsForgedWidget(t *testing.T) {
	svc, v, users, issuer := newTestService(t)
	users.byTelegram[sampleWidget().ID] = model.User{ID: uuid.New()}

	data := signedWidget(t, v)
	data.FirstName = "Eve"

	_, err := svc.Login(context.Background(), data)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Empty(t, issuer.issued)
}

func TestLoginPropagatesStoreFailure(t *testing.T) {
	svc, v, users, _ := newTestService(t)
	users.lookupErr = errors.New("db down")

	_, err := svc.Login(context.Background(), signedWidget(t, v))
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestConnectAnonymousCreatesUserAndSession(t *testing.T) {
	svc, v, users, issuer := newTestService(t)

	res, err := svc.Connect(context.Background(), nil, signedWidget(t, v))
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	require.NotNil(t, res.User.Telegram)
	assert.Equal(t, sampleWidget().ID, res.User.Telegram.ID)
	assert.Equal(t, 1, users.created)
	assert.Equal(t, []uuid.UUID{res.User.ID}, issuer.issued)

	again, err := svc.Connect(context.Background(), nil, signedWidget(t, v))
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
	assert.Equal(t, 1, users.created, "existing owner is reused")
}

func TestConnectAuthenticatedLinksWithoutSession(t *testing.T) {
	svc, v, users, issuer := newTestService(t)
	actor := &authsvc.Identity{UserID: uuid.New(), SID: "sid", Role: enums.RoleDefault}

	res, err := svc.Connect(context.Background(), actor, signedWidget(t, v))
	require.NoError(t, err)
	assert.Nil(t, res.Session)
	assert.Equal(t, actor.UserID, res.User.ID)
	assert.Equal(t, sampleWidget().ID, users.linked[actor.UserID].ID)
	assert.Empty(t, issuer.issued)
	assert.Zero(t, users.created)
}

func TestConnectRejectsMalformedWidget(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Connect(context.Background(), nil, WidgetData{ID: 1, AuthDate: 1, FirstName: "A"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}
