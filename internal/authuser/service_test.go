package authuser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser/entity"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) UpsertAuthUser(ctx context.Context, u *entity.AuthUser) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockWriter) UpsertAuthUserLogin(ctx context.Context, l *entity.AuthUserLogin) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func TestService_UpsertAuthUser(t *testing.T) {
	w := new(MockWriter)
	svc := NewService(nil, w, w)
	u := &entity.AuthUser{UserID: "github|1"}

	w.On("UpsertAuthUser", mock.Anything, u).Return(nil).Once()
	assert.NoError(t, svc.UpsertAuthUser(context.Background(), u))

	boom := errors.New("boom")
	w.On("UpsertAuthUser", mock.Anything, u).Return(boom).Once()
	err := svc.UpsertAuthUser(context.Background(), u)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "github|1")

	w.AssertExpectations(t)
}

func TestService_UpsertAuthUserLogin(t *testing.T) {
	w := new(MockWriter)
	svc := NewService(nil, w, w)
	l := &entity.AuthUserLogin{ID: "id-1", UserID: "github|1"}

	w.On("UpsertAuthUserLogin", mock.Anything, l).Return(nil).Once()
	assert.NoError(t, svc.UpsertAuthUserLogin(context.Background(), l))

	w.On("UpsertAuthUserLogin", mock.Anything, l).Return(errors.New("conn reset")).Once()
	err := svc.UpsertAuthUserLogin(context.Background(), l)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "id-1")

	w.AssertExpectations(t)
}
