// Package mocks provides testify mocks for the model interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/maggiegpt/server/internal/model"
)

// UserStore is a mock implementation of model.UserStore.
type UserStore struct {
	mock.Mock
}

var _ model.UserStore = (*UserStore)(nil)

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Update(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

// ChatStore is a mock implementation of model.ChatStore.
type ChatStore struct {
	mock.Mock
}

var _ model.ChatStore = (*ChatStore)(nil)

func (m *ChatStore) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Chat, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Chat), args.Error(1)
}

func (m *ChatStore) Create(ctx context.Context, chat model.Chat) (model.Chat, error) {
	args := m.Called(ctx, chat)
	return args.Get(0).(model.Chat), args.Error(1)
}

func (m *ChatStore) Update(ctx context.Context, chat model.Chat) (model.Chat, error) {
	args := m.Called(ctx, chat)
	return args.Get(0).(model.Chat), args.Error(1)
}
