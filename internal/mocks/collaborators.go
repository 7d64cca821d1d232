package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/maggiegpt/server/internal/model"
)

// TokenManager is a mock implementation of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

var _ model.TokenManager = (*TokenManager)(nil)

func (m *TokenManager) GenerateAccessToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) ParseAccessToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *TokenManager) ParseRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MailSender is a mock implementation of model.MailSender.
type MailSender struct {
	mock.Mock
}

var _ model.MailSender = (*MailSender)(nil)

func (m *MailSender) SendCode(ctx context.Context, to, subject, code string) error {
	args := m.Called(ctx, to, subject, code)
	return args.Error(0)
}

func (m *MailSender) SendResetLink(ctx context.Context, to, link string) error {
	args := m.Called(ctx, to, link)
	return args.Error(0)
}

func (m *MailSender) SendWelcome(ctx context.Context, to, name string) error {
	args := m.Called(ctx, to, name)
	return args.Error(0)
}

// Generator is a mock implementation of model.Generator.
type Generator struct {
	mock.Mock
}

var _ model.Generator = (*Generator)(nil)

func (m *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *Generator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// QuotaTracker is a mock implementation of model.QuotaTracker.
type QuotaTracker struct {
	mock.Mock
}

var _ model.QuotaTracker = (*QuotaTracker)(nil)

func (m *QuotaTracker) Allow(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}
