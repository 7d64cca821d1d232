package mocks

import (
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/maggiegpt/server/internal/model"
)

// SecurityLayer is a mock implementation of model.SecurityLayer.
type SecurityLayer struct {
	mock.Mock
}

var _ model.SecurityLayer = (*SecurityLayer)(nil)

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	if listener := args.Get(0); listener != nil {
		return listener.(net.Listener), args.Error(1)
	}
	return nil, args.Error(1)
}
