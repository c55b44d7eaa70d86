package mcp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/foomo/ophelia-mcp/service"
	"github.com/stretchr/testify/assert"
)

func TestRegistrationErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"no credential", service.ErrNoCredential, service.ErrNoCredential.Error()},
		{"wrapped no credential", fmt.Errorf("register: %w", service.ErrNoCredential), service.ErrNoCredential.Error()},
		{"missing event id", service.ErrEventIDRequired, service.ErrEventIDRequired.Error()},
		{"conflict", &service.APIError{StatusCode: 409}, msgNoCapacity},
		{"conflict with backend text", &service.APIError{StatusCode: 409, Message: "event is full"}, msgNoCapacity},
		{"backend message", &service.APIError{StatusCode: 404, Message: " event not found "}, "event not found"},
		{"server error", &service.APIError{StatusCode: 500}, msgRegistrationFailed},
		{"transport", errors.New("dial tcp: refused"), msgRegistrationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegistrationErrorMessage(tt.err))
		})
	}
}

func TestLoadErrorMessage(t *testing.T) {
	assert.Equal(t, "Failed to load events.", LoadErrorMessage(KindEvents))
	assert.Equal(t, "Failed to load the women archive.", LoadErrorMessage(KindWomen))
	assert.Equal(t, "Failed to load content.", LoadErrorMessage("unknown"))
}
