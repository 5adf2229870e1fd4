package config

import (
	"testing"

	"github.com/cperrin88/zipline/pkg/auth"
	"github.com/stretchr/testify/assert"
)

func TestAuthConfig_ToAuthenticator(t *testing.T) {
	tests := []struct {
		name     string
		config   *AuthConfig
		expected auth.Authenticator
	}{
		{
			name:     "nil config",
			config:   nil,
			expected: nil,
		},
		{
			name:     "empty config",
			config:   &AuthConfig{},
			expected: nil,
		},
		{
			name:     "basic auth",
			config:   &AuthConfig{BasicAuth: &BasicAuth{Username: "user", Password: "pass"}},
			expected: auth.BasicAuth{Username: "user", Password: "pass"},
		},
		{
			name:     "header auth",
			config:   &AuthConfig{HeaderAuth: &HeaderAuth{Headers: map[string]string{"X-API-Key": "secret"}}},
			expected: auth.HeaderAuth{Headers: map[string]string{"X-API-Key": "secret"}},
		},
		{
			name:     "bearer auth",
			config:   &AuthConfig{BearerAuth: &BearerAuth{Token: "token123"}},
			expected: auth.BearerAuth{Token: "token123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.ToAuthenticator())
			assert.NoError(t, tt.config.validate())
		})
	}
}
