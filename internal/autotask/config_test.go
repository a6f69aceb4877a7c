package autotask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialsFromEnv(t *testing.T) {
	t.Run("all variables set", func(t *testing.T) {
		t.Setenv("AUTOTASK_USERNAME", "api-user@example.com")
		t.Setenv("AUTOTASK_SECRET", "s3cret")
		t.Setenv("AUTOTASK_INTEGRATION_CODE", "INTCODE")
		t.Setenv("AUTOTASK_API_URL", "https://webservices2.autotask.net/ATServicesRest/v1.0")

		creds, err := CredentialsFromEnv()
		assert.Nil(t, err)
		assert.Equal(t, "api-user@example.com", creds.Username)
		assert.Equal(t, "s3cret", creds.Secret)
		assert.Equal(t, "INTCODE", creds.IntegrationCode)
		assert.Equal(t, "https://webservices2.autotask.net/ATServicesRest/v1.0", creds.BaseURL)
	})

	t.Run("base URL defaults", func(t *testing.T) {
		t.Setenv("AUTOTASK_USERNAME", "api-user@example.com")
		t.Setenv("AUTOTASK_SECRET", "s3cret")
		t.Setenv("AUTOTASK_INTEGRATION_CODE", "INTCODE")
		t.Setenv("AUTOTASK_API_URL", "")

		creds, err := CredentialsFromEnv()
		assert.Nil(t, err)
		assert.Equal(t, DefaultBaseURL, creds.BaseURL)
	})

	t.Run("missing variables are all reported", func(t *testing.T) {
		t.Setenv("AUTOTASK_USERNAME", "")
		t.Setenv("AUTOTASK_SECRET", "")
		t.Setenv("AUTOTASK_INTEGRATION_CODE", "INTCODE")
		t.Setenv("AUTOTASK_API_URL", "")

		_, err := CredentialsFromEnv()
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "AUTOTASK_USERNAME")
		assert.Contains(t, err.Error(), "AUTOTASK_SECRET")
		assert.NotContains(t, err.Error(), "AUTOTASK_INTEGRATION_CODE")
	})
}
