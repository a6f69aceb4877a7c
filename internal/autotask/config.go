package autotask

import (
	"fmt"
	"os"
	"strings"
)

// DefaultBaseURL is the Autotask REST endpoint used when AUTOTASK_API_URL
// is not set. The zone number varies per Autotask instance.
const DefaultBaseURL = "https://webservices14.autotask.net/ATServicesRest/v1.0"

// Credentials holds the static header values used to authenticate every
// Autotask API request. It is read once at startup and never mutated, so
// it is safe to share across concurrent tool invocations.
type Credentials struct {
	Username        string
	Secret          string
	IntegrationCode string
	BaseURL         string
}

// CredentialsFromEnv reads credentials from the AUTOTASK_* environment
// variables. AUTOTASK_API_URL is optional and falls back to DefaultBaseURL;
// the other three are required.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		Username:        os.Getenv("AUTOTASK_USERNAME"),
		Secret:          os.Getenv("AUTOTASK_SECRET"),
		IntegrationCode: os.Getenv("AUTOTASK_INTEGRATION_CODE"),
		BaseURL:         os.Getenv("AUTOTASK_API_URL"),
	}
	if creds.BaseURL == "" {
		creds.BaseURL = DefaultBaseURL
	}

	var missing []string
	if creds.Username == "" {
		missing = append(missing, "AUTOTASK_USERNAME")
	}
	if creds.Secret == "" {
		missing = append(missing, "AUTOTASK_SECRET")
	}
	if creds.IntegrationCode == "" {
		missing = append(missing, "AUTOTASK_INTEGRATION_CODE")
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return creds, nil
}
