package zendesk

import (
	"encoding/base64"
	"fmt"
	"strings"

	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

// Credentials identify the Zendesk account every outbound call acts as.
type Credentials struct {
	Subdomain string
	Email     string
	APIToken  string
}

// Validate checks that every credential field is present
func (c Credentials) Validate() error {
	var missing []string
	if c.Subdomain == "" {
		missing = append(missing, "subdomain")
	}
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.APIToken == "" {
		missing = append(missing, "api token")
	}
	if len(missing) > 0 {
		return apperrors.New(apperrors.ErrCodeConfiguration,
			fmt.Sprintf("missing Zendesk %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}

// Origin returns the deployment-specific origin derived from the subdomain
func (c Credentials) Origin() string {
	return fmt.Sprintf("https://%s.zendesk.com", c.Subdomain)
}

// Authorization returns the Authorization header value for API token auth.
// It is computed once when the client is built and reused for every call.
func (c Credentials) Authorization() string {
	raw := fmt.Sprintf("%s/token:%s", c.Email, c.APIToken)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}
