package settings

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"

	"github.com/doeshing/snapask/internal/domain"
)

// Validate ensures the settings object is consistent before it is persisted.
func Validate(s domain.Settings) error {
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("model must be set")
	}
	if strings.ContainsAny(s.APIKey, " \t\r\n") {
		return fmt.Errorf("api_key must not contain whitespace")
	}
	if err := validateEndpoint(s.Endpoint); err != nil {
		return err
	}
	return validateDomains(s.WhitelistedDomains)
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("endpoint invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be http(s), got %q", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint must include a host, got %q", endpoint)
	}
	return nil
}

func validateDomains(domains []string) error {
	seen := make(map[string]bool, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			return fmt.Errorf("whitelist entry cannot be empty")
		}
		if strings.Contains(d, "/") || strings.Contains(d, ":") {
			return fmt.Errorf("whitelist entry %q must be a hostname, not a URL", d)
		}
		if strings.ContainsAny(d, "*?[{") {
			if _, err := glob.Compile(d, '.'); err != nil {
				return fmt.Errorf("whitelist pattern %q invalid: %w", d, err)
			}
		}
		if seen[d] {
			return fmt.Errorf("whitelist entry %q listed twice", d)
		}
		seen[d] = true
	}
	return nil
}
