// Package domain defines core business entities and value objects for snapask.
//
// The domain layer is independent of infrastructure concerns: it knows how a
// settings object is defaulted, how a page hostname is matched against the
// allow-list and how a drag gesture becomes a capture region, but it never
// touches files, sockets or browsers.
package domain

import (
	"strings"

	"github.com/gobwas/glob"
)

// Settings mirrors $SNAPASK_HOME/settings.yaml. It is owned by the privileged
// process; the page side only ever sees a SettingsView.
type Settings struct {
	APIKey             string   `yaml:"api_key"`
	Model              string   `yaml:"model"`
	Endpoint           string   `yaml:"endpoint,omitempty"`
	IsEnabled          *bool    `yaml:"is_enabled,omitempty"`
	WhitelistedDomains []string `yaml:"whitelisted_domains"`
}

// SettingsView is the credential-free projection of Settings handed to the
// page-injected panel.
type SettingsView struct {
	HasKey             bool     `json:"hasKey"`
	Model              string   `json:"model"`
	IsEnabled          bool     `json:"isEnabled"`
	WhitelistedDomains []string `json:"whitelistedDomains"`
}

// Normalize fills unset fields with their defaults. A missing model falls back
// to DefaultModel and an unset enabled flag means enabled.
func (s Settings) Normalize() Settings {
	s.APIKey = strings.TrimSpace(s.APIKey)
	if strings.TrimSpace(s.Model) == "" {
		s.Model = DefaultModel
	}
	if s.Endpoint == "" {
		s.Endpoint = DefaultEndpoint
	}
	if s.IsEnabled == nil {
		s.IsEnabled = Bool(true)
	}
	if s.WhitelistedDomains == nil {
		s.WhitelistedDomains = []string{}
	}
	return s
}

// Enabled reports the effective enabled flag (unset counts as enabled).
func (s Settings) Enabled() bool {
	return s.IsEnabled == nil || *s.IsEnabled
}

// HasKey reports whether an API key is configured.
func (s Settings) HasKey() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// View returns the redacted projection of s.
func (s Settings) View() SettingsView {
	n := s.Normalize()
	domains := make([]string, len(n.WhitelistedDomains))
	copy(domains, n.WhitelistedDomains)
	return SettingsView{
		HasKey:             n.HasKey(),
		Model:              n.Model,
		IsEnabled:          n.Enabled(),
		WhitelistedDomains: domains,
	}
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// IsWhitelisted reports whether hostname is covered by one of the allow-listed
// domains: an exact match, a subdomain (dot-suffix) match, or a match against a
// glob entry such as "*.example.*".
func IsWhitelisted(hostname string, domains []string) bool {
	host := normalizeHost(hostname)
	if host == "" {
		return false
	}
	for _, entry := range domains {
		d := normalizeHost(entry)
		if d == "" {
			continue
		}
		if isGlobPattern(d) {
			g, err := glob.Compile(d, '.')
			if err == nil && g.Match(host) {
				return true
			}
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// ToggleDomain removes host from domains when present and appends it
// otherwise. The input slice is not modified.
func ToggleDomain(domains []string, host string) []string {
	host = normalizeHost(host)
	if host == "" {
		return append([]string(nil), domains...)
	}
	out := make([]string, 0, len(domains)+1)
	found := false
	for _, d := range domains {
		if normalizeHost(d) == host {
			found = true
			continue
		}
		out = append(out, d)
	}
	if !found {
		out = append(out, host)
	}
	return out
}

// ContainsDomain reports whether host is listed verbatim (case-insensitive).
func ContainsDomain(domains []string, host string) bool {
	host = normalizeHost(host)
	for _, d := range domains {
		if normalizeHost(d) == host {
			return true
		}
	}
	return false
}

func normalizeHost(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}

func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
