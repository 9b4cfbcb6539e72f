package domain_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/snapask/internal/domain"
)

// TestSettings_Normalize tests default hydration of a sparse settings object
func TestSettings_Normalize(t *testing.T) {
	got := domain.Settings{APIKey: "  sk-1 "}.Normalize()

	if got.Model != domain.DefaultModel {
		t.Errorf("Model = %q, want %q", got.Model, domain.DefaultModel)
	}
	if !got.Enabled() {
		t.Error("expected unset is_enabled to default to true")
	}
	if got.APIKey != "sk-1" {
		t.Errorf("APIKey = %q, want trimmed key", got.APIKey)
	}
	if got.Endpoint != domain.DefaultEndpoint {
		t.Errorf("Endpoint = %q, want default", got.Endpoint)
	}
}

func TestSettings_NormalizeKeepsExplicitDisable(t *testing.T) {
	got := domain.Settings{Model: "openai/gpt-4o", IsEnabled: domain.Bool(false)}.Normalize()
	if got.Enabled() {
		t.Error("explicit is_enabled=false must survive normalization")
	}
	if got.Model != "openai/gpt-4o" {
		t.Errorf("Model = %q", got.Model)
	}
}

func TestSettings_ViewNeverCarriesKey(t *testing.T) {
	s := domain.Settings{APIKey: "secret", WhitelistedDomains: []string{"example.com"}}
	view := s.View()

	want := domain.SettingsView{
		HasKey:             true,
		Model:              domain.DefaultModel,
		IsEnabled:          true,
		WhitelistedDomains: []string{"example.com"},
	}
	if diff := cmp.Diff(want, view); diff != "" {
		t.Errorf("View() mismatch (-want +got):\n%s", diff)
	}
}

// TestIsWhitelisted tests exact, subdomain and glob matching
func TestIsWhitelisted(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		domains  []string
		want     bool
	}{
		{name: "exact match", hostname: "example.com", domains: []string{"example.com"}, want: true},
		{name: "subdomain match", hostname: "docs.example.com", domains: []string{"example.com"}, want: true},
		{name: "suffix without dot", hostname: "notexample.com", domains: []string{"example.com"}, want: false},
		{name: "case insensitive", hostname: "Docs.Example.COM", domains: []string{"example.com"}, want: true},
		{name: "empty list", hostname: "example.com", domains: nil, want: false},
		{name: "empty hostname", hostname: "", domains: []string{"example.com"}, want: false},
		{name: "glob entry", hostname: "quiz.school.edu", domains: []string{"*.school.edu"}, want: true},
		{name: "glob respects separators", hostname: "a.b.school.edu", domains: []string{"*.school.edu"}, want: false},
		{name: "blank entries ignored", hostname: "example.com", domains: []string{" ", ""}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.IsWhitelisted(tt.hostname, tt.domains); got != tt.want {
				t.Errorf("IsWhitelisted(%q, %v) = %v, want %v", tt.hostname, tt.domains, got, tt.want)
			}
		})
	}
}

func TestToggleDomain(t *testing.T) {
	domains := []string{"a.com", "b.com"}

	added := domain.ToggleDomain(domains, "c.com")
	if diff := cmp.Diff([]string{"a.com", "b.com", "c.com"}, added); diff != "" {
		t.Errorf("add mismatch (-want +got):\n%s", diff)
	}

	removed := domain.ToggleDomain(added, "A.com")
	if diff := cmp.Diff([]string{"b.com", "c.com"}, removed); diff != "" {
		t.Errorf("remove mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a.com", "b.com"}, domains); diff != "" {
		t.Errorf("input slice modified (-want +got):\n%s", diff)
	}
}
