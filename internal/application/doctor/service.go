package doctor

import (
	"context"
	"fmt"

	settingsapp "github.com/doeshing/snapask/internal/application/settings"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

// Pinger is satisfied by a messenger that can probe the privileged process.
type Pinger interface {
	Health(context.Context) error
}

// Service runs environment diagnostics.
type Service struct {
	Settings  ports.SettingsStore
	History   ports.HistoryRepository
	Clipboard ports.Clipboard
	// Daemon is optional; nil skips the daemon check.
	Daemon     Pinger
	DaemonAddr string
}

// Run executes checks and returns a report. The error is non-nil only when
// the settings cannot be read at all.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	settings, err := s.Settings.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Settings", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := settingsapp.Validate(settings); err != nil {
		checks = append(checks, fail("Settings", err.Error()))
	} else {
		checks = append(checks, ok("Settings", fmt.Sprintf("model %s", settings.Model)))
	}

	checks = append(checks, keyCheck(settings), gateCheck(settings))

	if s.History != nil {
		items, err := s.History.List(ctx)
		if err != nil {
			checks = append(checks, fail("History", err.Error()))
		} else {
			checks = append(checks, ok("History", fmt.Sprintf("%d/%d entries in %s", len(items), domain.MaxHistoryItems, s.History.Path())))
		}
	}

	if s.Clipboard != nil {
		if s.Clipboard.Enabled() {
			checks = append(checks, ok("Clipboard", "available"))
		} else {
			checks = append(checks, warn("Clipboard", "no clipboard utility found; copy is disabled"))
		}
	}

	if s.Daemon != nil {
		if err := s.Daemon.Health(ctx); err != nil {
			checks = append(checks, fail("Daemon", fmt.Sprintf("%s unreachable: %v", s.DaemonAddr, err)))
		} else {
			checks = append(checks, ok("Daemon", fmt.Sprintf("listening on %s", s.DaemonAddr)))
		}
	}

	return domain.HealthReport{Checks: checks}, nil
}

func keyCheck(settings domain.Settings) domain.HealthCheck {
	if !settings.HasKey() {
		return warn("API key", "not set; run `snapask config set api_key <key>`")
	}
	return ok("API key", "configured")
}

func gateCheck(settings domain.Settings) domain.HealthCheck {
	switch {
	case !settings.Enabled():
		return warn("Panel", "disabled in settings")
	case len(settings.WhitelistedDomains) == 0:
		return warn("Panel", "whitelist is empty; the panel will not show on any page")
	default:
		return ok("Panel", fmt.Sprintf("enabled on %d whitelisted domain(s)", len(settings.WhitelistedDomains)))
	}
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
