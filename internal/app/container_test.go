package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/snapask/internal/infrastructure/history"
)

func TestBuildContainerSelectsHistoryBackend(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{backend: "", want: "history.db"},
		{backend: "sqlite", want: "history.db"},
		{backend: "JSON", want: "history.json"},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("SNAPASK_HOME", home)
			t.Setenv("SNAPASK_SETTINGS", "")

			c, err := BuildContainer(context.Background(), Options{HistoryBackend: tt.backend})
			if err != nil {
				t.Fatalf("BuildContainer() error = %v", err)
			}
			defer c.Close()

			if got := filepath.Base(c.History.Path()); got != tt.want {
				t.Errorf("history path = %s, want %s", got, tt.want)
			}
			if _, err := os.Stat(filepath.Join(home, "settings.yaml")); err != nil {
				t.Errorf("settings file not created: %v", err)
			}
		})
	}
}

func TestBuildContainerRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SNAPASK_HOME", t.TempDir())
	if _, err := BuildContainer(context.Background(), Options{HistoryBackend: "redis"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewBackgroundSharesStores(t *testing.T) {
	t.Setenv("SNAPASK_HOME", t.TempDir())
	c, err := BuildContainer(context.Background(), Options{HistoryBackend: "json"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	svc := c.NewBackground(nil, nil)
	if svc.Settings != c.Settings || svc.Logger != c.Logger {
		t.Error("background service must reuse container adapters")
	}
	if _, ok := svc.History.(*history.JSONStore); !ok {
		t.Errorf("history = %T, want *history.JSONStore", svc.History)
	}
}
