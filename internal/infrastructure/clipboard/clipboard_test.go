package clipboard

import (
	"errors"
	"testing"

	"github.com/atotto/clipboard"
)

func TestCopyUsesBackend(t *testing.T) {
	if clipboard.Unsupported {
		t.Skip("no clipboard backend on this machine")
	}
	var got string
	writeAll = func(text string) error {
		got = text
		return nil
	}
	t.Cleanup(func() { writeAll = clipboard.WriteAll })

	if err := New().Copy("B. Paris"); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if got != "B. Paris" {
		t.Errorf("copied %q", got)
	}
}

func TestCopyPropagatesBackendError(t *testing.T) {
	if clipboard.Unsupported {
		t.Skip("no clipboard backend on this machine")
	}
	writeAll = func(string) error { return errors.New("boom") }
	t.Cleanup(func() { writeAll = clipboard.WriteAll })

	if err := New().Copy("x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnabledMatchesBackend(t *testing.T) {
	if New().Enabled() == clipboard.Unsupported {
		t.Error("Enabled must mirror backend availability")
	}
}
