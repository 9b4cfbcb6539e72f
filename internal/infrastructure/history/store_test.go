package history

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

func newStores(t *testing.T) map[string]ports.HistoryRepository {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStore(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]ports.HistoryRepository{
		"json":   NewJSONStore(filepath.Join(dir, "history.json")),
		"sqlite": sqlite,
	}
}

func TestStoresAppendAndList(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			item := domain.HistoryItem{
				ID:               "1",
				Timestamp:        1700000000000,
				Result:           "B. Paris",
				Usage:            &domain.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
				ImageData:        "data:image/jpeg;base64,AAAA",
				QuestionType:     domain.QuestionMultipleChoice,
				AdditionalPrompt: "capital?",
			}
			if err := store.Append(ctx, item); err != nil {
				t.Fatalf("Append() error = %v", err)
			}

			got, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if diff := cmp.Diff([]domain.HistoryItem{item}, got); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoresCapAtFiftyNewestLast(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i <= domain.MaxHistoryItems; i++ {
				if err := store.Append(ctx, domain.HistoryItem{ID: strconv.Itoa(i), Result: "r"}); err != nil {
					t.Fatalf("Append(%d) error = %v", i, err)
				}
			}

			got, err := store.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != domain.MaxHistoryItems {
				t.Fatalf("len = %d, want %d", len(got), domain.MaxHistoryItems)
			}
			if got[0].ID != "1" {
				t.Errorf("oldest = %s, want 1", got[0].ID)
			}
			if got[len(got)-1].ID != strconv.Itoa(domain.MaxHistoryItems) {
				t.Errorf("newest = %s, want %d", got[len(got)-1].ID, domain.MaxHistoryItems)
			}
		})
	}
}

func TestStoresClearAndExport(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				if err := store.Append(ctx, domain.HistoryItem{ID: strconv.Itoa(i), Result: "r"}); err != nil {
					t.Fatal(err)
				}
			}

			dest := filepath.Join(t.TempDir(), "export.jsonl")
			if err := store.ExportJSON(ctx, dest); err != nil {
				t.Fatalf("ExportJSON() error = %v", err)
			}
			if lines := countLines(t, dest); lines != 3 {
				t.Errorf("exported %d lines, want 3", lines)
			}

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			got, err := store.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 0 {
				t.Errorf("expected empty history after Clear, got %d", len(got))
			}
		})
	}
}

func TestJSONStoreMissingFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "none", "history.json"))
	got, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got != nil {
		t.Errorf("expected nil list, got %v", got)
	}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n
}

func TestSQLiteStoreSetsBusyTimeout(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	var timeout int
	if err := store.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("read busy_timeout: %v", err)
	}
	if timeout != busyTimeoutMillis {
		t.Errorf("busy_timeout = %d, want %d", timeout, busyTimeoutMillis)
	}
}
