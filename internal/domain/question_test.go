package domain_test

import (
	"strings"
	"testing"

	"github.com/doeshing/snapask/internal/domain"
)

func TestQuestionType_SystemPrompt(t *testing.T) {
	base := domain.QuestionOther.SystemPrompt()
	if !strings.HasPrefix(base, "You are an expert exam assistant.") {
		t.Fatalf("unexpected base prompt: %q", base)
	}

	tests := []struct {
		qt       domain.QuestionType
		contains string
	}{
		{domain.QuestionMultipleChoice, "correct option letter"},
		{domain.QuestionEssay, "comprehensive but concise"},
		{domain.QuestionTranslation, "high-quality translation"},
	}
	for _, tt := range tests {
		got := tt.qt.SystemPrompt()
		if !strings.HasPrefix(got, base) {
			t.Errorf("%s prompt does not start with base instruction", tt.qt)
		}
		if !strings.Contains(got, tt.contains) {
			t.Errorf("%s prompt missing %q", tt.qt, tt.contains)
		}
	}

	if got := domain.QuestionType("bogus").SystemPrompt(); got != base {
		t.Errorf("unknown type should get no suffix, got %q", got)
	}
}

func TestParseQuestionType(t *testing.T) {
	q, err := domain.ParseQuestionType("")
	if err != nil || q != domain.QuestionMultipleChoice {
		t.Errorf("ParseQuestionType(\"\") = %q, %v", q, err)
	}
	q, err = domain.ParseQuestionType(" Essay ")
	if err != nil || q != domain.QuestionEssay {
		t.Errorf("ParseQuestionType(Essay) = %q, %v", q, err)
	}
	if _, err := domain.ParseQuestionType("poem"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestQuestionType_NextCycles(t *testing.T) {
	q := domain.DefaultQuestionType
	seen := map[domain.QuestionType]bool{}
	for range domain.QuestionTypes {
		seen[q] = true
		q = q.Next()
	}
	if q != domain.DefaultQuestionType {
		t.Errorf("cycle did not return to default, ended at %s", q)
	}
	if len(seen) != len(domain.QuestionTypes) {
		t.Errorf("visited %d types, want %d", len(seen), len(domain.QuestionTypes))
	}
}
