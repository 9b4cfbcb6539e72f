package domain

import (
	"fmt"
	"strings"
)

// QuestionType selects the system-prompt suffix used for an analysis.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionEssay          QuestionType = "essay"
	QuestionTranslation    QuestionType = "translation"
	QuestionOther          QuestionType = "other"
)

// DefaultQuestionType is preselected for every new capture.
const DefaultQuestionType = QuestionMultipleChoice

// QuestionTypes lists every question type in display order.
var QuestionTypes = []QuestionType{
	QuestionMultipleChoice,
	QuestionEssay,
	QuestionTranslation,
	QuestionOther,
}

const basePrompt = "You are an expert exam assistant. Answer directly and concisely based on the image provided. " +
	"IMPORTANT: Always respond in the same language as the question shown in the image."

var promptSuffixes = map[QuestionType]string{
	QuestionMultipleChoice: " For multiple choice questions, provide the correct option letter and its text. If there is an explanation, keep it brief.",
	QuestionEssay:          " For essay questions, provide a comprehensive but concise answer covering key points.",
	QuestionTranslation:    " Provide a high-quality translation.",
}

var questionLabels = map[QuestionType]string{
	QuestionMultipleChoice: "Multiple Choice",
	QuestionEssay:          "Essay",
	QuestionTranslation:    "Translation",
	QuestionOther:          "Other",
}

// ParseQuestionType accepts the wire value; empty input yields the default.
func ParseQuestionType(s string) (QuestionType, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return DefaultQuestionType, nil
	}
	q := QuestionType(s)
	if _, ok := questionLabels[q]; !ok {
		return "", fmt.Errorf("unknown question type %q", s)
	}
	return q, nil
}

// Label returns the human readable name.
func (q QuestionType) Label() string {
	if label, ok := questionLabels[q]; ok {
		return label
	}
	return questionLabels[QuestionOther]
}

// Next cycles through QuestionTypes.
func (q QuestionType) Next() QuestionType {
	for i, t := range QuestionTypes {
		if t == q {
			return QuestionTypes[(i+1)%len(QuestionTypes)]
		}
	}
	return DefaultQuestionType
}

// SystemPrompt concatenates the base instruction with the type-specific
// suffix. Unknown types and "other" get no suffix.
func (q QuestionType) SystemPrompt() string {
	return basePrompt + promptSuffixes[q]
}
