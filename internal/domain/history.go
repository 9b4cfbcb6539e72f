package domain

// TokenUsage is reported by the inference provider and passed through verbatim.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// HistoryItem records one successful analysis. Items are never mutated after
// creation.
type HistoryItem struct {
	ID               string       `json:"id"`
	Timestamp        int64        `json:"timestamp"`
	Result           string       `json:"result"`
	Usage            *TokenUsage  `json:"usage,omitempty"`
	ImageData        string       `json:"imageData,omitempty"`
	QuestionType     QuestionType `json:"questionType,omitempty"`
	AdditionalPrompt string       `json:"additionalPrompt,omitempty"`
}

// AppendHistory appends item and keeps only the newest MaxHistoryItems
// entries, oldest dropped first, newest last.
func AppendHistory(list []HistoryItem, item HistoryItem) []HistoryItem {
	out := make([]HistoryItem, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, item)
	if len(out) > MaxHistoryItems {
		out = out[len(out)-MaxHistoryItems:]
	}
	return out
}
