package helpers

import (
	"sort"

	"github.com/doeshing/snapask/internal/domain"
)

// QuestionTypeStatistic counts history entries of one question type
type QuestionTypeStatistic struct {
	QuestionType domain.QuestionType
	Count        int
}

// HistoryStatistics summarizes the stored history
type HistoryStatistics struct {
	Entries int
	Usage   domain.TokenUsage
	// WithUsage counts entries the provider reported usage for
	WithUsage  int
	ByQuestion []QuestionTypeStatistic
}

// CalculateHistoryStatistics sums token usage and counts question types.
// Entries without a question type count as the default type.
func CalculateHistoryStatistics(items []domain.HistoryItem) HistoryStatistics {
	stats := HistoryStatistics{Entries: len(items)}
	frequency := make(map[domain.QuestionType]int)

	for _, item := range items {
		if item.Usage != nil {
			stats.WithUsage++
			stats.Usage.PromptTokens += item.Usage.PromptTokens
			stats.Usage.CompletionTokens += item.Usage.CompletionTokens
			stats.Usage.TotalTokens += item.Usage.TotalTokens
		}
		q := item.QuestionType
		if q == "" {
			q = domain.DefaultQuestionType
		}
		frequency[q]++
	}

	stats.ByQuestion = convertFrequencyMapToStatistics(frequency)
	sortStatisticsByFrequency(stats.ByQuestion)
	return stats
}

// AverageTotalTokens returns the mean total tokens per entry with usage
func (s HistoryStatistics) AverageTotalTokens() float64 {
	if s.WithUsage == 0 {
		return 0.0
	}
	return float64(s.Usage.TotalTokens) / float64(s.WithUsage)
}

func convertFrequencyMapToStatistics(frequency map[domain.QuestionType]int) []QuestionTypeStatistic {
	stats := make([]QuestionTypeStatistic, 0, len(frequency))
	for q, count := range frequency {
		stats = append(stats, QuestionTypeStatistic{QuestionType: q, Count: count})
	}
	return stats
}

// sortStatisticsByFrequency sorts by count (descending) then by type (ascending)
func sortStatisticsByFrequency(stats []QuestionTypeStatistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].QuestionType < stats[j].QuestionType
		}
		return stats[i].Count > stats[j].Count
	})
}
