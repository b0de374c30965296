package domain

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Catalog modes assigned to questions at import time.
const (
	ModePractice = "practice"
	ModeExam     = "exam"
)

// modeAliases maps legacy catalog mode names to their current name.
var modeAliases = map[string]string{
	"training": ModePractice,
}

// NormalizeMode lowercases and trims a catalog mode and resolves aliases.
func NormalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if alias, ok := modeAliases[mode]; ok {
		return alias
	}
	return mode
}

// DefaultExplanation is returned when a question carries no explanation.
const DefaultExplanation = "No detailed explanation is available for this question yet."

// Option is one selectable answer of a question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question is a catalog entry. Content and options are immutable once
// imported; only tags may change afterwards.
type Question struct {
	ID              string   `json:"id" yaml:"id"`
	Content         string   `json:"content" yaml:"content"`
	Options         []Option `json:"options" yaml:"options"`
	CorrectOptionID string   `json:"correct_option_id" yaml:"correct_option_id"`
	Tags            []string `json:"tags" yaml:"tags"`
	Mode            string   `json:"mode" yaml:"mode"`
	Explanation     string   `json:"explanation,omitempty" yaml:"explanation"`
	Diagnosis       string   `json:"diagnosis,omitempty" yaml:"diagnosis"`
}

// Validate checks that the question is usable by the quiz services.
func (q *Question) Validate() error {
	return asValidationError(validation.ValidateStruct(q,
		validation.Field(&q.ID, validation.Required),
		validation.Field(&q.Content, validation.Required),
		validation.Field(&q.Options, validation.Required),
		validation.Field(&q.CorrectOptionID, validation.Required, validation.By(q.hasOption)),
		validation.Field(&q.Mode, validation.Required),
	))
}

func (q *Question) hasOption(value interface{}) error {
	id, _ := value.(string)
	for _, opt := range q.Options {
		if opt.ID == id {
			return nil
		}
	}
	return validation.NewError("validation_unknown_option", "must reference one of the options")
}

// IsCorrect reports whether choice selects the correct option.
func (q *Question) IsCorrect(choice string) bool {
	return strings.EqualFold(strings.TrimSpace(choice), q.CorrectOptionID)
}

// ExplanationOrDefault returns the explanation, or DefaultExplanation when
// the catalog has none.
func (q *Question) ExplanationOrDefault() string {
	if strings.TrimSpace(q.Explanation) == "" {
		return DefaultExplanation
	}
	return q.Explanation
}

// Excerpt returns at most n runes of the content, with an ellipsis when cut.
func (q *Question) Excerpt(n int) string {
	runes := []rune(strings.TrimSpace(q.Content))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
