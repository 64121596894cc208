package room

import (
	"regexp"
	"strings"

	"github.com/mcoot/rankparty/internal/model"
)

var alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ValidateName trims a display name and checks it is 1-20 ASCII letters or digits
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > model.MaxPlayerNameLength || !alphanumeric.MatchString(name) {
		return "", model.ErrInvalidName
	}
	return name, nil
}

// NormalizeEntry collapses whitespace in an entry and checks that what remains,
// once spaces are removed, is non-empty and alphanumeric
func NormalizeEntry(text string) (string, error) {
	words := strings.Fields(text)
	if len(words) == 0 || !alphanumeric.MatchString(strings.Join(words, "")) {
		return "", model.ErrInvalidEntry
	}
	normalized := strings.Join(words, " ")
	if len(normalized) > model.MaxEntryLength {
		return "", model.ErrInvalidEntry
	}
	return normalized, nil
}

// validateRanking checks the ranking is a non-empty list of distinct available texts
func validateRanking(ranking, available []string) error {
	if len(ranking) == 0 {
		return model.ErrInvalidRanking
	}
	allowed := make(map[string]bool, len(available))
	for _, text := range available {
		allowed[text] = true
	}
	seen := make(map[string]bool, len(ranking))
	for _, text := range ranking {
		if !allowed[text] || seen[text] {
			return model.ErrInvalidRanking
		}
		seen[text] = true
	}
	return nil
}

// validateGuess checks the guess is a reordering of exactly the selected entries
func validateGuess(guess, selected []string) error {
	if len(guess) != len(selected) {
		return model.ErrInvalidGuess
	}
	remaining := make(map[string]int, len(selected))
	for _, text := range selected {
		remaining[text]++
	}
	for _, text := range guess {
		if remaining[text] == 0 {
			return model.ErrInvalidGuess
		}
		remaining[text]--
	}
	return nil
}

// validateRoundLimit resolves a requested round limit, using fallback when zero
func validateRoundLimit(limit, fallback int) (int, error) {
	if limit == 0 {
		return fallback, nil
	}
	if limit < 1 || limit > model.MaxRoundLimit {
		return 0, model.ErrInvalidRoundLimit
	}
	return limit, nil
}
