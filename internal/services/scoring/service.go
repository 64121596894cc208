package scoring

import (
	"sort"

	"github.com/mcoot/rankparty/internal/model"
)

// Standing is one player's cumulative position on the scoreboard
type Standing struct {
	PlayerName string
	Score      int
}

// Service scores guesses against the judge's ranking
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// Score awards one point per position where guess matches ranking, plus a bonus
// when every position of the ranking is matched
func (s *Service) Score(guess, ranking []string) int {
	score := 0
	for i := range ranking {
		if i < len(guess) && guess[i] == ranking[i] {
			score++
		}
	}
	if len(ranking) > 0 && score == len(ranking) {
		score += model.PerfectGuessBonus
	}
	return score
}

// ScoreRound scores every stored guess for the round
func (s *Service) ScoreRound(guesses map[string][]string, ranking []string) map[string]model.PlayerResult {
	results := make(map[string]model.PlayerResult, len(guesses))
	for name, guess := range guesses {
		results[name] = model.PlayerResult{
			Guess: append([]string(nil), guess...),
			Score: s.Score(guess, ranking),
		}
	}
	return results
}

// Accumulate adds round results into the running totals
func (s *Service) Accumulate(totals map[string]int, results map[string]model.PlayerResult) {
	for name, result := range results {
		totals[name] += result.Score
	}
}

// Standings orders totals by score descending, breaking ties by name
func (s *Service) Standings(totals map[string]int) []Standing {
	standings := make([]Standing, 0, len(totals))
	for name, score := range totals {
		standings = append(standings, Standing{PlayerName: name, Score: score})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].PlayerName < standings[j].PlayerName
	})
	return standings
}
