package match

import (
	"encoding/json"
	"os"

	"github.com/applymate/applymate/internal/form"
	"github.com/applymate/applymate/internal/profile"
)

// Result pairs one detected field with the best-guess profile attribute and
// a confidence score in [0, 1]. A field without a match carries
// profile.None and a zero score; it is never dropped from the result set.
type Result struct {
	Field     form.Field        `json:"field"`
	Attribute profile.Attribute `json:"attribute,omitempty"`
	Score     float64           `json:"score"`
}

// Actionable reports whether the result is confident enough to act on.
func (r Result) Actionable(minScore float64) bool {
	return r.Attribute != profile.None && r.Score >= minScore
}

// Results is the per-field match outcome for one detection pass.
type Results []Result

// Matched returns the number of results with any attribute guess.
func (r Results) Matched() int {
	count := 0
	for _, result := range r {
		if result.Attribute != profile.None {
			count++
		}
	}
	return count
}

// Actionable returns only the results confident enough to act on.
func (r Results) Actionable(minScore float64) Results {
	actionable := make(Results, 0, len(r))
	for _, result := range r {
		if result.Actionable(minScore) {
			actionable = append(actionable, result)
		}
	}
	return actionable
}

// DumpToTmpFile writes the results as indented JSON to a temp file and
// returns its name.
func (r Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}
