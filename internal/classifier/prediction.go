package classifier

import (
	"strings"

	"github.com/abctag/abc-server/internal/category"
)

// Input is the text a book is classified from.
type Input struct {
	Title       string
	Author      string
	Description string
}

// Prediction is a label and the raw score vector behind it. Scores are aligned
// positionally to the label set and passed through exactly as the service sent them.
type Prediction struct {
	Label  string    `json:"label"`
	Scores []float64 `json:"scores"`
}

// Degraded is the prediction used when classification fails or is skipped.
func Degraded() Prediction {
	return Prediction{Label: category.Unknown, Scores: []float64{}}
}

// IsDegraded reports whether p carries no usable classification.
func (p Prediction) IsDegraded() bool {
	return p.Label == "" || strings.EqualFold(p.Label, category.Unknown)
}
