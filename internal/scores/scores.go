// Package scores turns raw model score vectors into presentable values.
// The classifier passes scores through untouched; any normalization happens here.
package scores

import (
	"fmt"
	"math"
	"strings"
)

// Transform names a score normalization.
type Transform string

// Supported transforms.
const (
	TransformRaw   Transform = "raw"
	TransformClamp Transform = "clamp"
	TransformLog   Transform = "log"
)

// Epsilon keeps log away from zero.
const Epsilon = 1e-9

// ParseTransform maps a query value to a Transform. Empty means raw.
func ParseTransform(s string) (Transform, error) {
	switch t := Transform(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TransformRaw, nil
	case TransformRaw, TransformClamp, TransformLog:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transform %q", s)
	}
}

// Apply runs t over scores and returns a new slice.
func Apply(t Transform, scores []float64) []float64 {
	switch t {
	case TransformClamp:
		return Clamp(scores)
	case TransformLog:
		return LogTransform(scores)
	default:
		return append([]float64{}, scores...)
	}
}

// Clamp replaces negative and NaN scores with zero.
func Clamp(scores []float64) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		if s > 0 {
			out[i] = s
		}
	}
	return out
}

// LogTransform maps clamped scores to log(s+Epsilon), shifted so the smallest
// value is 0. Relative order is preserved.
func LogTransform(scores []float64) []float64 {
	out := Clamp(scores)
	if len(out) == 0 {
		return out
	}

	minLog := math.Inf(1)
	for i, s := range out {
		out[i] = math.Log(s + Epsilon)
		minLog = math.Min(minLog, out[i])
	}
	for i := range out {
		out[i] -= minLog
	}
	return out
}

// LabelScore pairs a label with its score.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Labelled pairs scores with labels by position. aligned is false when the
// lengths differ; only the common prefix is paired in that case.
func Labelled(labels []string, scores []float64) (pairs []LabelScore, aligned bool) {
	n := min(len(labels), len(scores))
	pairs = make([]LabelScore, n)
	for i := range n {
		pairs[i] = LabelScore{Label: labels[i], Score: scores[i]}
	}
	return pairs, len(labels) == len(scores)
}

// Top returns the label with the highest score, or "" when there are none.
func Top(pairs []LabelScore) string {
	best, label := math.Inf(-1), ""
	for _, p := range pairs {
		if p.Score > best {
			best, label = p.Score, p.Label
		}
	}
	return label
}
