package classifier

import (
	"bufio"
	"bytes"
	"fmt"
	"mime"
	"strings"

	json "github.com/goccy/go-json"
)

// Decode turns one poll response body into a prediction.
//
// Two shapes are accepted:
//   - a line-oriented event stream, where the result is the first "data:" line
//     carrying [label, scores]; every other line is ignored and an "event: error"
//     line fails the job;
//   - a single JSON object, either {"data": [label, scores]} (optionally nested
//     under "output") or {"genre"|"label": ..., "scores"|"probabilities": [...]}.
//
// It returns ErrNoResult when the body is well formed but has no result yet,
// ErrMalformed when it cannot be understood and ErrJobFailed when the service
// reports the job as failed.
func Decode(contentType string, body []byte) (Prediction, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Prediction{}, ErrNoResult
	}

	if isJSON(contentType) || trimmed[0] == '{' {
		return decodeObject(trimmed)
	}
	return decodeStream(trimmed)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func decodeStream(body []byte) (Prediction, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseBytes)

	var (
		event     string
		malformed error
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if name, ok := cutField(line, "event"); ok {
			event = name
			continue
		}

		payload, ok := cutField(line, "data")
		if !ok {
			continue
		}
		if event == "error" {
			return Prediction{}, fmt.Errorf("%w: %s", ErrJobFailed, payload)
		}
		if payload == "" || payload == "null" {
			continue
		}

		p, err := decodePayload([]byte(payload))
		if err == nil {
			return p, nil
		}
		if malformed == nil {
			malformed = err
		}
	}
	if err := scanner.Err(); err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if event == "error" {
		return Prediction{}, ErrJobFailed
	}
	if malformed != nil {
		return Prediction{}, malformed
	}
	return Prediction{}, ErrNoResult
}

// cutField splits an event-stream line of the form "name: value".
func cutField(line, name string) (string, bool) {
	rest, ok := strings.CutPrefix(line, name+":")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// decodePayload decodes the value of a data line, which is normally the
// [label, scores] array but may be a JSON object in the same shapes Decode accepts.
func decodePayload(raw []byte) (Prediction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		return decodeObject(raw)
	}
	return decodeTuple(raw)
}

func decodeTuple(raw []byte) (Prediction, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return Prediction{}, fmt.Errorf("%w: result is not an array: %v", ErrMalformed, err)
	}
	if len(parts) == 0 {
		return Prediction{}, fmt.Errorf("%w: empty result array", ErrMalformed)
	}

	label, err := decodeLabel(parts[0])
	if err != nil {
		return Prediction{}, err
	}

	scores := []float64{}
	if len(parts) > 1 {
		if scores, err = decodeScores(parts[1]); err != nil {
			return Prediction{}, err
		}
	}
	return Prediction{Label: label, Scores: scores}, nil
}

// decodeLabel accepts a bare string or a {"label": "..."} object.
func decodeLabel(raw json.RawMessage) (string, error) {
	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		if label = strings.TrimSpace(label); label == "" {
			return "", fmt.Errorf("%w: empty label", ErrMalformed)
		}
		return label, nil
	}

	var obj struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || strings.TrimSpace(obj.Label) == "" {
		return "", fmt.Errorf("%w: label is neither a string nor a labelled object", ErrMalformed)
	}
	return strings.TrimSpace(obj.Label), nil
}

func decodeScores(raw json.RawMessage) ([]float64, error) {
	if string(bytes.TrimSpace(raw)) == "null" {
		return []float64{}, nil
	}
	var scores []float64
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("%w: scores are not a numeric array: %v", ErrMalformed, err)
	}
	if scores == nil {
		scores = []float64{}
	}
	return scores, nil
}

type objectBody struct {
	Data          json.RawMessage `json:"data"`
	Output        *objectBody     `json:"output"`
	Genre         string          `json:"genre"`
	Label         string          `json:"label"`
	Scores        json.RawMessage `json:"scores"`
	Probabilities json.RawMessage `json:"probabilities"`
	Error         json.RawMessage `json:"error"`
	Msg           string          `json:"msg"`
	Success       *bool           `json:"success"`
}

func decodeObject(raw []byte) (Prediction, error) {
	var obj objectBody
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return obj.prediction()
}

func (o *objectBody) prediction() (Prediction, error) {
	if len(o.Error) > 0 && string(o.Error) != "null" {
		return Prediction{}, fmt.Errorf("%w: %s", ErrJobFailed, o.Error)
	}
	if o.Success != nil && !*o.Success {
		return Prediction{}, ErrJobFailed
	}

	if len(o.Data) > 0 && string(o.Data) != "null" {
		return decodeTuple(o.Data)
	}
	if o.Output != nil {
		return o.Output.prediction()
	}

	label := strings.TrimSpace(o.Genre)
	if label == "" {
		label = strings.TrimSpace(o.Label)
	}
	if label == "" {
		// Status messages such as {"msg": "estimation"} carry no result yet.
		if o.Msg != "" {
			return Prediction{}, ErrNoResult
		}
		return Prediction{}, fmt.Errorf("%w: object has no result fields", ErrMalformed)
	}

	rawScores := o.Scores
	if len(rawScores) == 0 {
		rawScores = o.Probabilities
	}
	scores := []float64{}
	if len(rawScores) > 0 {
		var err error
		if scores, err = decodeScores(rawScores); err != nil {
			return Prediction{}, err
		}
	}
	return Prediction{Label: label, Scores: scores}, nil
}
