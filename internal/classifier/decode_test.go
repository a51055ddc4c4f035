package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        Prediction
		wantErr     error
	}{
		{
			name:        "event stream result line",
			contentType: "text/event-stream",
			body:        "event: complete\ndata: [\"Romance\", [0.1, 0.7, -0.2]]\n\n",
			want:        Prediction{Label: "Romance", Scores: []float64{0.1, 0.7, -0.2}},
		},
		{
			name:        "other lines are ignored",
			contentType: "text/event-stream; charset=utf-8",
			body: "event: heartbeat\ndata: null\n\n" +
				": keep-alive\n" +
				"event: generating\nid: 3\ndata: null\n\n" +
				"event: complete\r\ndata: [\"Art\", [1, 2]]\r\n\r\n",
			want: Prediction{Label: "Art", Scores: []float64{1, 2}},
		},
		{
			name:        "label whitespace is trimmed",
			contentType: "text/event-stream",
			body:        "data: [\"\\tThriller\\n\", [0.5]]\n\n",
			want:        Prediction{Label: "Thriller", Scores: []float64{0.5}},
		},
		{
			name:        "object label whitespace is trimmed",
			contentType: "application/json",
			body:        `{"label": " Romance\t", "scores": [0.4]}`,
			want:        Prediction{Label: "Romance", Scores: []float64{0.4}},
		},
		{
			name:        "data without space after colon",
			contentType: "text/plain",
			body:        "data:[\"Thriller\",[0.5]]",
			want:        Prediction{Label: "Thriller", Scores: []float64{0.5}},
		},
		{
			name:        "scores are passed through unmodified",
			contentType: "text/event-stream",
			body:        "data: [\"Art\", [-1.5, 0, 2.25e-3, 1e10]]",
			want:        Prediction{Label: "Art", Scores: []float64{-1.5, 0, 2.25e-3, 1e10}},
		},
		{
			name:        "label without scores",
			contentType: "text/event-stream",
			body:        "data: [\"History\"]",
			want:        Prediction{Label: "History", Scores: []float64{}},
		},
		{
			name:        "null scores",
			contentType: "text/event-stream",
			body:        "data: [\"History\", null]",
			want:        Prediction{Label: "History", Scores: []float64{}},
		},
		{
			name:        "labelled object as first element",
			contentType: "text/event-stream",
			body:        "data: [{\"label\": \"Science\", \"confidences\": []}, [0.9]]",
			want:        Prediction{Label: "Science", Scores: []float64{0.9}},
		},
		{
			name:        "process completed object on a data line",
			contentType: "text/event-stream",
			body:        "data: {\"msg\": \"process_completed\", \"output\": {\"data\": [\"Mystery\", [0.3]]}, \"success\": true}",
			want:        Prediction{Label: "Mystery", Scores: []float64{0.3}},
		},
		{
			name:        "json object with data array",
			contentType: "application/json",
			body:        `{"data": ["Romance", [0.2, 0.8]]}`,
			want:        Prediction{Label: "Romance", Scores: []float64{0.2, 0.8}},
		},
		{
			name:        "json object with genre and scores",
			contentType: "application/json",
			body:        `{"genre": "Self-Help", "scores": [0.4]}`,
			want:        Prediction{Label: "Self-Help", Scores: []float64{0.4}},
		},
		{
			name:        "json object with label and probabilities",
			contentType: "",
			body:        `{"label": "Art", "probabilities": [1]}`,
			want:        Prediction{Label: "Art", Scores: []float64{1}},
		},
		{
			name:        "error event fails the job",
			contentType: "text/event-stream",
			body:        "event: error\ndata: null\n\n",
			wantErr:     ErrJobFailed,
		},
		{
			name:        "json error field fails the job",
			contentType: "application/json",
			body:        `{"error": "Model not loaded"}`,
			wantErr:     ErrJobFailed,
		},
		{
			name:        "unsuccessful completion fails the job",
			contentType: "application/json",
			body:        `{"msg": "process_completed", "success": false}`,
			wantErr:     ErrJobFailed,
		},
		{
			name:        "heartbeats only",
			contentType: "text/event-stream",
			body:        "event: heartbeat\ndata: null\n\n",
			wantErr:     ErrNoResult,
		},
		{
			name:        "status object",
			contentType: "application/json",
			body:        `{"msg": "estimation", "rank": 2}`,
			wantErr:     ErrNoResult,
		},
		{
			name:        "empty body",
			contentType: "text/event-stream",
			body:        "  \n",
			wantErr:     ErrNoResult,
		},
		{
			name:        "unparseable data line",
			contentType: "text/event-stream",
			body:        "data: Romance, 0.5",
			wantErr:     ErrMalformed,
		},
		{
			name:        "non-numeric scores",
			contentType: "text/event-stream",
			body:        "data: [\"Romance\", [\"high\"]]",
			wantErr:     ErrMalformed,
		},
		{
			name:        "empty label",
			contentType: "text/event-stream",
			body:        "data: [\"\", [0.1]]",
			wantErr:     ErrMalformed,
		},
		{
			name:        "broken json document",
			contentType: "application/json",
			body:        `{"data": [`,
			wantErr:     ErrMalformed,
		},
		{
			name:        "object without result fields",
			contentType: "application/json",
			body:        `{"foo": "bar"}`,
			wantErr:     ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.contentType, []byte(tt.body))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_FirstResultLineWins(t *testing.T) {
	body := "data: [\"Art\", [1]]\ndata: [\"Romance\", [2]]\n"

	got, err := Decode("text/event-stream", []byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Art", got.Label)
}

func TestDecode_SkipsMalformedLineWhenALaterLineIsValid(t *testing.T) {
	body := "data: {not json\ndata: [\"Romance\", [0.5]]\n"

	got, err := Decode("text/event-stream", []byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Romance", got.Label)
}
