package inspector

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/pipeline"
	"github.com/jsphweid/notewindow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetOutput(io.Discard)
}

func testRecord(start int) model.Record {
	return model.Record{
		NotesFirst: []model.Note{
			{Pitch: 60, Start: float64(start), End: float64(start) + 0.5, Velocity: 80},
			{Pitch: 62, Start: float64(start) + 0.5, End: float64(start) + 1, Velocity: 81},
		},
		NotesSecond: []model.Note{
			{Pitch: 64, Start: float64(start) + 1, End: float64(start) + 2, Velocity: 82},
		},
		Metadata: model.Metadata{
			SourceDataset:   "maestro-sustain-v2",
			Composer:        "Maurice Ravel",
			Title:           "Jeux d'eau",
			ChunkStartIndex: start,
		},
	}
}

func newTestServer(t *testing.T) (*Server, []model.Record) {
	dir := t.TempDir()
	w, err := store.Create(store.Path(dir, "train"))
	require.NoError(t, err)
	records := []model.Record{testRecord(0), testRecord(50), testRecord(100)}
	for _, r := range records {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())

	s := NewServer(dir, []string{"train", "validation"}, time.Hour)
	s.Manifest = &pipeline.Report{RunID: "3f1c"}
	return s, records
}

func get(t *testing.T, h http.Handler, target string) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHandleSplits(t *testing.T) {
	s, _ := newTestServer(t)
	resp, body := get(t, s.Router(), "/api/splits")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res []SplitSummary
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	require.Len(t, res, 2)
	assert.Equal(t, SplitSummary{Split: "train", Path: store.Path(s.Dir, "train"), Available: true, Records: 3}, res[0])
	assert.False(t, res[1].Available)
}

func TestHandleSplit(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	resp, _ := get(t, h, "/api/splits/train")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, h, "/api/splits/validation")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "generate")

	resp, _ = get(t, h, "/api/splits/dev")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleRecord(t *testing.T) {
	s, records := newTestServer(t)
	h := s.Router()

	resp, body := get(t, h, "/api/splits/train/records/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Record
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, records[1], got)

	for _, target := range []string{
		"/api/splits/train/records/3",
		"/api/splits/train/records/-1",
		"/api/splits/validation/records/0",
	} {
		resp, _ := get(t, h, target)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, target)
	}
}

func TestHandlePianoRoll(t *testing.T) {
	s, _ := newTestServer(t)
	resp, body := get(t, s.Router(), "/api/splits/train/records/2/pianoroll")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	assert := assert.New(t)
	assert.True(strings.HasPrefix(body, "<svg"))
	assert.Equal(3, strings.Count(body, "<rect"))
	assert.Contains(body, `fill="#d62728"`)
	assert.Contains(body, `fill="#1f77b4"`)
}

func TestHandleMidi(t *testing.T) {
	s, _ := newTestServer(t)
	resp, body := get(t, s.Router(), "/api/splits/train/records/0/midi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/midi", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "MThd"))
}

func TestPage(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	resp, body := get(t, h, "/?split=train&index=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Chunk #1")
	assert.Contains(t, body, "Maurice Ravel")
	assert.Contains(t, body, "Jeux d&#39;eau")
	assert.Contains(t, body, "<rect")
	assert.Contains(t, body, "3f1c")

	// past the end lands on the last record
	_, body = get(t, h, "/?split=train&index=40")
	assert.Contains(t, body, "Chunk #2")

	_, body = get(t, h, "/?split=validation")
	assert.Contains(t, body, "No records for validation")
	assert.NotContains(t, body, "Chunk #")
}

func TestRecoveryKeepsServing(t *testing.T) {
	h := recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	resp, body := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "boom")
}

func TestMetrics(t *testing.T) {
	composer, title, year := metrics([]byte(`{"metadata": {"composer": "Liszt", "title": "Un sospiro", "year": 2009}}`))
	assert.Equal(t, "Liszt", composer)
	assert.Equal(t, "Un sospiro", title)
	assert.Equal(t, "2009", year)

	composer, title, year = metrics([]byte(`{"metadata": {}}`))
	assert.Equal(t, "Unknown", composer)
	assert.Equal(t, "Unknown", title)
	assert.Equal(t, "-", year)
}
