package server

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscorrea/dendro/internal/config"
	"github.com/chriscorrea/dendro/internal/pipeline"
	"github.com/chriscorrea/dendro/internal/runerr"
)

const corpus = "Cats are small mammals that hunt mice at night.\n\n" +
	"Dogs are loyal mammals that guard the house.\n\n" +
	"Cars need fuel and regular engine maintenance.\n\n" +
	"Trucks burn diesel fuel and need engine repairs."

func testServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	return New(cfg)
}

func runBody(t *testing.T, req pipeline.Request) *strings.Reader {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return strings.NewReader(string(data))
}

type event struct {
	name string
	msg  pipeline.Message
}

func parseEvents(t *testing.T, body string) []event {
	t.Helper()
	var (
		events []event
		name   string
	)
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var m pipeline.Message
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &m))
			events = append(events, event{name: name, msg: m})
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func TestHealth(t *testing.T) {
	svc := testServer(t, nil)
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRunJSON(t *testing.T) {
	svc := testServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/runs", runBody(t, pipeline.Request{Text: corpus, Mode: "paragraph"}))
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	_, err := uuid.Parse(rec.Header().Get(RunIDHeader))
	assert.NoError(t, err, "run id should be a uuid")

	var m pipeline.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, pipeline.TypeSuccess, m.Type)
	require.NotNil(t, m.Data)
	assert.Len(t, m.Data.Leaves(), 4)
}

func TestRunJSONErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantKind string
	}{
		{
			name:     "insufficient data",
			body:     `{"text":"Hello world.","mode":"sentence"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: runerr.KindInsufficientData,
		},
		{
			name:     "unknown mode",
			body:     `{"text":"a\n\nb","mode":"chapter"}`,
			wantCode: http.StatusBadRequest,
			wantKind: runerr.KindInvalidRequest,
		},
		{
			name:     "invalid options",
			body:     `{"text":"a\n\nb","mode":"paragraph","options":{"linkage":"ward"}}`,
			wantCode: http.StatusBadRequest,
			wantKind: runerr.KindInvalidRequest,
		},
		{
			name:     "malformed body",
			body:     `{"text":`,
			wantCode: http.StatusBadRequest,
		},
	}

	svc := testServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			var m pipeline.Message
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
			assert.Equal(t, pipeline.TypeError, m.Type)
			assert.NotEmpty(t, m.Error)
			assert.Equal(t, tt.wantKind, m.Kind)
			assert.Nil(t, m.Data)
		})
	}
}

func TestRunBodyTooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.MaxBodyBytes = 16
	svc := testServer(t, cfg)

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", runBody(t, pipeline.Request{Text: corpus, Mode: "paragraph"})))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRunStream(t *testing.T) {
	svc := testServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/runs", runBody(t, pipeline.Request{Text: corpus, Mode: "paragraph"}))
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseEvents(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, pipeline.TypeSuccess, last.name)
	require.NotNil(t, last.msg.Data)

	var stages []string
	for _, e := range events[:len(events)-1] {
		assert.Equal(t, pipeline.TypeProgress, e.name)
		stages = append(stages, e.msg.Message)
	}
	assert.Equal(t, pipeline.StageSegment, stages[0])
	assert.Equal(t, pipeline.StageBuild, stages[len(stages)-1])
}

func TestRunStreamError(t *testing.T) {
	svc := testServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"text":"One lonely sentence.","mode":"sentence"}`))
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)

	events := parseEvents(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, pipeline.TypeError, last.name)
	assert.Equal(t, runerr.KindInsufficientData, last.msg.Kind)
	assert.Contains(t, last.msg.Error, "add more text")
}

func TestConfiguredDefaults(t *testing.T) {
	cfg := config.Default()
	off := false
	cfg.Defaults.EnableAutoCutoff = &off
	svc := testServer(t, cfg)

	// server default disables the cutoff, so no forest pseudo-root appears
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", runBody(t, pipeline.Request{Text: corpus, Mode: "paragraph"})))
	require.Equal(t, http.StatusOK, rec.Code)
	var m pipeline.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.NotNil(t, m.Data)
	assert.NotNil(t, m.Data.Height, "the full tree root carries its merge height")

	// request options still win over server defaults
	on, pct := true, 0.0
	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", runBody(t, pipeline.Request{
		Text: corpus, Mode: "paragraph",
		Options: &pipeline.Options{EnableAutoCutoff: &on, CutoffPercentile: &pct},
	})))
	require.Equal(t, http.StatusOK, rec.Code)
	m = pipeline.Message{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.NotNil(t, m.Data)
	assert.Len(t, m.Data.Leaves(), 4)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(runerr.KindInvalidRequest))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(runerr.KindInsufficientData))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(runerr.KindUnexpected))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(""))
}

func TestMethodNotAllowed(t *testing.T) {
	svc := testServer(t, nil)
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
