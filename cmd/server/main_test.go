package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browsify-profiler/internal/config"
	"browsify-profiler/internal/fetch"
	"browsify-profiler/internal/metrics"
	"browsify-profiler/internal/pipeline"
	"browsify-profiler/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	pipe, err := pipeline.New(config.Default(), logger.Nop(), metrics.New(reg))
	require.NoError(t, err)
	s := &server{
		pipe:         pipe,
		client:       fetch.NewHTTPClient(5*time.Second, time.Second, 1<<20),
		log:          logger.Nop(),
		maxUpload:    1 << 20,
		fetchTimeout: 5 * time.Second,
	}
	ts := httptest.NewServer(s.routes(reg))
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

const eventsJSON = `{"events":[
 {"url":"https://www.amazon.com/","timestamp":"2024-05-06 14:00:00"},
 {"url":"https://www.bbc.co.uk/","timestamp":"2024-05-06 14:30:00"},
 {"url":"https://www.amazon.com/","timestamp":"2024-05-06 15:00:00"}
]}`

func TestProfileEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/profile", "application/json", strings.NewReader(eventsJSON))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		RunID          string         `json:"runId"`
		ActivityByHour map[string]int `json:"activityByHour"`
		Profile        map[string]any `json:"profile"`
	}
	decode(t, resp, &report)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, map[string]int{"14": 2, "15": 1}, report.ActivityByHour)
	assert.Equal(t, "shopping", report.Profile["Top Interests"])
}

func TestProfileEndpointEmpty(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/profile", "application/json", strings.NewReader(`{"events":[{"url":"","timestamp":""}]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestProfileEndpointRejectsGet(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/profile")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestUploadEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "history.csv")
	require.NoError(t, err)
	_, _ = io.WriteString(fw, "url,timestamp\nhttps://www.bbc.co.uk/,2024-05-06 20:00:00\n")
	require.NoError(t, mw.WriteField("includeEvents", "true"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/profile/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Events  []map[string]any `json:"events"`
		Profile map[string]any   `json:"profile"`
	}
	decode(t, resp, &report)
	require.Len(t, report.Events, 1)
	assert.Equal(t, "bbc.co.uk", report.Events[0]["domain"])
	assert.Equal(t, "High", report.Profile["News Consumption"])
	assert.Equal(t, "United Kingdom", report.Profile["Predicted Location"])
}

func TestFetchEndpointRejectsOversizedExport(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "url,timestamp\n")
		row := "https://www.bbc.co.uk/news,2024-05-06 14:00:00\n"
		for i := 0; i < (2<<20)/len(row); i++ {
			_, _ = io.WriteString(w, row)
		}
	}))
	defer origin.Close()

	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/profile/fetch", "application/json", strings.NewReader(`{"url":"`+origin.URL+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestFetchEndpoint(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = io.WriteString(w, `{"url":"https://www.coursera.org/learn","timestamp":"2024-05-06T08:00:00Z"}`+"\n")
	}))
	defer origin.Close()

	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/profile/fetch", "application/json", strings.NewReader(`{"url":"`+origin.URL+`"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Profile map[string]any `json:"profile"`
	}
	decode(t, resp, &report)
	assert.Equal(t, "education", report.Profile["Top Interests"])
	assert.Equal(t, "Yes", report.Profile["Education Affinity"])
}

func TestBatchEndpoint(t *testing.T) {
	ts := newTestServer(t)
	payload := `{"histories":[
	 {"id":"a","events":[{"url":"gambling-site.com/play","timestamp":"2024-05-06 23:00:00"}]},
	 {"id":"b","events":[]}
	]}`
	resp, err := http.Post(ts.URL+"/profile/batch", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results []struct {
		ID     string `json:"id"`
		Result *struct {
			Profile map[string]any `json:"profile"`
		} `json:"result"`
		Error string `json:"error"`
	}
	decode(t, resp, &results)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	require.NotNil(t, results[0].Result)
	assert.Equal(t, "High", results[0].Result.Profile["Addiction Risk"])
	assert.Equal(t, "b", results[1].ID)
	assert.Contains(t, results[1].Error, "empty input")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/profile", "application/json", strings.NewReader(eventsJSON))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `browsify_pipeline_runs_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "browsify_records_ingested_total 3")
}
