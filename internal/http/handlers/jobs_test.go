package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"shortgen/internal/engine"
	"shortgen/internal/http/handlers"
	"shortgen/internal/http/httpapi"
	"shortgen/internal/infra"
	"shortgen/internal/jobstore"
	"shortgen/internal/providers/genai"
	"shortgen/internal/queue"
)

// nopDispatcher accepts every enqueue without running anything: tests drive
// the pipeline explicitly through the worker endpoint.
type nopDispatcher struct{}

func (nopDispatcher) Enqueue(context.Context, queue.Payload) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := infra.Logger(zerolog.New(io.Discard))
	backend, err := genai.NewClient(genai.Options{OutputStorageURI: "videos/"})
	if err != nil {
		t.Fatalf("genai.NewClient() error = %v", err)
	}
	eng := engine.New(engine.Options{
		Store:   jobstore.New(nil, logger),
		Backend: backend,
		Logger:  logger,
	})
	eng.UseDispatcher(nopDispatcher{})

	srv := httptest.NewServer(httpapi.NewRouter(handlers.NewApp(eng, logger), logger))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestCreateThenPollLifecycle(t *testing.T) {
	srv := newTestServer(t)

	code, body := postJSON(t, srv.URL+"/jobs/create",
		`{"title":"Rocket launch","outcome":"rocket reaches orbit","duration_seconds":6}`)
	if code != http.StatusOK {
		t.Fatalf("create status = %d, body = %v", code, body)
	}
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatalf("job_id missing, body = %v", body)
	}

	code, body = getJSON(t, srv.URL+"/jobs/status/"+jobID)
	if code != http.StatusOK || body["status"] != "waiting" {
		t.Fatalf("status before processing = %d %v", code, body)
	}

	// The nop dispatcher never runs the job; replay the push-task callback
	// the way the managed queue would.
	code, body = postJSON(t, srv.URL+"/worker/process",
		`{"job_id":"`+jobID+`","title":"Rocket launch","outcome":"rocket reaches orbit","duration_seconds":6}`)
	if code != http.StatusOK || body["status"] != "processing" {
		t.Fatalf("worker response = %d %v", code, body)
	}

	code, body = getJSON(t, srv.URL+"/jobs/status/"+jobID)
	if code != http.StatusOK {
		t.Fatalf("status after processing = %d %v", code, body)
	}
	if body["status"] != "done" {
		t.Fatalf("status = %v, want done (body = %v)", body["status"], body)
	}
	videoURL, _ := body["video_url"].(string)
	if videoURL == "" {
		t.Fatalf("video_url missing, body = %v", body)
	}
	if body["title"] != "Rocket launch" || body["outcome"] != "rocket reaches orbit" {
		t.Fatalf("brief not echoed, body = %v", body)
	}
}

func TestJobsCreateValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing outcome", `{"title":"Rocket launch"}`, http.StatusBadRequest},
		{"missing title", `{"outcome":"rocket reaches orbit"}`, http.StatusBadRequest},
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"caption alias accepted", `{"title":"Rocket launch","caption":"rocket reaches orbit"}`, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := postJSON(t, srv.URL+"/jobs/create", tc.body)
			if code != tc.want {
				t.Fatalf("status = %d, want %d (body = %v)", code, tc.want, body)
			}
			if tc.want == http.StatusOK && body["job_id"] == "" {
				t.Fatalf("job_id missing, body = %v", body)
			}
		})
	}
}

func TestJobsStatusUnknownJob(t *testing.T) {
	srv := newTestServer(t)

	code, body := getJSON(t, srv.URL+"/jobs/status/no-such-job")
	if code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body = %v)", code, body)
	}
}

func TestWorkerProcessValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name        string
		body        string
		want        int
		wantMessage string
	}{
		{
			name:        "all fields missing",
			body:        `{}`,
			want:        http.StatusBadRequest,
			wantMessage: "missing required fields: job_id, title, outcome",
		},
		{
			name:        "outcome missing",
			body:        `{"job_id":"j1","title":"Rocket launch"}`,
			want:        http.StatusBadRequest,
			wantMessage: "missing required fields: outcome",
		},
		{
			name: "caption alias satisfies outcome",
			body: `{"job_id":"j1","title":"Rocket launch","caption":"rocket reaches orbit"}`,
			want: http.StatusOK,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := postJSON(t, srv.URL+"/worker/process", tc.body)
			if code != tc.want {
				t.Fatalf("status = %d, want %d (body = %v)", code, tc.want, body)
			}
			if tc.wantMessage != "" && body["error"] != tc.wantMessage {
				t.Fatalf("error = %v, want %q", body["error"], tc.wantMessage)
			}
		})
	}
}

func TestWorkerProcessReturnsOKOnUnknownJob(t *testing.T) {
	srv := newTestServer(t)

	// An id the store has never seen: the runner reconstructs the record
	// from the payload, so the managed queue still gets a 200 and does not
	// redeliver.
	code, body := postJSON(t, srv.URL+"/worker/process",
		`{"job_id":"replayed-task","title":"Rocket launch","outcome":"rocket reaches orbit"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body = %v)", code, body)
	}

	code, body = getJSON(t, srv.URL+"/jobs/status/replayed-task")
	if code != http.StatusOK || body["status"] != "done" {
		t.Fatalf("reconstructed job status = %d %v", code, body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	code, body := getJSON(t, srv.URL+"/v1/healthz")
	if code != http.StatusOK {
		t.Fatalf("status = %d (body = %v)", code, body)
	}
}
