// ABOUTME: Tests for the HTTP server routes using httptest against a stub pipeline.
// ABOUTME: Covers query submission status codes, answer retrieval, artifact serving, and reset.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calder-research/surveyscope/analyst"
)

type stubPipeline struct {
	answer    analyst.AnswerRecord
	hasAnswer bool
	submitErr error
	resets    int
	lastQuery string
}

func (s *stubPipeline) SubmitQuery(ctx context.Context, text string) (analyst.AnswerRecord, error) {
	s.lastQuery = text
	if s.submitErr != nil {
		return analyst.AnswerRecord{}, s.submitErr
	}
	s.hasAnswer = true
	return s.answer, nil
}

func (s *stubPipeline) CurrentAnswer() (analyst.AnswerRecord, bool) {
	return s.answer, s.hasAnswer
}

func (s *stubPipeline) Reset() {
	s.resets++
	s.hasAnswer = false
}

func newTestServer(p Analyst) *httptest.Server {
	return httptest.NewServer(NewServer(p, ServerConfig{}).Handler())
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(&stubPipeline{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestQuerySuccess(t *testing.T) {
	pipeline := &stubPipeline{
		answer: analyst.AnswerRecord{
			Query:    "how many respondents?",
			Markdown: "**37**",
			Artifacts: []analyst.Artifact{
				{ID: "file-1", DisplayName: "plot_1.png", Bytes: []byte{1, 2, 3}},
			},
		},
	}
	ts := newTestServer(pipeline)
	defer ts.Close()

	body := bytes.NewBufferString(`{"text":"how many respondents?"}`)
	resp, err := http.Post(ts.URL+"/api/query", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/query: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if pipeline.lastQuery != "how many respondents?" {
		t.Errorf("pipeline saw query %q", pipeline.lastQuery)
	}

	var got answerResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Markdown != "**37**" {
		t.Errorf("markdown = %q", got.Markdown)
	}
	if len(got.Artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(got.Artifacts))
	}
	a := got.Artifacts[0]
	if a.Index != 0 || a.ID != "file-1" || a.DisplayName != "plot_1.png" || a.Bytes != 3 {
		t.Errorf("artifact info = %+v", a)
	}
}

func TestQueryErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		submitErr  error
		wantStatus int
	}{
		{"empty query", analyst.ErrEmptyQuery, http.StatusBadRequest},
		{"query in flight", analyst.ErrQueryInFlight, http.StatusServiceUnavailable},
		{"pipeline failure", &analyst.SessionError{Err: io.ErrUnexpectedEOF}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(&stubPipeline{submitErr: tt.submitErr})
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/query", "application/json", strings.NewReader(`{"text":"x"}`))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestQueryRejectsBadJSON(t *testing.T) {
	ts := newTestServer(&stubPipeline{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/query", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAnswerNotFoundBeforeFirstQuery(t *testing.T) {
	ts := newTestServer(&stubPipeline{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/answer")
	if err != nil {
		t.Fatalf("GET /api/answer: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAnswerAfterQuery(t *testing.T) {
	pipeline := &stubPipeline{
		answer:    analyst.AnswerRecord{Query: "q", Markdown: "an answer"},
		hasAnswer: true,
	}
	ts := newTestServer(pipeline)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/answer")
	if err != nil {
		t.Fatalf("GET /api/answer: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got answerResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got.Markdown != "an answer" {
		t.Errorf("markdown = %q", got.Markdown)
	}
}

func TestArtifactServing(t *testing.T) {
	pipeline := &stubPipeline{
		answer: analyst.AnswerRecord{
			Artifacts: []analyst.Artifact{
				{ID: "file-a", DisplayName: "plot_1.png", Bytes: []byte("png-bytes")},
			},
		},
		hasAnswer: true,
	}
	ts := newTestServer(pipeline)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/artifacts/0")
	if err != nil {
		t.Fatalf("GET artifact: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != "png-bytes" {
		t.Errorf("body = %q", data)
	}
}

func TestArtifactOutOfRange(t *testing.T) {
	pipeline := &stubPipeline{
		answer:    analyst.AnswerRecord{Artifacts: []analyst.Artifact{{ID: "a"}}},
		hasAnswer: true,
	}
	ts := newTestServer(pipeline)
	defer ts.Close()

	for _, path := range []string{"/api/artifacts/1", "/api/artifacts/-1", "/api/artifacts/abc"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestReset(t *testing.T) {
	pipeline := &stubPipeline{hasAnswer: true}
	ts := newTestServer(pipeline)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/reset: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if pipeline.resets != 1 {
		t.Errorf("resets = %d, want 1", pipeline.resets)
	}
	if _, ok := pipeline.CurrentAnswer(); ok {
		t.Error("answer should be cleared after reset")
	}
}
