package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quoteclip/internal/fetch"
	"quoteclip/internal/logging"
)

const srtFixture = "1\n00:00:01,000 --> 00:00:03,000\nHello there.\n\n2\n00:00:04,500 --> 00:00:06,200\nGeneral Kenobi!\n"

func newTestServer(t *testing.T, updateGauges func()) (*httptest.Server, *Metrics) {
	t.Helper()
	m := NewMetrics()
	h := NewHandler(fetch.New(logging.NewNop()), logging.NewNop(), m)
	srv := httptest.NewServer(NewRouter(h, m, updateGauges))
	t.Cleanup(srv.Close)
	return srv, m
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestParseEndpointInlineText(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"text": srtFixture})
	resp := postJSON(t, srv.URL+"/v1/parse", string(body))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var got parseResponse
	decodeBody(t, resp, &got)
	if got.Count != 2 {
		t.Fatalf("got count %d, want 2", got.Count)
	}
	if got.Entries[0].Text != "Hello there." || got.Entries[0].StartMs != 1000 {
		t.Errorf("unexpected first entry: %+v", got.Entries[0])
	}
	if got.Entries[1].EndMs != 6200 {
		t.Errorf("got end %d, want 6200", got.Entries[1].EndMs)
	}
}

func TestParseEndpointFromFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.srt")
	if err := os.WriteFile(path, []byte(srtFixture), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"source": path})
	resp := postJSON(t, srv.URL+"/v1/parse", string(body))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}
}

func TestParseEndpointRequiresTextOrSource(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/v1/parse", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", resp.StatusCode)
	}

	var got map[string]string
	decodeBody(t, resp, &got)
	if !strings.Contains(got["error"], "text or source") {
		t.Errorf("unexpected error message: %q", got["error"])
	}
}

func TestParseEndpointRejectsBadJSON(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/v1/parse", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", resp.StatusCode)
	}
}

func TestParseEndpointUnparseableSubtitles(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"text": "just some prose, no timestamps anywhere"})
	resp := postJSON(t, srv.URL+"/v1/parse", string(body))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422", resp.StatusCode)
	}
}

func TestParseEndpointFetchFailure(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"source": filepath.Join(t.TempDir(), "absent.srt")})
	resp := postJSON(t, srv.URL+"/v1/parse", string(body))
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("got status %d, want 502", resp.StatusCode)
	}
}

func TestAlignEndpointMatch(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{
		"quote": "General Kenobi!",
		"text":  srtFixture,
	})
	resp := postJSON(t, srv.URL+"/v1/align", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var got alignResponse
	decodeBody(t, resp, &got)
	if !got.Matched {
		t.Fatal("expected quote to match")
	}
	if got.StartIndex != 1 || got.EndIndex != 1 {
		t.Errorf("got span %d..%d, want 1..1", got.StartIndex, got.EndIndex)
	}
	if got.Score != 1.0 {
		t.Errorf("got score %v, want 1.0", got.Score)
	}
	if got.StartMs != 4500 || got.EndMs != 6200 {
		t.Errorf("got window %d..%d, want 4500..6200", got.StartMs, got.EndMs)
	}
}

func TestAlignEndpointNoMatch(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{
		"quote": "completely unrelated words spoken nowhere",
		"text":  srtFixture,
	})
	resp := postJSON(t, srv.URL+"/v1/align", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var got alignResponse
	decodeBody(t, resp, &got)
	if got.Matched {
		t.Error("expected no match")
	}

	metrics, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer metrics.Body.Close()
	raw, err := io.ReadAll(metrics.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(raw), "quoteclip_alignment_failures_total 1") {
		t.Error("expected alignment failure to be counted")
	}
}

func TestAlignEndpointRequiresQuote(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"text": srtFixture})
	resp := postJSON(t, srv.URL+"/v1/align", string(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var got map[string]string
	decodeBody(t, resp, &got)
	if got["status"] != "ok" {
		t.Errorf("got status %q, want ok", got["status"])
	}
}

func TestMetricsEndpointRefreshesGauges(t *testing.T) {
	m := NewMetrics()
	h := NewHandler(fetch.New(logging.NewNop()), logging.NewNop(), m)
	srv := httptest.NewServer(NewRouter(h, m, func() { m.SetCachedWindows(7) }))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(raw), "quoteclip_cached_windows 7") {
		t.Error("expected gauge refresh before scrape")
	}
	if !strings.Contains(string(raw), "quoteclip_requests_total") {
		t.Error("expected request counter to be exported")
	}
}
