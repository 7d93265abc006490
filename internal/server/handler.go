package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"quoteclip/internal/align"
	"quoteclip/internal/logging"
	"quoteclip/internal/playback"
	"quoteclip/internal/subtitle"
)

// Handler exposes subtitle parsing and quote alignment endpoints.
type Handler struct {
	fetcher playback.TextFetcher
	logger  *logging.Logger
	metrics *Metrics
}

// NewHandler returns a Handler using the given fetcher, logger, and
// optional Metrics. Metrics may be nil to disable metric recording
// (e.g. in tests).
func NewHandler(fetcher playback.TextFetcher, logger *logging.Logger, m *Metrics) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{fetcher: fetcher, logger: logger, metrics: m}
}

// textRequest carries subtitle text either inline or as a fetchable
// source (file path or URL).
type textRequest struct {
	Quote  string `json:"quote,omitempty"`
	Text   string `json:"text,omitempty"`
	Source string `json:"source,omitempty"`
}

type entryResponse struct {
	Index   int    `json:"index"`
	StartMs int64  `json:"startMs"`
	EndMs   int64  `json:"endMs"`
	Text    string `json:"text"`
}

type parseResponse struct {
	Count   int             `json:"count"`
	Entries []entryResponse `json:"entries"`
}

type alignResponse struct {
	Matched    bool    `json:"matched"`
	StartIndex int     `json:"startIndex"`
	EndIndex   int     `json:"endIndex"`
	Score      float64 `json:"score"`
	StartMs    int64   `json:"startMs"`
	EndMs      int64   `json:"endMs"`
}

// Parse handles POST /v1/parse.
// Body: { "text": "1\n00:00:01,000 --> ..." } or { "source": "/path/subs.srt" }.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text, ok := h.resolveText(w, r, req)
	if !ok {
		return
	}

	track, err := subtitle.Parse(text)
	if err != nil {
		h.logger.Debugw("parse rejected", "error", err)
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := parseResponse{Count: len(track)}
	for _, e := range track {
		resp.Entries = append(resp.Entries, entryResponse{
			Index:   e.Index,
			StartMs: e.StartTime.Milliseconds(),
			EndMs:   e.EndTime.Milliseconds(),
			Text:    e.Text,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Align handles POST /v1/align.
// Body: { "quote": "...", "text" or "source": ... }. A quote that
// cannot be located yields 200 with matched=false rather than an error.
func (h *Handler) Align(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Quote) == "" {
		h.writeError(w, http.StatusBadRequest, "quote is required")
		return
	}

	text, ok := h.resolveText(w, r, req)
	if !ok {
		return
	}

	track, err := subtitle.Parse(text)
	if err != nil {
		h.logger.Debugw("parse rejected", "error", err)
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res := align.Locate(req.Quote, track)
	if res.StartIndex < 0 {
		h.logger.Debugw("quote not located", "quote", req.Quote, "entries", len(track))
		if h.metrics != nil {
			h.metrics.IncAlignmentFailures()
		}
		h.writeJSON(w, http.StatusOK, alignResponse{Matched: false})
		return
	}

	if h.metrics != nil {
		h.metrics.IncAlignments()
	}
	h.writeJSON(w, http.StatusOK, alignResponse{
		Matched:    true,
		StartIndex: res.StartIndex,
		EndIndex:   res.EndIndex,
		Score:      res.Score,
		StartMs:    track[res.StartIndex].StartTime.Milliseconds(),
		EndMs:      track[res.EndIndex].EndTime.Milliseconds(),
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveText produces the subtitle text from the inline field or the
// fetchable source. It writes the error response itself on failure.
func (h *Handler) resolveText(w http.ResponseWriter, r *http.Request, req textRequest) (string, bool) {
	if req.Text != "" {
		return req.Text, true
	}
	if strings.TrimSpace(req.Source) == "" {
		h.writeError(w, http.StatusBadRequest, "either text or source is required")
		return "", false
	}

	text, err := h.fetcher.Text(r.Context(), req.Source)
	if err != nil {
		h.logger.Warnw("subtitle fetch failed", "source", req.Source, "error", err)
		h.writeError(w, http.StatusBadGateway, "failed to fetch subtitles: "+err.Error())
		return "", false
	}
	return text, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warnw("encode response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
