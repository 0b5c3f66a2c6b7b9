package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/examflux/examflux/internal/genai"
	"github.com/examflux/examflux/internal/server/storage"
	"github.com/examflux/examflux/internal/similarity"
)

// wireItem is the JSON shape of one stored item.
type wireItem struct {
	ID        int64           `json:"id"`
	Source    string          `json:"source"`
	Prompt    string          `json:"prompt,omitempty"`
	Stimulus  string          `json:"stimulus,omitempty"`
	Stem      string          `json:"stem,omitempty"`
	Choices   json.RawMessage `json:"choices"`
	Answer    string          `json:"answer"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Status    string          `json:"status"`
	Committed bool            `json:"committed"`
	CreatedAt string          `json:"created_at,omitempty"`
}

func toWire(rec storage.Record) wireItem {
	w := wireItem{
		ID:        rec.ID,
		Source:    rec.Source,
		Prompt:    rec.Prompt,
		Stimulus:  rec.Stimulus,
		Stem:      rec.Stem,
		Choices:   json.RawMessage(rec.ChoicesJSON),
		Answer:    rec.Answer,
		Status:    rec.Status,
		Committed: rec.Committed,
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if rec.MetaJSON != "" {
		w.Metadata = json.RawMessage(rec.MetaJSON)
	}
	return w
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

// writeDetail emits the {"detail": ...} error body the original API used.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func itemIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "api", "status": "healthy"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context(), listLimit)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("DB error: %v", err))
		return
	}
	out := make([]wireItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toWire(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

type createRequest struct {
	Prompt   string         `json:"prompt"`
	Stimulus string         `json:"stimulus"`
	Stem     string         `json:"stem"`
	Choices  []any          `json:"choices"`
	Answer   string         `json:"answer"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if req.Choices == nil {
		req.Choices = []any{}
	}
	choicesJSON, err := json.Marshal(req.Choices)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid choices: %v", err))
		return
	}
	metaJSON := ""
	if req.Metadata != nil {
		b, err := json.Marshal(req.Metadata)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid metadata: %v", err))
			return
		}
		metaJSON = string(b)
	}

	rec := storage.Record{
		Source:      "manual",
		Prompt:      req.Prompt,
		Stimulus:    req.Stimulus,
		Stem:        req.Stem,
		ChoicesJSON: string(choicesJSON),
		Answer:      req.Answer,
		MetaJSON:    metaJSON,
		Status:      "new",
	}
	id, err := s.store.Insert(r.Context(), rec)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("DB error: %v", err))
		return
	}
	s.index(r, id)

	stored, _, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("DB error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, toWire(stored))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, "approved")
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, "rejected")
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, err := itemIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "item id must be an integer")
		return
	}
	ok, err := s.store.SetStatus(r.Context(), id, status)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("DB error: %v", err))
		return
	}
	if !ok {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "item id must be an integer")
		return
	}
	topK := 5
	if v := r.URL.Query().Get("top_k"); v != "" {
		topK, err = strconv.Atoi(v)
		if err != nil || topK < 1 || topK > 50 {
			writeDetail(w, http.StatusBadRequest, "top_k must be an integer between 1 and 50")
			return
		}
	}

	res, err := s.sim.Similar(r.Context(), id, topK)
	if err != nil {
		if errors.Is(err, similarity.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "item not found")
			return
		}
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("similar failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.Cart(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("DB error: %v", err))
		return
	}
	out := make([]wireItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toWire(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.CommitCart(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("DB error: %v", err))
		return
	}
	if n == 0 {
		writeDetail(w, http.StatusBadRequest, "No approved items to commit.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id":  uuid.NewString(),
		"committed": n,
	})
}

type generateRequest struct {
	PromptText *string `json:"prompt_text"`
	DocxPath   *string `json:"docx_path"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.gen == nil {
		writeDetail(w, http.StatusServiceUnavailable, "generation is not configured; set EXAMFLUX_OPENAI_API_KEY")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	// A docx source wins over inline prompt text, as in the original tool.
	var prompt, recordedPrompt string
	switch {
	case req.DocxPath != nil && *req.DocxPath != "":
		text, err := genai.ReadDocx(*req.DocxPath)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("reading docx: %v", err))
			return
		}
		prompt = text
		recordedPrompt = "[docx]" + *req.DocxPath
	case req.PromptText != nil && *req.PromptText != "":
		prompt = *req.PromptText
		recordedPrompt = *req.PromptText
	default:
		writeDetail(w, http.StatusBadRequest, "prompt_text or docx_path is required")
		return
	}

	draft, err := s.gen.GenerateItem(r.Context(), prompt)
	if err != nil {
		writeDetail(w, http.StatusBadGateway, fmt.Sprintf("LLM error: %v", err))
		return
	}
	if err := draft.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if draft.Choices == nil {
		draft.Choices = []string{}
	}
	choicesJSON, err := json.Marshal(draft.Choices)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("encoding choices: %v", err))
		return
	}
	metaJSON := ""
	if draft.Metadata != nil {
		if b, err := json.Marshal(draft.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	rec := storage.Record{
		Source:      "ai",
		Prompt:      recordedPrompt,
		Stimulus:    draft.Stimulus,
		Stem:        draft.Stem,
		ChoicesJSON: string(choicesJSON),
		Answer:      draft.Answer,
		MetaJSON:    metaJSON,
		Status:      "new",
	}
	id, err := s.store.Insert(r.Context(), rec)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("DB error: %v", err))
		return
	}
	s.index(r, id)

	stored, _, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("DB error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, toWire(stored))
}

// index caches the new item's embedding so later similarity queries see it
// in the pool. Best effort; a failure only degrades similarity answers.
func (s *Server) index(r *http.Request, id int64) {
	rec, ok, err := s.store.Get(r.Context(), id)
	if err != nil || !ok {
		return
	}
	if err := s.sim.Index(r.Context(), rec); err != nil {
		log.Printf("indexing item %d: %v", id, err)
	}
}
