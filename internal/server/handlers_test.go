package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/examflux/examflux/internal/genai"
	"github.com/examflux/examflux/internal/server/storage"
	"github.com/examflux/examflux/internal/similarity"
)

type stubGenerator struct {
	draft genai.Draft
	err   error
}

func (g *stubGenerator) GenerateItem(_ context.Context, _ string) (genai.Draft, error) {
	return g.draft, g.err
}

func newTestServer(t *testing.T, gen genai.Generator) (*Server, *storage.Store) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	store, err := storage.Open(context.Background(), storage.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	sim := similarity.NewService(store, similarity.NewHashedEmbedder())
	return New(store, sim, gen, nil), store
}

func seed(t *testing.T, store *storage.Store, stimulus, status string) int64 {
	t.Helper()
	id, err := store.Insert(context.Background(), storage.Record{
		Source:      "ai",
		Stimulus:    stimulus,
		Stem:        "Which statement follows?",
		ChoicesJSON: `["one","two","three"]`,
		Answer:      "one",
		Status:      status,
	})
	if err != nil {
		t.Fatalf("seeding item: %v", err)
	}
	return id
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func decodeDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding detail: %v", err)
	}
	return body.Detail
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := doJSON(t, srv, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestListNewestFirst(t *testing.T) {
	srv, store := newTestServer(t, nil)
	first := seed(t, store, "older passage", "new")
	second := seed(t, store, "newer passage", "new")

	rr := doJSON(t, srv, http.MethodGet, "/api/items/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var items []wireItem
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decoding items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].ID != second || items[1].ID != first {
		t.Errorf("order = %d, %d; want %d, %d", items[0].ID, items[1].ID, second, first)
	}
	if items[0].Status != "new" || items[0].Committed {
		t.Errorf("item = %+v", items[0])
	}
}

func TestListEmptyIsArray(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := doJSON(t, srv, http.MethodGet, "/api/items/", nil)
	if got := bytes.TrimSpace(rr.Body.Bytes()); string(got) != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestApproveReject(t *testing.T) {
	srv, store := newTestServer(t, nil)
	a := seed(t, store, "passage a", "new")
	b := seed(t, store, "passage b", "new")

	rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/items/%d/approve", a), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rr.Code, rr.Body)
	}
	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/items/%d/reject", b), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("reject status = %d, body %s", rr.Code, rr.Body)
	}

	recA, _, err := store.Get(context.Background(), a)
	if err != nil || recA.Status != "approved" {
		t.Errorf("item a status = %q, err %v", recA.Status, err)
	}
	recB, _, err := store.Get(context.Background(), b)
	if err != nil || recB.Status != "rejected" {
		t.Errorf("item b status = %q, err %v", recB.Status, err)
	}
}

func TestApproveMissing(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := doJSON(t, srv, http.MethodPost, "/api/items/999/approve", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if decodeDetail(t, rr) != "Item not found" {
		t.Errorf("detail = %q", decodeDetail(t, rr))
	}
}

func TestApproveBadID(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := doJSON(t, srv, http.MethodPost, "/api/items/abc/approve", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCartAndCommit(t *testing.T) {
	srv, store := newTestServer(t, nil)
	approved := seed(t, store, "keeper", "approved")
	seed(t, store, "still pending", "new")
	seed(t, store, "tossed", "rejected")

	rr := doJSON(t, srv, http.MethodPost, "/api/items/cart", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("cart status = %d", rr.Code)
	}
	var cart []wireItem
	if err := json.Unmarshal(rr.Body.Bytes(), &cart); err != nil {
		t.Fatalf("decoding cart: %v", err)
	}
	if len(cart) != 1 || cart[0].ID != approved {
		t.Fatalf("cart = %+v", cart)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/items/cart/commit", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("commit status = %d, body %s", rr.Code, rr.Body)
	}
	var receipt struct {
		BatchID   string `json:"batch_id"`
		Committed int64  `json:"committed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("decoding receipt: %v", err)
	}
	if receipt.BatchID == "" || receipt.Committed != 1 {
		t.Errorf("receipt = %+v", receipt)
	}

	// Committed items leave the cart.
	rr = doJSON(t, srv, http.MethodPost, "/api/items/cart", nil)
	if got := bytes.TrimSpace(rr.Body.Bytes()); string(got) != "[]" {
		t.Errorf("cart after commit = %q", got)
	}
}

func TestCommitEmptyCart(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := doJSON(t, srv, http.MethodPost, "/api/items/cart/commit", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if decodeDetail(t, rr) != "No approved items to commit." {
		t.Errorf("detail = %q", decodeDetail(t, rr))
	}
}

func TestSimilar(t *testing.T) {
	srv, store := newTestServer(t, nil)
	query := seed(t, store, "the water cycle moves water between oceans and clouds", "new")
	near := seed(t, store, "clouds return water to the oceans as rain", "new")
	seed(t, store, "parliamentary procedure for amending bylaws", "new")

	rr := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/items/%d/similar?top_k=2", query), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var res similarity.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if res.QueryID != query || res.TopK != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Results) != 2 {
		t.Fatalf("results len = %d", len(res.Results))
	}
	if res.Results[0].ID != near {
		t.Errorf("top hit = %d, want %d", res.Results[0].ID, near)
	}
}

func TestSimilarMissingItem(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := doJSON(t, srv, http.MethodGet, "/api/items/42/similar", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSimilarTopKBounds(t *testing.T) {
	srv, store := newTestServer(t, nil)
	id := seed(t, store, "passage", "new")
	for _, bad := range []string{"0", "51", "-1", "many"} {
		rr := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/items/%d/similar?top_k=%s", id, bad), nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("top_k=%s: status = %d", bad, rr.Code)
		}
	}
}

func TestCreate(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := doJSON(t, srv, http.MethodPost, "/api/items/", map[string]any{
		"stimulus": "a short passage",
		"stem":     "What follows?",
		"choices":  []string{"x", "y"},
		"answer":   "x",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var got wireItem
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding item: %v", err)
	}
	if got.ID == 0 || got.Status != "new" || got.Source != "manual" {
		t.Errorf("item = %+v", got)
	}
}

func TestGenerate(t *testing.T) {
	gen := &stubGenerator{draft: genai.Draft{
		Stimulus: "generated passage",
		Stem:     "Pick one.",
		Choices:  []string{"a", "b", "c"},
		Answer:   "a",
	}}
	srv, store := newTestServer(t, gen)

	rr := doJSON(t, srv, http.MethodPost, "/api/items/generate", map[string]any{
		"prompt_text": "write about passages",
		"docx_path":   nil,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var got wireItem
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding item: %v", err)
	}
	if got.Source != "ai" || got.Status != "new" || got.Stimulus != "generated passage" {
		t.Errorf("item = %+v", got)
	}

	rec, ok, err := store.Get(context.Background(), got.ID)
	if err != nil || !ok {
		t.Fatalf("stored item: ok=%v err=%v", ok, err)
	}
	if rec.Prompt != "write about passages" {
		t.Errorf("stored prompt = %q", rec.Prompt)
	}
}

func TestGenerateUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := doJSON(t, srv, http.MethodPost, "/api/items/generate", map[string]any{"prompt_text": "p"})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})
	rr := doJSON(t, srv, http.MethodPost, "/api/items/generate", map[string]any{
		"prompt_text": nil,
		"docx_path":   nil,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGenerateLLMError(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{err: errors.New("model overloaded")})
	rr := doJSON(t, srv, http.MethodPost, "/api/items/generate", map[string]any{"prompt_text": "p"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGenerateInvalidDraft(t *testing.T) {
	gen := &stubGenerator{draft: genai.Draft{
		Stem:    "Pick one.",
		Choices: []string{"this choice runs on far past the twelve word limit set for choices"},
		Answer:  "a",
	}}
	srv, _ := newTestServer(t, gen)
	rr := doJSON(t, srv, http.MethodPost, "/api/items/generate", map[string]any{"prompt_text": "p"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
}
