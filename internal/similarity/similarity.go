// Package similarity ranks stored items by semantic closeness. Embeddings
// are computed once per item and cached in the database; queries score the
// cached pool with cosine similarity and keep the top k.
package similarity

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/examflux/examflux/internal/server/storage"
)

// ErrNotFound is returned when the query item does not exist.
var ErrNotFound = errors.New("item not found")

// Embedder turns item text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HashedEmbedder is the default local embedder: a hashed bag-of-words
// vector with log-scaled term weights, L2-normalized. Deterministic and
// dependency-free; good enough for redundancy detection on passage text.
type HashedEmbedder struct {
	Dim int
}

// NewHashedEmbedder returns an embedder with the default dimension.
func NewHashedEmbedder() *HashedEmbedder { return &HashedEmbedder{Dim: 256} }

func (e *HashedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.Dim)
	counts := make(map[uint32]int)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		counts[h.Sum32()%uint32(e.Dim)]++
	}
	for bucket, n := range counts {
		vec[bucket] = float32(1 + math.Log(float64(n)))
	}
	normalize(vec)
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// zero or the dimensions disagree.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Hit is one scored neighbor.
type Hit struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Result is the ranked answer to one similarity query.
type Result struct {
	QueryID int64 `json:"query_id"`
	TopK    int   `json:"top_k"`
	Results []Hit `json:"results"`
}

// TopK sorts hits by descending score and truncates to k. Ties keep their
// incoming relative order; no further tie-break is promised.
func TopK(hits []Hit, k int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Service answers similarity queries against the item store.
type Service struct {
	store *storage.Store
	emb   Embedder
}

// NewService builds a similarity service over the given store and embedder.
func NewService(store *storage.Store, emb Embedder) *Service {
	return &Service{store: store, emb: emb}
}

// Similar returns the topK stored items closest to itemID. Scores are
// rounded to three decimals. The embedding for the query item is computed
// and cached on first use.
func (s *Service) Similar(ctx context.Context, itemID int64, topK int) (Result, error) {
	rec, ok, err := s.store.Get(ctx, itemID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrNotFound
	}

	qvec, err := s.embedding(ctx, rec)
	if err != nil {
		return Result{}, err
	}

	// Backfill embeddings for items that were inserted without one, so the
	// pool always covers the whole table.
	missing, err := s.store.Unembedded(ctx)
	if err != nil {
		return Result{}, err
	}
	for _, m := range missing {
		if _, err := s.embedding(ctx, m); err != nil {
			return Result{}, err
		}
	}

	pool, err := s.store.EmbeddingsExcept(ctx, itemID)
	if err != nil {
		return Result{}, err
	}

	hits := make([]Hit, 0, len(pool))
	for _, iv := range pool {
		score := Cosine(qvec, iv.Vector)
		hits = append(hits, Hit{ID: iv.ItemID, Score: math.Round(score*1000) / 1000})
	}
	hits = TopK(hits, topK)
	if hits == nil {
		hits = []Hit{}
	}
	return Result{QueryID: itemID, TopK: topK, Results: hits}, nil
}

// Index computes and caches the embedding for a stored item, typically
// right after insertion so later queries see it in the pool.
func (s *Service) Index(ctx context.Context, rec storage.Record) error {
	_, err := s.embedding(ctx, rec)
	return err
}

func (s *Service) embedding(ctx context.Context, rec storage.Record) ([]float32, error) {
	vec, found, err := s.store.GetEmbedding(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if found {
		return vec, nil
	}
	vec, err = s.emb.Embed(ctx, itemText(rec))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutEmbedding(ctx, rec.ID, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// itemText is the exact text embedded for similarity: the stimulus, which
// carries the passages the redundancy check cares about.
func itemText(rec storage.Record) string {
	return strings.TrimSpace(rec.Stimulus)
}
