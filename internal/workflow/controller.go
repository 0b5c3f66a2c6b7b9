// Package workflow sequences reviewer intents into client and store
// operations and enforces the item lifecycle: pending moves to approved or
// rejected, never back. The client side never reverses a decision; server
// ground truth is only ever observed via re-fetch. Approved items leave the
// cart once a later refresh omits them, which is how a commit becomes
// visible.
package workflow

import (
	"context"
	"encoding/json"

	"github.com/examflux/examflux/internal/client"
	"github.com/examflux/examflux/internal/item"
	"github.com/examflux/examflux/internal/store"
)

// API is the slice of the review client the controller drives.
type API interface {
	Approve(ctx context.Context, id item.ID) (client.Ack, error)
	Reject(ctx context.Context, id item.ID) (client.Ack, error)
	FindSimilar(ctx context.Context, id item.ID, topK int) (item.SimilarityResult, error)
	CartCommit(ctx context.Context) (json.RawMessage, error)
	Generate(ctx context.Context, req client.GenerateRequest) (json.RawMessage, error)
}

// Controller coordinates one review session against one store. Every
// operation is independently fire-and-report: a failure in one item's
// decision never blocks or rolls back another, and nothing retries.
type Controller struct {
	api   API
	store *store.Store
}

// New creates a controller over the given API and session store.
func New(api API, st *store.Store) *Controller {
	return &Controller{api: api, store: st}
}

// Load refreshes a scope from the server.
func (c *Controller) Load(ctx context.Context, scope store.Scope) error {
	return c.store.Refresh(ctx, scope)
}

// Queue returns the filtered review-queue view.
func (c *Controller) Queue(query string) []item.Item {
	return c.store.FilteredQueue(query)
}

// Cart returns the staged-items view.
func (c *Controller) Cart() []item.Item {
	return c.store.Items(store.ScopeCart)
}

// ApproveItem asks the server to approve id and, only on confirmation,
// removes it from the local queue. On failure the queue is untouched and
// the error goes back to the caller for reporting.
func (c *Controller) ApproveItem(ctx context.Context, id item.ID) error {
	if _, err := c.api.Approve(ctx, id); err != nil {
		return err
	}
	c.store.ApplyApproved(id)
	return nil
}

// RejectItem is the reject counterpart of ApproveItem.
func (c *Controller) RejectItem(ctx context.Context, id item.ID) error {
	if _, err := c.api.Reject(ctx, id); err != nil {
		return err
	}
	c.store.ApplyRejected(id)
	return nil
}

// SimilarOutcome carries a similarity answer. NoResults distinguishes a
// valid empty result set from an error so callers can show a neutral
// message instead of an error banner.
type SimilarOutcome struct {
	Result    item.SimilarityResult
	NoResults bool
}

// RequestSimilar returns the server's ranked neighbors for id, unmodified.
func (c *Controller) RequestSimilar(ctx context.Context, id item.ID, topK int) (SimilarOutcome, error) {
	res, err := c.api.FindSimilar(ctx, id, topK)
	if err != nil {
		return SimilarOutcome{}, err
	}
	return SimilarOutcome{Result: res, NoResults: len(res.Results) == 0}, nil
}

// CommitCart persists the staged items, then refreshes the cart scope so
// the visible cart reflects server truth after the commit. A failed commit
// refreshes nothing. The receipt shape is backend-defined and returned
// verbatim even when the follow-up refresh fails.
func (c *Controller) CommitCart(ctx context.Context) (json.RawMessage, error) {
	receipt, err := c.api.CartCommit(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Refresh(ctx, store.ScopeCart); err != nil {
		return receipt, err
	}
	return receipt, nil
}

// Generate submits a generation request. Empty fields are sent as nulls.
func (c *Controller) Generate(ctx context.Context, prompt, docxPath string) (json.RawMessage, error) {
	var req client.GenerateRequest
	if prompt != "" {
		req.PromptText = &prompt
	}
	if docxPath != "" {
		req.DocxPath = &docxPath
	}
	return c.api.Generate(ctx, req)
}
