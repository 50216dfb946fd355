// Package cache provides the process-wide store of document indices, plus
// the conversation-to-active-document binding used for follow-up references.
package cache

import (
	"fmt"
	"sync"

	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

// IndexCache is a thread-safe store from document id to DocumentIndex. Every
// value crossing its boundary is an independent deep copy: one caller's
// mutation can never corrupt the structure a concurrent caller reads. Indices
// are small relative to source files, so the copy cost buys correctness
// cheaply.
//
// The lock is held only around map access, never across file I/O.
type IndexCache struct {
	mu         sync.Mutex
	indices    map[string]*models.DocumentIndex
	activeDocs map[string]string // conversation id -> active document id
	logger     *zap.Logger       // optional; when set, logs debug events
}

// Option configures an IndexCache.
type Option func(*IndexCache)

// WithLogger sets a logger for debug output (stores, active-document changes).
func WithLogger(l *zap.Logger) Option {
	return func(c *IndexCache) { c.logger = l }
}

// New creates an empty cache.
func New(opts ...Option) *IndexCache {
	c := &IndexCache{
		indices:    make(map[string]*models.DocumentIndex),
		activeDocs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store persists a deep copy of the index; the caller's object and the cached
// one never alias. A later Store for the same document id replaces the index
// wholesale.
func (c *IndexCache) Store(index *models.DocumentIndex) error {
	if index == nil || index.DocumentID == "" {
		return fmt.Errorf("cannot cache index without document_id")
	}
	clone := index.Clone()

	c.mu.Lock()
	c.indices[index.DocumentID] = clone
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Debug("index cached",
			zap.String("document_id", index.DocumentID),
			zap.Int("blocks", len(index.Blocks)))
	}
	return nil
}

// Get returns a fresh deep copy of the index on every call; callers may
// mutate their copy freely. Returns models.ErrNotFound if absent.
func (c *IndexCache) Get(documentID string) (*models.DocumentIndex, error) {
	c.mu.Lock()
	index, ok := c.indices[documentID]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("document %s not indexed: %w", documentID, models.ErrNotFound)
	}
	return index.Clone(), nil
}

// Exists is a non-throwing existence check.
func (c *IndexCache) Exists(documentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.indices[documentID]
	return ok
}

// SetActiveDocument binds a conversation to its currently relevant document.
// No validation that the document is still cached; this is pure association
// bookkeeping.
func (c *IndexCache) SetActiveDocument(conversationID, documentID string) {
	c.mu.Lock()
	c.activeDocs[conversationID] = documentID
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Debug("active document set",
			zap.String("conversation_id", conversationID),
			zap.String("document_id", documentID))
	}
}

// ActiveDocument resolves the document bound to a conversation, if any.
func (c *IndexCache) ActiveDocument(conversationID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.activeDocs[conversationID]
	return id, ok
}
