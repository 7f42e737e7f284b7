// Package catalog holds the read-mostly knowledge layer: per-source schema
// metadata and the per-agent semantic dictionaries. Both components publish
// immutable snapshots through an atomic pointer so readers never block on
// writers.
package catalog

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

type schemaSnapshot struct {
	bySource map[uuid.UUID]*models.SchemaMetadata
}

// SchemaCatalog maps database source ids to their published schema metadata.
// Reads go through an immutable snapshot; Publish and Remove rebuild the
// snapshot off the read path.
type SchemaCatalog struct {
	logger *zap.Logger

	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[schemaSnapshot]
}

// NewSchemaCatalog creates an empty schema catalog.
func NewSchemaCatalog(logger *zap.Logger) *SchemaCatalog {
	c := &SchemaCatalog{logger: logger.Named("schema_catalog")}
	c.snap.Store(&schemaSnapshot{bySource: map[uuid.UUID]*models.SchemaMetadata{}})
	return c
}

// Describe returns the schema metadata published for a database source.
// The returned value is shared and must not be mutated.
func (c *SchemaCatalog) Describe(sourceID uuid.UUID) (*models.SchemaMetadata, error) {
	snap := c.snap.Load()
	meta, ok := snap.bySource[sourceID]
	if !ok {
		return nil, apperrors.ErrUnknownSource
	}
	return meta, nil
}

// Publish stores (or replaces) the schema metadata for meta.SourceID.
// The caller hands over ownership; meta must not be mutated afterwards.
func (c *SchemaCatalog) Publish(meta *models.SchemaMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.snap.Load()
	next := make(map[uuid.UUID]*models.SchemaMetadata, len(old.bySource)+1)
	for id, m := range old.bySource {
		next[id] = m
	}
	next[meta.SourceID] = meta
	c.snap.Store(&schemaSnapshot{bySource: next})

	c.logger.Info("schema published",
		zap.String("source_id", meta.SourceID.String()),
		zap.Int("tables", len(meta.Tables)))
}

// Remove drops the schema metadata for a source. Removing an unknown source
// is a no-op.
func (c *SchemaCatalog) Remove(sourceID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.snap.Load()
	if _, ok := old.bySource[sourceID]; !ok {
		return
	}
	next := make(map[uuid.UUID]*models.SchemaMetadata, len(old.bySource)-1)
	for id, m := range old.bySource {
		if id != sourceID {
			next[id] = m
		}
	}
	c.snap.Store(&schemaSnapshot{bySource: next})
}
