package viewer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/pdbview/internal/fetch"
	"github.com/msalah0e/pdbview/internal/metrics"
	"github.com/msalah0e/pdbview/internal/structure"
)

// Ticket identifies one load request. Only the most recently issued ticket
// may finish.
type Ticket struct {
	generation uint64
	source     string
	name       string
}

// BeginLoad starts a load and returns its ticket. Any load still in flight
// becomes stale.
func (c *Controller) BeginLoad(source string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return Ticket{generation: c.generation, source: source}
}

// FinishLoad ingests raw for t and draws it. A stale ticket returns
// ErrStaleLoad and leaves everything untouched. fileName is empty for
// structures fetched by id.
func (c *Controller) FinishLoad(ctx context.Context, t Ticket, raw, fileName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.generation != c.generation {
		c.metrics.RecordLoad(t.source, metrics.OutcomeStale)
		c.log.Info("discarding stale load", zap.String("source", t.source), zap.String("name", fileName))
		return ErrStaleLoad
	}

	start := time.Now()
	ing, err := structure.Ingest(raw)
	if err != nil {
		c.metrics.RecordLoad(t.source, metrics.OutcomeError)
		return engineFailed(err)
	}
	if err := c.loadModel(ctx, ing); err != nil {
		c.metrics.RecordLoad(t.source, metrics.OutcomeError)
		return engineFailed(err)
	}

	if err := c.bridge.SaveStructure(ing.Remapped, fileName); err != nil {
		c.log.Warn("persist failed", zap.String("key", "pdbData"), zap.Error(err))
	}
	c.fileName = fileName
	name := fileName
	if name == "" {
		name = t.name
	}
	c.loaded(t.source, name, start)
	return c.redraw()
}

// loadModel hands the remapped text to the engine and copies the recovered
// annotations onto the engine's atoms.
func (c *Controller) loadModel(ctx context.Context, ing *structure.Ingested) error {
	m, err := c.engine.LoadModel(ctx, ing.Remapped, "pdb")
	if err != nil {
		return err
	}
	if err := structure.CopyAnnotations(m, ing.Model); err != nil {
		return err
	}
	c.model = m
	return nil
}

func (c *Controller) loaded(source, name string, start time.Time) {
	protein, water := c.model.Count()
	took := time.Since(start)
	c.metrics.RecordLoad(source, metrics.OutcomeOK)
	c.log.Info("structure loaded",
		zap.String("source", source),
		zap.String("name", name),
		zap.Int("protein", protein),
		zap.Int("water", water),
		zap.Duration("took", took))
	if c.onLoad != nil {
		c.onLoad(LoadEvent{Source: source, Name: name, Protein: protein, Water: water, Duration: took})
	}
}

// LoadText loads raw structure text read from fileName.
func (c *Controller) LoadText(ctx context.Context, raw, fileName string) error {
	return c.FinishLoad(ctx, c.BeginLoad(SourceFile), raw, fileName)
}

// LoadID downloads the structure with the given PDB id and loads it. A
// blank id or a failed download returns a UserError and changes nothing.
func (c *Controller) LoadID(ctx context.Context, id string) error {
	id = trimID(id)
	if id == "" {
		return emptyInput("Enter PDB ID.")
	}

	t := c.BeginLoad(SourceID)
	t.name = fetch.Normalize(id)
	text, err := c.fetcher.Fetch(ctx, id)
	if err != nil {
		c.mu.Lock()
		stale := t.generation != c.generation
		c.mu.Unlock()
		if stale {
			c.metrics.RecordLoad(SourceID, metrics.OutcomeStale)
			return ErrStaleLoad
		}
		c.metrics.RecordLoad(SourceID, metrics.OutcomeError)
		c.log.Info("fetch failed", zap.String("id", id), zap.Error(err))
		if errors.Is(err, fetch.ErrInvalidID) {
			return fetchFailed("Invalid ID", err)
		}
		return fetchFailed(err.Error(), err)
	}

	return c.FinishLoad(ctx, t, text, "")
}
