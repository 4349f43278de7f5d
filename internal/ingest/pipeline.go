// Package ingest keeps the vector store in agreement with a Drive folder
// tree: list → diff against stored documents → delete stale → download,
// extract and upsert in batches → persist the sync record.
//
// The pipeline is idempotent: an unchanged drive produces zero writes beyond
// refreshing lastSyncTime, and per-file failures are re-driven on the next
// run because failed files never reach the store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
)

// DefaultBatchSize is the sole flow-control knob of the pipeline.
const DefaultBatchSize = 50

// ErrSyncRunning is returned when a run is requested while another run for
// the same root is in flight.
var ErrSyncRunning = errors.New("sync already running")

// Pipeline drives one root folder's incremental sync.
type Pipeline struct {
	drive     contracts.DriveClient
	extractor contracts.TextExtractor
	store     *vectorstore.Store
	cache     contracts.SyncCache

	rootFolderID string
	batchSize    int

	// mu serializes runs for this root.
	mu sync.Mutex
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithBatchSize overrides the per-batch file count (default 50).
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// NewPipeline wires the sync dependencies for one root folder.
func NewPipeline(dc contracts.DriveClient, ex contracts.TextExtractor, store *vectorstore.Store, cache contracts.SyncCache, rootFolderID string, opts ...Option) *Pipeline {
	p := &Pipeline{
		drive:        dc,
		extractor:    ex,
		store:        store,
		cache:        cache,
		rootFolderID: rootFolderID,
		batchSize:    DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LastRecord returns the persisted record of the last completed run, or nil.
func (p *Pipeline) LastRecord() (*models.SyncRecord, error) {
	return p.cache.Load()
}

// Run executes one sync pass. Returns ErrSyncRunning when a pass for this
// root is already in flight.
func (p *Pipeline) Run(ctx context.Context) (*models.SyncReport, error) {
	if !p.mu.TryLock() {
		return nil, ErrSyncRunning
	}
	defer p.mu.Unlock()

	start := time.Now()
	syncStartTime := start.UTC().Format(time.RFC3339)

	prior, err := p.cache.Load()
	if err != nil {
		return nil, err
	}
	if prior != nil {
		log.Info().Str("last_sync", prior.LastSyncTime).Int("file_count", prior.FileCount).Msg("prior sync record loaded")
	}

	driveFiles, err := p.drive.ListTree(ctx, p.rootFolderID)
	if err != nil {
		return nil, fmt.Errorf("list drive tree: %w", err)
	}

	stored, err := p.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored documents: %w", err)
	}

	toAdd, toUpdate, toDelete := diff(driveFiles, stored)

	report := &models.SyncReport{
		Listed:  len(driveFiles),
		Deleted: len(toDelete),
	}

	if len(toAdd) == 0 && len(toUpdate) == 0 && len(toDelete) == 0 {
		log.Info().Int("files", len(driveFiles)).Msg("drive unchanged, nothing to sync")
		report.DurationMs = time.Since(start).Milliseconds()
		return report, p.cache.Store(&models.SyncRecord{LastSyncTime: syncStartTime, FileCount: len(driveFiles)})
	}

	// Stale versions must be gone before re-adding so the subsequent
	// AddMany observes its own writes.
	stale := make([]string, 0, len(toDelete)+len(toUpdate))
	stale = append(stale, toDelete...)
	for _, f := range toUpdate {
		stale = append(stale, f.ID)
	}
	if len(stale) > 0 {
		if err := p.store.DeleteMany(ctx, stale); err != nil {
			return nil, fmt.Errorf("delete stale documents: %w", err)
		}
	}

	work := append(append([]models.DriveFile{}, toAdd...), toUpdate...)
	log.Info().
		Int("add", len(toAdd)).
		Int("update", len(toUpdate)).
		Int("delete", len(toDelete)).
		Msg("sync delta computed")

	processed := 0
	for batchStart := 0; batchStart < len(work); batchStart += p.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := batchStart + p.batchSize
		if end > len(work) {
			end = len(work)
		}

		for _, file := range work[batchStart:end] {
			switch p.processFile(ctx, file) {
			case fileUpserted:
				if isUpdate(file, toUpdate) {
					report.Updated++
				} else {
					report.Added++
				}
			case fileSkippedEmpty:
				report.Skipped++
			case fileFailed:
				report.Failed++
			}
		}

		processed = end
		log.Info().
			Int("processed", processed).
			Int("total", len(work)).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Msg("sync batch complete")
	}

	// The record is written even with per-file failures: failed files are
	// absent from the store, so the next run re-drives them.
	if err := p.cache.Store(&models.SyncRecord{LastSyncTime: syncStartTime, FileCount: len(driveFiles)}); err != nil {
		return nil, err
	}

	report.DurationMs = time.Since(start).Milliseconds()
	log.Info().
		Int("added", report.Added).
		Int("updated", report.Updated).
		Int("deleted", report.Deleted).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("sync complete")
	return report, nil
}

// fileOutcome is the terminal state of one file within a batch.
type fileOutcome int

const (
	fileUpserted fileOutcome = iota
	fileSkippedEmpty
	fileFailed
)

// processFile walks one file through download → extract → upsert. Failures
// are contained: the batch continues.
func (p *Pipeline) processFile(ctx context.Context, file models.DriveFile) fileOutcome {
	text, err := p.extractText(ctx, file)
	if err != nil {
		log.Warn().Err(err).Str("id", file.ID).Str("name", file.Name).Str("folder", file.FolderPath).Msg("file processing failed")
		return fileFailed
	}
	if text == "" {
		log.Debug().Str("id", file.ID).Str("name", file.Name).Msg("no extractable text, skipping")
		return fileSkippedEmpty
	}

	doc := models.Document{
		ID:   file.ID,
		Text: text,
		Metadata: models.DocumentMetadata{
			Name:         file.Name,
			MimeType:     file.MimeType,
			FolderPath:   file.FolderPath,
			ModifiedTime: file.ModifiedTime,
			Extension:    models.ExtensionFor(file.MimeType),
			GoogleLink:   models.DriveLink(file.ID, file.MimeType),
		},
	}

	if err := p.store.AddMany(ctx, []models.Document{doc}); err != nil {
		log.Warn().Err(err).Str("id", file.ID).Str("name", file.Name).Msg("document upsert failed")
		return fileFailed
	}
	return fileUpserted
}

// extractText prefers the structured Sheets API for native spreadsheets and
// falls back to an XLSX export; everything else is downloaded to a temp file
// and run through the extractor.
func (p *Pipeline) extractText(ctx context.Context, file models.DriveFile) (string, error) {
	if file.MimeType == models.MimeGoogleSheet {
		text, err := p.drive.ReadSheet(ctx, file.ID)
		if err == nil {
			return text, nil
		}
		log.Warn().Err(err).Str("id", file.ID).Str("name", file.Name).Msg("sheet API failed, falling back to export")
	}

	tmp, err := os.CreateTemp("", "driveagent-*"+models.ExtensionFor(file.MimeType))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := p.drive.Download(ctx, file.ID, file.MimeType, tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return p.extractor.Extract(ctx, tmpPath, file.MimeType)
}

// diff splits the drive listing against the stored set into disjoint add,
// update and delete sets keyed by (id, modifiedTime).
func diff(driveFiles []models.DriveFile, stored []models.Document) (toAdd, toUpdate []models.DriveFile, toDelete []string) {
	storedByID := make(map[string]models.Document, len(stored))
	for _, d := range stored {
		storedByID[d.ID] = d
	}

	current := make(map[string]bool, len(driveFiles))
	for _, f := range driveFiles {
		current[f.ID] = true
		prev, ok := storedByID[f.ID]
		switch {
		case !ok:
			toAdd = append(toAdd, f)
		case prev.Metadata.ModifiedTime != f.ModifiedTime:
			toUpdate = append(toUpdate, f)
		}
	}

	for _, d := range stored {
		if !current[d.ID] {
			toDelete = append(toDelete, d.ID)
		}
	}
	return toAdd, toUpdate, toDelete
}

func isUpdate(file models.DriveFile, toUpdate []models.DriveFile) bool {
	for _, f := range toUpdate {
		if f.ID == file.ID {
			return true
		}
	}
	return false
}
