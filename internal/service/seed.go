package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"laptoprag/internal/domain"
	"laptoprag/internal/events"
)

// SeedReport summarizes a seeding run.
type SeedReport struct {
	Listings int
	Batches  int
	IDs      []string
}

// ListingID derives the stable index id of a listing: the unpadded base64 of
// its Arabic name, or of its English name when the Arabic one is missing.
func ListingID(m domain.Metadata) string {
	name := m.NameAR
	if name == "" {
		name = m.NameEN
	}
	return base64.RawStdEncoding.EncodeToString([]byte(name))
}

// ListingContent renders the text that is embedded and shown to the model.
func ListingContent(m domain.Metadata) string {
	return fmt.Sprintf("Name (AR): %s\nName (EN): %s\nPrice: %s\nIn Stock: %s\nAdditional Features: %s",
		m.NameAR, m.NameEN, strconv.FormatFloat(m.Price, 'f', -1, 64), m.InStock, m.AdditionalFeatures)
}

// Seed writes the whole catalog to the vector index in batches, pausing
// between batches to stay under upstream rate limits. Records are upserted
// by derived id, so running it twice leaves the same set of ids.
func (s *RAGServiceImpl) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport

	listings, err := s.catalog.Listings(ctx)
	if err != nil {
		return report, fmt.Errorf("load catalog: %w", err)
	}
	if len(listings) == 0 {
		s.logger.Warn("catalog is empty, nothing to seed")
		return report, nil
	}

	contents := make([]string, len(listings))
	for i := range listings {
		listings[i].ID = ListingID(listings[i])
		contents[i] = ListingContent(listings[i])
	}
	if err := s.embedder.Prepare(contents); err != nil {
		return report, fmt.Errorf("prepare embedder: %w", err)
	}

	initialized := false
	for start := 0; start < len(listings); start += s.opts.SeedBatchSize {
		if start > 0 && s.opts.SeedBatchDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(s.opts.SeedBatchDelay):
			}
		}

		end := min(start+s.opts.SeedBatchSize, len(listings))
		records := make([]domain.Record, 0, end-start)
		for i := start; i < end; i++ {
			vec, err := s.embedder.Embed(ctx, contents[i])
			if err != nil {
				return report, fmt.Errorf("embed listing %q: %w", listings[i].NameEN, err)
			}
			if !initialized {
				if err := s.index.Init(ctx, len(vec)); err != nil {
					return report, fmt.Errorf("%w: init index: %w", domain.ErrRetrieval, err)
				}
				initialized = true
			}
			records = append(records, domain.Record{
				ID:       listings[i].ID,
				Content:  contents[i],
				Metadata: listings[i],
				Vector:   vec,
			})
		}
		if err := s.index.Upsert(ctx, records); err != nil {
			return report, fmt.Errorf("%w: upsert batch: %w", domain.ErrRetrieval, err)
		}

		report.Batches++
		report.Listings += len(records)
		for _, r := range records {
			report.IDs = append(report.IDs, r.ID)
		}
		s.logger.Info("stored laptop batch", "batch", report.Batches, "size", len(records))
	}

	s.logger.Info("all laptops stored", "listings", report.Listings, "batches", report.Batches)
	s.publish(events.EventCatalogSeeded, events.CatalogSeeded{
		Listings:  report.Listings,
		Batches:   report.Batches,
		Timestamp: time.Now().UTC(),
	})
	return report, nil
}
