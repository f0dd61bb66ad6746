// Package pipeline holds the two spreadsheet-driven batch jobs: the enricher
// that fills in sec_uid for Douyin handles and the collector that fetches
// profiles and posts for resolved accounts.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RavensCloud/douyin-gofun/internal/store"
)

// SecUIDResolver turns a handle into a sec_uid. ok is false for every kind
// of miss; the resolver logs the cause itself.
type SecUIDResolver interface {
	ResolveSecUID(ctx context.Context, handle string) (secUID string, ok bool)
}

// EnrichStats summarizes one enrichment pass.
type EnrichStats struct {
	Rows       int
	Matched    int // rows with a Douyin handle
	Skipped    int // matched rows that already had a sec_uid
	Resolved   int
	Unresolved int
}

// Enricher fills the douyin_user_sec_id column of an accounts sheet.
type Enricher struct {
	resolver SecUIDResolver
	log      zerolog.Logger
}

// NewEnricher returns an Enricher using resolver.
func NewEnricher(resolver SecUIDResolver, log zerolog.Logger) *Enricher {
	return &Enricher{resolver: resolver, log: log}
}

// Run resolves every Douyin row that has no sec_uid yet. Each resolved row
// is written back to input immediately, so an interrupted run resumes where
// it stopped. Only a missing Account column or an unreadable input aborts.
func (e *Enricher) Run(ctx context.Context, input store.Backend) (EnrichStats, error) {
	var stats EnrichStats

	e.log.Info().Str("path", input.Path()).Msg("reading accounts sheet")
	t, err := LoadInput(input, EnrichColumns...)
	if err != nil {
		return stats, err
	}
	if t.EnsureColumn(store.ColSecUID) {
		e.log.Info().Str("column", store.ColSecUID).Msg("created column")
	}

	stats.Rows = t.Len()
	var runErr error

	for i := 0; i < t.Len(); i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		account := t.Get(i, store.ColAccount)
		handle, ok := ExtractDouyinHandle(account)
		if !ok {
			continue
		}
		stats.Matched++

		log := e.log.With().Int("row", i+1).Str("handle", handle).Logger()
		if current := t.Get(i, store.ColSecUID); current != "" {
			stats.Skipped++
			log.Debug().Str("sec_uid", current).Msg("already resolved, skipping")
			continue
		}

		log.Info().Str("account", account).Msg("resolving")
		secUID, ok := e.resolver.ResolveSecUID(ctx, handle)
		if !ok {
			stats.Unresolved++
			log.Warn().Msg("sec_uid not found")
			continue
		}

		t.Set(i, store.ColSecUID, secUID)
		stats.Resolved++
		if err := input.Save(t); err != nil {
			log.Error().Err(err).Msg("checkpoint failed")
			continue
		}
		log.Info().Str("sec_uid", secUID).Msg("saved")
	}

	if err := input.Save(t); err != nil {
		return stats, errors.Join(runErr, fmt.Errorf("final save: %w", err))
	}
	e.log.Info().
		Int("rows", stats.Rows).
		Int("resolved", stats.Resolved).
		Int("unresolved", stats.Unresolved).
		Int("skipped", stats.Skipped).
		Msg("enrichment finished")
	return stats, runErr
}
