// Package fetch retrieves every Fi tool concurrently for one refresh.
package fetch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
	"github.com/bobmcallan/fidash/internal/models"
)

// Fetcher fans out one retrieval per tool and joins on all of them.
type Fetcher struct {
	gateway interfaces.Gateway
	tools   []models.ToolName
	timeout time.Duration
	logger  *common.Logger
}

// NewFetcher creates a Fetcher over models.AllTools. A zero timeout leaves
// each retrieval bounded only by the caller's context.
func NewFetcher(gateway interfaces.Gateway, timeout time.Duration, logger *common.Logger) *Fetcher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Fetcher{
		gateway: gateway,
		tools:   models.AllTools,
		timeout: timeout,
		logger:  logger,
	}
}

// FetchAll never fails: each tool's error, timeout or panic becomes that
// tool's failure marker and the other slots are unaffected.
func (f *Fetcher) FetchAll(ctx context.Context) models.RawToolBundle {
	results := make([]models.ToolResult, len(f.tools))

	var g errgroup.Group
	for i, tool := range f.tools {
		g.Go(func() error {
			results[i] = f.retrieve(ctx, tool)
			return nil
		})
	}
	_ = g.Wait()

	bundle := make(models.RawToolBundle, len(f.tools))
	failed := 0
	for i, tool := range f.tools {
		bundle[tool] = results[i]
		if results[i].Failed() {
			failed++
		}
	}

	f.logger.Debug().
		Str("gateway", f.gateway.Name()).
		Int("tools", len(f.tools)).
		Int("failed", failed).
		Msg("Fetch complete")

	return bundle
}

func (f *Fetcher) retrieve(ctx context.Context, tool models.ToolName) (res models.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().Str("tool", string(tool)).Interface("panic", r).Msg("Gateway panicked")
			res = models.ToolResult{Err: fmt.Errorf("%w: %s panicked: %v", models.ErrSourceUnavailable, tool, r)}
		}
	}()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := f.gateway.Retrieve(ctx, tool)
	if err != nil {
		f.logger.Warn().Str("tool", string(tool)).Err(err).Dur("elapsed", time.Since(start)).Msg("Tool retrieval failed")
		return models.ToolResult{Err: err}
	}
	if len(raw) == 0 {
		return models.ToolResult{Err: fmt.Errorf("%w: %s returned an empty payload", models.ErrSourceUnavailable, tool)}
	}

	f.logger.Debug().Str("tool", string(tool)).Int("bytes", len(raw)).Dur("elapsed", time.Since(start)).Msg("Tool retrieved")
	return models.ToolResult{Raw: raw}
}
