// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package diversify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend/reranking"
)

// Default pass options, applied to zero-valued fields.
const (
	DefaultTotalCount        = 8
	DefaultHighAffinityCount = 3
	DefaultLambda            = 0.7
)

// ErrNoEntities is returned for a request without entities.
var ErrNoEntities = errors.New("entities array is required")

// Result is one diversification pass with its metrics.
type Result struct {
	Diversified   []recommend.RawEntity       `json:"diversified_recommendations"`
	Metrics       *reranking.DiversityMetrics `json:"diversity_metrics"`
	TotalOriginal int                         `json:"total_original"`
	TotalSelected int                         `json:"total_selected"`
}

// WithDefaults fills unset options with the defaults. Counts are unset when
// not positive; lambda only when negative, since 0 selects pure diversity.
func WithDefaults(o recommend.DiversifyOptions) recommend.DiversifyOptions {
	if o.TotalCount <= 0 {
		o.TotalCount = DefaultTotalCount
	}
	if o.HighAffinityCount <= 0 {
		o.HighAffinityCount = DefaultHighAffinityCount
	}
	if o.Lambda < 0 {
		o.Lambda = DefaultLambda
	}
	return o
}

// Local runs the MMR diversification in process. It backs the standalone
// diversifier server and is used directly when no remote URL is configured.
type Local struct {
	logger zerolog.Logger
}

// NewLocal creates an in-process diversifier.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLocal(logger zerolog.Logger) *Local {
	return &Local{logger: logger.With().Str("component", "diversify").Logger()}
}

// Run diversifies req.Entities and computes diversity metrics of the selection.
func (l *Local) Run(ctx context.Context, req *recommend.DiversifyRequest) (*Result, error) {
	if len(req.Entities) == 0 {
		return nil, ErrNoEntities
	}
	start := time.Now()
	opts := WithDefaults(req.Options)

	selected := reranking.Diversify(ctx, req.Entities, req.UserPreferences, req.Interactions, opts)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("diversification interrupted: %w", err)
	}

	l.logger.Debug().
		Int("input", len(req.Entities)).
		Int("selected", len(selected)).
		Int("interactions", len(req.Interactions)).
		Dur("duration", time.Since(start)).
		Msg("diversification pass")

	return &Result{
		Diversified:   selected,
		Metrics:       reranking.AnalyzeDiversity(selected),
		TotalOriginal: len(req.Entities),
		TotalSelected: len(selected),
	}, nil
}

// Diversify implements recommend.Diversifier.
func (l *Local) Diversify(ctx context.Context, req *recommend.DiversifyRequest) ([]recommend.RawEntity, error) {
	res, err := l.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Diversified, nil
}

var _ recommend.Diversifier = (*Local)(nil)
