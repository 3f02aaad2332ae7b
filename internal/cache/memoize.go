package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"go.uber.org/zap"
)

const keyPrefix = "cashflow:projection:"

// Key hashes the inputs together with the window. encoding/json writes struct
// fields in declaration order, so equal inputs always hash alike.
func Key(inputs model.Inputs, opts forecast.Options) (string, error) {
	encoded, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("failed to encode inputs: %w", err)
	}
	start, _ := opts.Window()

	digest := xxhash.New()
	_, _ = digest.Write(encoded)
	_, _ = digest.WriteString("|" + strconv.Itoa(opts.Horizon()))
	_, _ = digest.WriteString("|" + start.Format(constants.DateLayout))
	return keyPrefix + strconv.FormatUint(digest.Sum64(), 16), nil
}

// Memoizer returns cached projections when the inputs and window are unchanged.
// A nil Repository disables caching. Cache failures are logged and the
// projection is computed anyway.
type Memoizer struct {
	repo   Repository
	ttl    time.Duration
	logger *zap.Logger
}

// NewMemoizer wraps repo. ttl of zero keeps entries until evicted.
func NewMemoizer(logger *zap.Logger, repo Repository, ttl time.Duration) *Memoizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memoizer{repo: repo, ttl: ttl, logger: logger}
}

// Projection returns the projection for inputs and opts, and whether it came
// from the cache.
func (m *Memoizer) Projection(ctx context.Context, inputs model.Inputs, opts forecast.Options) (model.CashflowProjection, bool) {
	if m.repo == nil {
		return forecast.GetProjection(m.logger, inputs, opts), false
	}

	key, err := Key(inputs, opts)
	if err != nil {
		m.logger.Warn("could not hash inputs",
			zap.String("op", "cache.Memoizer.Projection"),
			zap.Error(err),
		)
		return forecast.GetProjection(m.logger, inputs, opts), false
	}

	cached, err := m.repo.Get(ctx, key)
	switch {
	case err == nil:
		var projection model.CashflowProjection
		if err := json.Unmarshal(cached, &projection); err == nil {
			m.logger.Debug("projection cache hit",
				zap.String("op", "cache.Memoizer.Projection"),
				zap.String("key", key),
			)
			return projection, true
		}
		m.logger.Warn("discarding unreadable cache entry",
			zap.String("op", "cache.Memoizer.Projection"),
			zap.String("key", key),
		)
	case errors.Is(err, ErrMiss):
		m.logger.Debug("projection cache miss",
			zap.String("op", "cache.Memoizer.Projection"),
			zap.String("key", key),
		)
	default:
		m.logger.Warn("projection cache unavailable",
			zap.String("op", "cache.Memoizer.Projection"),
			zap.String("key", key),
			zap.Error(err),
		)
	}

	projection := forecast.GetProjection(m.logger, inputs, opts)
	encoded, err := json.Marshal(projection)
	if err == nil {
		err = m.repo.Set(ctx, key, encoded, m.ttl)
	}
	if err != nil {
		m.logger.Warn("could not cache projection",
			zap.String("op", "cache.Memoizer.Projection"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return projection, false
}
