package holdings

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/trogers1052/oms-service/internal/access"
	"github.com/trogers1052/oms-service/internal/metrics"
	"github.com/trogers1052/oms-service/internal/models"
)

// Source reads the asset catalog and trade ledger
type Source interface {
	ListAssets(ctx context.Context) ([]*models.Asset, error)
	ListTradesForAsset(ctx context.Context, assetID int) ([]*models.Trade, error)
}

// SnapshotReader runs fn against a single consistent read of the catalog and ledger
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, fn func(Source) error) error
}

// Service serves the holdings view
type Service struct {
	reader  SnapshotReader
	checker access.Checker
	log     zerolog.Logger
}

// NewService creates a new holdings Service
func NewService(reader SnapshotReader, checker access.Checker, log zerolog.Logger) *Service {
	return &Service{
		reader:  reader,
		checker: checker,
		log:     log.With().Str("component", "holdings").Logger(),
	}
}

// Holdings returns one holding per asset in the catalog
func (s *Service) Holdings(ctx context.Context, user *models.User) ([]models.Holding, error) {
	if err := s.checker.Require(user, models.ActionViewHoldings); err != nil {
		return nil, err
	}

	inputs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := ComputeAll(inputs)
	metrics.HoldingsComputeDuration.Observe(time.Since(start).Seconds())
	metrics.HoldingsAssets.Set(float64(len(result)))

	s.log.Debug().Int("assets", len(result)).Dur("elapsed", time.Since(start)).Msg("Computed holdings")
	return result, nil
}

func (s *Service) load(ctx context.Context) ([]Input, error) {
	var inputs []Input
	err := s.reader.ReadSnapshot(ctx, func(src Source) error {
		assets, err := src.ListAssets(ctx)
		if err != nil {
			return err
		}
		inputs = make([]Input, 0, len(assets))
		for _, a := range assets {
			trades, err := src.ListTradesForAsset(ctx, a.ID)
			if err != nil {
				return err
			}
			inputs = append(inputs, Input{Asset: a, Trades: trades})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings snapshot: %w", err)
	}
	return inputs, nil
}
