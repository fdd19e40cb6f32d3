package brain

import (
	"context"

	"go.uber.org/zap"

	"github.com/opsconsole/backend/internal/domain/demand"
	"github.com/opsconsole/backend/internal/domain/listing"
)

// ---------------------------------------------------------------------------
// Model cache contract
// ---------------------------------------------------------------------------

// ModelCache caches the latest published model between predictions. It is an
// explicitly-owned, injected object: FitModel invalidates it when a new
// version is published, and there is no ambient global state.
type ModelCache interface {
	// Get returns the cached model, or nil on a miss
	Get() *demand.Model
	// Set stores the model
	Set(model *demand.Model)
	// Invalidate drops the cached model
	Invalidate()
}

// ---------------------------------------------------------------------------
// Brain Service
// ---------------------------------------------------------------------------

// Service is the intelligence boundary of the operations console: identity
// resolution of marketplace listings against the listing memory store, and
// demand calibration over marketplace signals. Resolution and prediction are
// stateless per call and safe for concurrent use; Supersede serializes
// through the store's atomic conditional update.
type Service struct {
	entries  listing.MemoryEntryRepository
	models   demand.ModelRepository
	cache    ModelCache
	resolver *listing.Resolver
	trainer  *demand.Trainer
	logger   *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTrainer replaces the default trainer (e.g. to change the holdout residue).
func WithTrainer(trainer *demand.Trainer) ServiceOption {
	return func(s *Service) {
		s.trainer = trainer
	}
}

// NewService creates the brain service.
func NewService(entries listing.MemoryEntryRepository, models demand.ModelRepository, cache ModelCache, opts ...ServiceOption) *Service {
	s := &Service{
		entries:  entries,
		models:   models,
		cache:    cache,
		resolver: listing.NewResolver(entries),
		trainer:  demand.NewTrainer(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveListing normalizes the raw identifiers of an order line and resolves
// them against the listing memory store. Conflict and NoMatch come back as
// result variants for the caller to branch on; only an unusable identifier
// set is an error.
func (s *Service) ResolveListing(ctx context.Context, req ResolveListingRequest) (*listing.ResolutionResult, error) {
	ids := listing.Identifiers{
		MarketplaceCode:  listing.NormalizeMarketplaceCode(req.MarketplaceCode),
		SellerCode:       listing.NormalizeSellerCode(req.SellerCode),
		TitleFingerprint: listing.FingerprintTitle(req.RawTitle),
	}

	result, err := s.resolver.Resolve(ctx, ids)
	if err != nil {
		s.logger.Warn("listing resolution failed",
			zap.String("marketplace_code", ids.MarketplaceCode),
			zap.String("seller_code", ids.SellerCode),
			zap.Error(err))
		return nil, err
	}

	switch result.Outcome {
	case listing.OutcomeResolved:
		s.logger.Info("listing resolved",
			zap.String("marketplace_code", ids.MarketplaceCode),
			zap.String("method", result.Method.String()),
			zap.String("target_bom_id", result.TargetBOMID.String()))
	case listing.OutcomeConflict:
		s.logger.Warn("listing resolution conflict",
			zap.String("marketplace_code", ids.MarketplaceCode),
			zap.String("seller_code", ids.SellerCode),
			zap.Int("candidates", len(result.Candidates)))
	case listing.OutcomeNoMatch:
		s.logger.Debug("listing resolution no match",
			zap.String("marketplace_code", ids.MarketplaceCode),
			zap.String("seller_code", ids.SellerCode))
	}

	return result, nil
}

// Supersede replaces a confirmed mapping: the old entry is deactivated and a
// new active entry is created in one store transaction, so callers never
// observe a partial supersession.
func (s *Service) Supersede(ctx context.Context, req SupersedeRequest) (*SupersedeResponse, error) {
	deactivated, created, err := s.resolver.Supersede(ctx, req.OldEntryID, req.NewTargetBOMID, req.NewMethod)
	if err != nil {
		s.logger.Warn("supersession failed",
			zap.String("old_entry_id", req.OldEntryID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("memory entry superseded",
		zap.String("old_entry_id", deactivated.ID.String()),
		zap.String("new_entry_id", created.ID.String()),
		zap.String("target_bom_id", req.NewTargetBOMID.String()),
		zap.String("method", created.Method.String()))

	return &SupersedeResponse{Deactivated: deactivated, Created: created}, nil
}

// PredictDemand scores a metrics snapshot against a published model. A nil
// ModelVersion selects the latest model, served from the injected cache when
// warm.
func (s *Service) PredictDemand(ctx context.Context, req PredictDemandRequest) (*demand.DemandEstimate, error) {
	model, err := s.loadModel(ctx, req.ModelVersion)
	if err != nil {
		return nil, err
	}

	estimate, err := demand.Predict(req.Metrics, model)
	if err != nil {
		s.logger.Warn("demand prediction failed",
			zap.String("marketplace_code", req.Metrics.MarketplaceCode),
			zap.Int("model_version", model.Version),
			zap.Error(err))
		return estimate, err
	}

	s.logger.Debug("demand predicted",
		zap.String("marketplace_code", req.Metrics.MarketplaceCode),
		zap.Int("model_version", estimate.ModelVersion),
		zap.Float64("units_per_day", estimate.UnitsPerDay))
	return estimate, nil
}

// FitModel fits a new calibration model over the supplied training rows and
// publishes it as the next version. Inference keeps serving the previous
// version until the save completes; the cache is invalidated afterwards so
// the next prediction picks up the new artifact.
func (s *Service) FitModel(ctx context.Context, rows []demand.TrainingRow, lambda float64) (*demand.Model, error) {
	model, err := s.trainer.Fit(rows, lambda)
	if err != nil {
		s.logger.Error("model fit failed",
			zap.Int("rows", len(rows)),
			zap.Float64("lambda", lambda),
			zap.Error(err))
		return nil, err
	}

	if err := s.models.Save(ctx, model); err != nil {
		return nil, err
	}
	s.cache.Invalidate()

	s.logger.Info("model fitted",
		zap.Int("version", model.Version),
		zap.Int("training_rows", model.TrainingRows),
		zap.Int("holdout_rows", model.HoldoutRows),
		zap.Float64("holdout_rmse", model.HoldoutRMSE),
		zap.Float64("lambda", lambda))
	return model, nil
}

// loadModel selects the model to score with: an explicit version bypasses
// the cache, the latest goes through it.
func (s *Service) loadModel(ctx context.Context, version *int) (*demand.Model, error) {
	if version != nil {
		return s.models.LoadVersion(ctx, *version)
	}

	if model := s.cache.Get(); model != nil {
		return model, nil
	}
	model, err := s.models.LoadLatest(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(model)
	return model, nil
}
