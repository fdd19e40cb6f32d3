package demand

import "math"

// ---------------------------------------------------------------------------
// Demand Predictor
// ---------------------------------------------------------------------------

// Epsilon compensates for the ln(units + ε) transform applied to the
// zero-inflated training targets; the back-transform subtracts it again.
const Epsilon = 0.02

// DemandEstimate is the outcome of scoring one metrics snapshot. Alongside
// the back-transformed estimate it carries the raw log-scale prediction and
// the full feature snapshot for downstream auditability.
type DemandEstimate struct {
	// UnitsPerDay is the predicted daily unit velocity, never negative
	UnitsPerDay float64
	// LogScale is the raw linear predictor before back-transform
	LogScale float64
	// ModelVersion identifies the artifact that produced the estimate
	ModelVersion int
	// Features holds the raw log-transformed features
	Features FeatureVector
	// Standardized holds the features after scaling with the model's
	// training means and standard deviations
	Standardized FeatureVector
	// Debug is the extraction snapshot (raw inputs and derived values)
	Debug FeatureDebug
}

// Predict scores a metrics snapshot against a fitted model. Stateless and
// safe for concurrent use.
//
// A nil model returns ErrNoModel. A snapshot without a sales rank returns
// ErrMissingFeature together with a partial estimate whose Debug field holds
// the extraction snapshot for diagnostics. The estimate floors at zero: the
// back-transform exp(lp) − ε can dip slightly negative near zero true demand,
// and negative demand is meaningless.
func Predict(snap MetricsSnapshot, model *Model) (*DemandEstimate, error) {
	if model == nil {
		return nil, ErrNoModel
	}

	features, debug, err := ExtractFeatures(snap, model.MeanLnPrice())
	if err != nil {
		return &DemandEstimate{ModelVersion: model.Version, Debug: debug}, err
	}

	raw := features.Values()
	var standardized [FeatureCount]float64
	lp := model.Intercept
	for j := 0; j < FeatureCount; j++ {
		standardized[j] = (raw[j] - model.FeatureMeans[j]) / model.FeatureStds[j]
		lp += model.Coefficients[j] * standardized[j]
	}

	return &DemandEstimate{
		UnitsPerDay:  math.Max(0, math.Exp(lp)-Epsilon),
		LogScale:     lp,
		ModelVersion: model.Version,
		Features:     features,
		Standardized: FeatureVector{
			LnRank:  standardized[FeatureLnRank],
			LnOffer: standardized[FeatureLnOffer],
			LnPrice: standardized[FeatureLnPrice],
		},
		Debug: debug,
	}, nil
}
