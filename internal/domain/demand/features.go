package demand

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Feature Extraction
// ---------------------------------------------------------------------------

// MetricsSnapshot is one observation of a listing's marketplace signals,
// supplied by the ingestion collaborators. SalesRank is required for
// prediction; OfferCount and PriceMinorUnits may be absent.
type MetricsSnapshot struct {
	// MarketplaceCode identifies the listing (also keys the holdout split)
	MarketplaceCode string
	// SalesRank is the marketplace sales rank at capture time
	SalesRank *int64
	// OfferCount is the number of competing offers, if known
	OfferCount *int64
	// PriceMinorUnits is the listing price in minor currency units, if known
	PriceMinorUnits *int64
	// CapturedAt is when the snapshot was taken
	CapturedAt time.Time
}

// FeatureVector is one row of log-transformed features for a listing at one
// point in time. Transient; never persisted.
type FeatureVector struct {
	LnRank  float64
	LnOffer float64
	LnPrice float64
}

// Values returns the features in persisted coefficient order.
func (f FeatureVector) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{
		FeatureLnRank:  f.LnRank,
		FeatureLnOffer: f.LnOffer,
		FeatureLnPrice: f.LnPrice,
	}
}

// FeatureDebug records the raw inputs and derived values of one extraction.
// It is a required output of extraction and prediction (not just a log line)
// so downstream consumers can audit any estimate.
type FeatureDebug struct {
	MarketplaceCode string `json:"marketplace_code,omitempty"`
	SalesRank       *int64 `json:"sales_rank"`
	OfferCount      *int64 `json:"offer_count"`
	PriceMinorUnits *int64 `json:"price_minor_units"`

	LnRank       float64 `json:"ln_rank"`
	LnOffer      float64 `json:"ln_offer"`
	LnPrice      float64 `json:"ln_price"`
	PriceImputed bool    `json:"price_imputed"`
}

// rankOffset dampens the log transform for top-ranked listings; without it
// rank 1 and rank 50 would be half the feature space apart.
const rankOffset = 100

// ExtractFeatures converts a metrics snapshot into the regression feature
// space. meanLnPrice is the training-set mean stored on the model, substituted
// when the price is absent so missing-price listings are not biased toward the
// origin. The debug snapshot is returned even when extraction fails.
func ExtractFeatures(snap MetricsSnapshot, meanLnPrice float64) (FeatureVector, FeatureDebug, error) {
	debug := FeatureDebug{
		MarketplaceCode: snap.MarketplaceCode,
		SalesRank:       snap.SalesRank,
		OfferCount:      snap.OfferCount,
		PriceMinorUnits: snap.PriceMinorUnits,
	}

	if snap.SalesRank == nil {
		return FeatureVector{}, debug, ErrMissingFeature
	}

	var offers int64
	if snap.OfferCount != nil {
		offers = *snap.OfferCount
	}

	features := FeatureVector{
		LnRank:  math.Log(float64(*snap.SalesRank) + rankOffset),
		LnOffer: math.Log(float64(offers) + 1),
	}

	if snap.PriceMinorUnits != nil {
		price := decimal.NewFromInt(*snap.PriceMinorUnits).Div(decimal.NewFromInt(100))
		features.LnPrice = math.Log(price.InexactFloat64() + 1)
	} else {
		features.LnPrice = meanLnPrice
		debug.PriceImputed = true
	}

	debug.LnRank = features.LnRank
	debug.LnOffer = features.LnOffer
	debug.LnPrice = features.LnPrice
	return features, debug, nil
}
