package pricing

import (
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"marketplace/pkg/errors"
)

// Tables holds every constant the pricing agent applies. The weights are
// hand-tuned and can be overridden from a YAML file without a rebuild.
type Tables struct {
	// Depreciation is the fractional value lost per month, by category
	Depreciation        map[string]float64 `yaml:"depreciation"`
	DefaultDepreciation float64            `yaml:"default_depreciation"`

	// Brands lists value-retention multipliers; presence marks a brand as known
	Brands       map[string]float64 `yaml:"brands"`
	DefaultBrand float64            `yaml:"default_brand"`

	Locations       map[string]float64 `yaml:"locations"`
	DefaultLocation float64            `yaml:"default_location"`

	Conditions       map[string]float64 `yaml:"conditions"`
	DefaultCondition float64            `yaml:"default_condition"`

	Fraud      FraudWeights      `yaml:"fraud"`
	Confidence ConfidenceWeights `yaml:"confidence"`
}

// FraudWeights drives fraud indicator scoring
type FraudWeights struct {
	LowPrice          float64  `yaml:"low_price"`
	LowPriceSigmas    float64  `yaml:"low_price_sigmas"`
	HighPrice         float64  `yaml:"high_price"`
	HighPriceSigmas   float64  `yaml:"high_price_sigmas"`
	OldAge            float64  `yaml:"old_age"`
	OldAgeMonths      float64  `yaml:"old_age_months"`
	PremiumLowPrice   float64  `yaml:"premium_low_price"`
	PremiumBrands     []string `yaml:"premium_brands"`
	PremiumPriceFloor float64  `yaml:"premium_price_floor"`
	LikeNewAged       float64  `yaml:"like_new_aged"`
	LikeNewMaxAge     float64  `yaml:"like_new_max_age"`
	HighRisk          float64  `yaml:"high_risk"`
	MediumRisk        float64  `yaml:"medium_risk"`
}

// ConfidenceWeights drives the locally computed confidence score
type ConfidenceWeights struct {
	Base             float64 `yaml:"base"`
	ManyComparables  float64 `yaml:"many_comparables"`
	ManyThreshold    int     `yaml:"many_threshold"`
	SomeComparables  float64 `yaml:"some_comparables"`
	SomeThreshold    int     `yaml:"some_threshold"`
	FewComparables   float64 `yaml:"few_comparables"`
	KnownBrand       float64 `yaml:"known_brand"`
	ReasonableAge    float64 `yaml:"reasonable_age"`
	MaxReasonableAge float64 `yaml:"max_reasonable_age"`
	Complete         float64 `yaml:"complete"`
}

// DefaultTables returns the built-in pricing tables
func DefaultTables() Tables {
	return Tables{
		Depreciation: map[string]float64{
			"Mobile":      0.05,
			"Laptop":      0.04,
			"Electronics": 0.03,
			"Camera":      0.02,
			"Fashion":     0.08,
			"Furniture":   0.01,
		},
		DefaultDepreciation: 0.03,
		Brands: map[string]float64{
			"Apple":   1.2,
			"Samsung": 1.1,
			"Sony":    1.1,
			"Canon":   1.1,
			"Nike":    1.05,
			"Adidas":  1.05,
		},
		DefaultBrand: 1.0,
		Locations: map[string]float64{
			"Mumbai":    1.15,
			"Delhi":     1.10,
			"Bangalore": 1.12,
			"Chennai":   1.08,
			"Pune":      1.06,
			"Hyderabad": 1.04,
		},
		DefaultLocation: 1.0,
		Conditions: map[string]float64{
			"Like New": 0.85,
			"Good":     0.70,
			"Fair":     0.55,
		},
		DefaultCondition: 0.70,
		Fraud: FraudWeights{
			LowPrice:          0.3,
			LowPriceSigmas:    2,
			HighPrice:         0.2,
			HighPriceSigmas:   3,
			OldAge:            0.1,
			OldAgeMonths:      120,
			PremiumLowPrice:   0.4,
			PremiumBrands:     []string{"Apple", "Samsung"},
			PremiumPriceFloor: 5000,
			LikeNewAged:       0.2,
			LikeNewMaxAge:     36,
			HighRisk:          0.6,
			MediumRisk:        0.3,
		},
		Confidence: ConfidenceWeights{
			Base:             0.5,
			ManyComparables:  0.3,
			ManyThreshold:    10,
			SomeComparables:  0.2,
			SomeThreshold:    5,
			FewComparables:   0.1,
			KnownBrand:       0.1,
			ReasonableAge:    0.1,
			MaxReasonableAge: 60,
			Complete:         0.1,
		},
	}
}

// LoadTables reads overrides from a YAML file on top of DefaultTables.
// Map entries are merged; scalar fields present in the file replace the default.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, errors.Wrapf(err, "failed to read pricing tables %s", path)
	}

	if err := yaml.Unmarshal(data, &tables); err != nil {
		return tables, errors.Wrapf(err, "failed to parse pricing tables %s", path)
	}

	if err := tables.Validate(); err != nil {
		return tables, err
	}

	return tables, nil
}

// Validate checks that rates and multipliers are usable
func (t Tables) Validate() error {
	for category, rate := range t.Depreciation {
		if !validRate(rate) {
			return errors.NewValidationError("depreciation."+category, "must be in [0, 1)", rate)
		}
	}
	if !validRate(t.DefaultDepreciation) {
		return errors.NewValidationError("default_depreciation", "must be in [0, 1)", t.DefaultDepreciation)
	}

	multipliers := map[string]map[string]float64{
		"brands":     t.Brands,
		"locations":  t.Locations,
		"conditions": t.Conditions,
	}
	for section, values := range multipliers {
		for key, v := range values {
			if !validMultiplier(v) {
				return errors.NewValidationError(section+"."+key, "must be positive", v)
			}
		}
	}

	defaults := map[string]float64{
		"default_brand":     t.DefaultBrand,
		"default_location":  t.DefaultLocation,
		"default_condition": t.DefaultCondition,
	}
	for field, v := range defaults {
		if !validMultiplier(v) {
			return errors.NewValidationError(field, "must be positive", v)
		}
	}

	return nil
}

// DepreciationRate returns the monthly depreciation fraction for category
func (t Tables) DepreciationRate(category string) float64 {
	if rate, ok := t.Depreciation[category]; ok {
		return rate
	}
	return t.DefaultDepreciation
}

// BrandMultiplier returns the value-retention multiplier for brand
func (t Tables) BrandMultiplier(brand string) float64 {
	if m, ok := t.Brands[brand]; ok {
		return m
	}
	return t.DefaultBrand
}

// KnownBrand reports whether brand has its own multiplier
func (t Tables) KnownBrand(brand string) bool {
	_, ok := t.Brands[brand]
	return ok
}

// LocationMultiplier returns the regional price adjustment for location
func (t Tables) LocationMultiplier(location string) float64 {
	if m, ok := t.Locations[location]; ok {
		return m
	}
	return t.DefaultLocation
}

// ConditionMultiplier returns the share of value kept for condition
func (t Tables) ConditionMultiplier(condition string) float64 {
	if m, ok := t.Conditions[condition]; ok {
		return m
	}
	return t.DefaultCondition
}

func validRate(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v < 1
}

func validMultiplier(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
