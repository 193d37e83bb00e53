package listing

// Condition is the seller-declared item condition
type Condition string

const (
	ConditionLikeNew Condition = "Like New"
	ConditionGood    Condition = "Good"
	ConditionFair    Condition = "Fair"
)

// Valid reports whether c is one of the accepted conditions
func (c Condition) Valid() bool {
	switch c {
	case ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	default:
		return false
	}
}

// Conditions lists accepted conditions in display order
func Conditions() []Condition {
	return []Condition{ConditionLikeNew, ConditionGood, ConditionFair}
}

// Listing is a past marketplace listing used as a price comparable
type Listing struct {
	ID          int64   `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Category    string  `db:"category" json:"category"`
	Brand       string  `db:"brand" json:"brand"`
	Condition   string  `db:"condition" json:"condition"`
	AgeMonths   float64 `db:"age_months" json:"age_months"`
	AskingPrice float64 `db:"asking_price" json:"asking_price"`
	Location    string  `db:"location" json:"location"`
}

// CategoryStats aggregates asking prices of one category.
// StdevPrice is the sample standard deviation and is 0 when Count < 2.
type CategoryStats struct {
	Category     string  `json:"category"`
	Count        int     `json:"count"`
	AvgPrice     float64 `json:"avg_price"`
	StdevPrice   float64 `json:"stdev_price"`
	MedianPrice  float64 `json:"median_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	AvgAgeMonths float64 `json:"avg_age_months"`
}

// HasSpread reports whether StdevPrice is defined
func (s CategoryStats) HasSpread() bool {
	return s.Count >= 2
}

// Trend classifies how price moves with age for a category and brand
type Trend string

const (
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendVariable         Trend = "variable"
	TrendInsufficientData Trend = "insufficient_data"
)

// PriceTrend is the age/price correlation for a category and brand
type PriceTrend struct {
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Trend       Trend   `json:"trend"`
	Correlation float64 `json:"correlation"`
	SampleSize  int     `json:"sample_size"`
}
