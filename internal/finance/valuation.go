package finance

import "math"

const (
	revenueMultiple   = 8.2
	bedroomValue      = 15000.0
	bathroomValue     = 8000.0
	valuePer100Sqft   = 500.0
	ratingValue       = 25000.0 // at 5 stars
	valuePerReview    = 300.0
	reviewsValueCap   = 15000.0
	maxStarRating     = 5.0
	scoreRevenueFull  = 60000.0 // revenue earning the full revenue score
	scoreReviewsFull  = 50.0
	scoreAmenityFull  = 15.0
	scoreOccupancyMax = 25.0
	scoreRevenueMax   = 25.0
	scoreRatingMax    = 15.0
	scoreReviewsMax   = 10.0
	scoreAmenityMax   = 25.0

	maxRooms      = 1e6
	maxSquareFeet = 1e9
)

// ValuationInputs describe a property for the valuation estimator.
type ValuationInputs struct {
	Bedrooms            float64  `json:"bedrooms"`
	Bathrooms           float64  `json:"bathrooms"`
	SquareFeet          int      `json:"square_feet"`
	AnnualRevenue       float64  `json:"annual_revenue"`
	AvgOccupancyPercent float64  `json:"avg_occupancy_percent"`
	StarRating          float64  `json:"star_rating"`
	NumReviews          int      `json:"num_reviews"`
	Amenities           []string `json:"amenities"`
}

// ValuationBreakdown itemises the components of an estimated value.
type ValuationBreakdown struct {
	BaseValue      float64 `json:"base_value"`
	BedroomBonus   float64 `json:"bedroom_bonus"`
	BathroomBonus  float64 `json:"bathroom_bonus"`
	SqftBonus      float64 `json:"sqft_bonus"`
	AmenitiesBonus float64 `json:"amenities_bonus"`
	RatingBonus    float64 `json:"rating_bonus"`
	ReviewsBonus   float64 `json:"reviews_bonus"`
}

// Total sums every component.
func (b ValuationBreakdown) Total() float64 {
	return b.BaseValue + b.BedroomBonus + b.BathroomBonus + b.SqftBonus +
		b.AmenitiesBonus + b.RatingBonus + b.ReviewsBonus
}

// ScoreBreakdown itemises the composite score.
type ScoreBreakdown struct {
	Occupancy float64 `json:"occupancy"`
	Revenue   float64 `json:"revenue"`
	Rating    float64 `json:"rating"`
	Reviews   float64 `json:"reviews"`
	Amenities float64 `json:"amenities"`
}

// Valuation is the result of Estimate.
// MarketMultiplier is nil without revenue and CapRate is nil without value.
type Valuation struct {
	EstimatedValue   float64            `json:"estimated_value"`
	MarketMultiplier *float64           `json:"market_multiplier"`
	CapRate          *float64           `json:"cap_rate"`
	CompositeScore   float64            `json:"composite_score"`
	Breakdown        ValuationBreakdown `json:"breakdown"`
	Score            ScoreBreakdown     `json:"score"`
	AmenityCounts    map[string]int     `json:"amenity_counts"`
	AmenityCount     int                `json:"amenity_count"`
}

// normalized clamps inputs into the ranges the model is defined on.
func (in ValuationInputs) normalized() ValuationInputs {
	in.Bedrooms = math.Min(nonNegative(in.Bedrooms), maxRooms)
	in.Bathrooms = math.Min(nonNegative(in.Bathrooms), maxRooms)
	in.AnnualRevenue = math.Min(nonNegative(in.AnnualRevenue), MaxAmount)
	in.AvgOccupancyPercent = clamp(in.AvgOccupancyPercent, 0, 100)
	in.StarRating = clamp(in.StarRating, 0, maxStarRating)
	if in.SquareFeet < 0 {
		in.SquareFeet = 0
	}
	if in.SquareFeet > maxSquareFeet {
		in.SquareFeet = maxSquareFeet
	}
	if in.NumReviews < 0 {
		in.NumReviews = 0
	}
	return in
}

// Estimate values a property with the weighted additive model.
// Out-of-range inputs are clamped (dollar amounts to MaxAmount), so the
// value is always finite. A ratio that would not be finite is nil.
func Estimate(in ValuationInputs) Valuation {
	in = in.normalized()

	amenitiesBonus, counts, recognized := scoreAmenities(in.Amenities)

	b := ValuationBreakdown{
		BaseValue:      in.AnnualRevenue * revenueMultiple,
		BedroomBonus:   in.Bedrooms * bedroomValue,
		BathroomBonus:  in.Bathrooms * bathroomValue,
		SqftBonus:      float64(in.SquareFeet) / 100 * valuePer100Sqft,
		AmenitiesBonus: amenitiesBonus,
		RatingBonus:    in.StarRating / maxStarRating * ratingValue,
		ReviewsBonus:   math.Min(float64(in.NumReviews)*valuePerReview, reviewsValueCap),
	}

	v := Valuation{
		EstimatedValue: math.Round(b.Total()),
		Breakdown:      b,
		AmenityCounts:  counts,
		AmenityCount:   recognized,
	}

	if in.AnnualRevenue > 0 {
		v.MarketMultiplier = finiteRatio(v.EstimatedValue / in.AnnualRevenue)
	}
	if v.EstimatedValue > 0 {
		v.CapRate = finiteRatio(in.AnnualRevenue / v.EstimatedValue * 100)
	}

	v.Score = ScoreBreakdown{
		Occupancy: in.AvgOccupancyPercent / 100 * scoreOccupancyMax,
		Revenue:   math.Min(in.AnnualRevenue/scoreRevenueFull*scoreRevenueMax, scoreRevenueMax),
		Rating:    in.StarRating / maxStarRating * scoreRatingMax,
		Reviews:   math.Min(float64(in.NumReviews)/scoreReviewsFull*scoreReviewsMax, scoreReviewsMax),
		Amenities: math.Min(float64(recognized)/scoreAmenityFull*scoreAmenityMax, scoreAmenityMax),
	}
	v.CompositeScore = round1(v.Score.Occupancy + v.Score.Revenue + v.Score.Rating +
		v.Score.Reviews + v.Score.Amenities)

	return v
}

// finiteRatio rounds f to one decimal, or returns nil when f is not finite.
func finiteRatio(f float64) *float64 {
	r := round1(f)
	if !finite(r) {
		return nil
	}
	return &r
}

func nonNegative(f float64) float64 {
	if !finite(f) || f < 0 {
		return 0
	}
	return f
}

func clamp(f, lo, hi float64) float64 {
	if math.IsNaN(f) || f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
