// Package scorer computes the protein ratio score of a food and its display tier.
//
// Every function here is pure. Missing or malformed nutrient values are treated as
// zero grams and degenerate ratios score 0, so nothing in this package returns an error.
package scorer

import (
	"encoding/json"
	"math"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/structs"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Open Food Facts nutriment keys, grams per 100g.
const (
	ProteinKey       = "proteins_100g"
	FatKey           = "fat_100g"
	CarbohydratesKey = "carbohydrates_100g"
	FiberKey         = "fiber_100g"
)

// Normalize returns raw as grams, or 0 when raw is absent or not a finite number.
// Numeric strings are accepted; negative and out-of-range values pass through.
func Normalize(raw interface{}) float64 {
	var value float64
	switch v := raw.(type) {
	case nil, bool:
		return 0
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		value = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		value = f
	default:
		// 其餘整數與浮點數型別
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return 0
		}
		value = f
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// ComputeScore returns protein / (fat + carbohydrates - fiber) rounded to one decimal,
// half away from zero. A non-positive denominator or a non-finite or negative ratio
// scores 0.
func ComputeScore(protein, fat, carbohydrates, fiber float64) float64 {
	denominator := fat + carbohydrates - fiber
	if !(denominator > 0) {
		return 0
	}
	raw := protein / denominator
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return 0
	}
	score, _ := decimal.NewFromFloat(raw).Round(1).Float64()
	return score
}

// ClassifyTier maps a score onto LOW (<1), MEDIUM ([1,2)) or HIGH (>=2).
func ClassifyTier(score float64) enums.Tier {
	switch {
	case math.IsNaN(score) || score < 1:
		return enums.TierLow
	case score < 2:
		return enums.TierMedium
	default:
		return enums.TierHigh
	}
}

// TierColor is the display color of a tier.
func TierColor(tier enums.Tier) string {
	switch tier {
	case enums.TierHigh:
		return enums.HighScoreColor
	case enums.TierMedium:
		return enums.MediumScoreColor
	default:
		return enums.LowScoreColor
	}
}

// ExtractNutrients reads the four macros from a product's nutriments, defaulting each
// missing or malformed field to 0.
func ExtractNutrients(product *structs.Product) structs.NutrientInput {
	if product == nil || product.Nutriments == nil {
		return structs.NutrientInput{}
	}
	n := product.Nutriments
	return structs.NutrientInput{
		Protein:       Normalize(n[ProteinKey]),
		Fat:           Normalize(n[FatKey]),
		Carbohydrates: Normalize(n[CarbohydratesKey]),
		Fiber:         Normalize(n[FiberKey]),
	}
}

// Evaluate scores an input and classifies it.
func Evaluate(input structs.NutrientInput) structs.ScoreResult {
	score := ComputeScore(input.Protein, input.Fat, input.Carbohydrates, input.Fiber)
	return structs.ScoreResult{
		Score: score,
		Tier:  ClassifyTier(score),
	}
}

// FormatScore renders a score with exactly one decimal, e.g. "2.0".
func FormatScore(score float64) string {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return "0.0"
	}
	return decimal.NewFromFloat(score).StringFixed(1)
}

// View is the presentation form of a score result.
func View(result structs.ScoreResult) structs.ScoreView {
	return structs.ScoreView{
		Score:     FormatScore(result.Score),
		Tier:      result.Tier,
		TierColor: TierColor(result.Tier),
	}
}
