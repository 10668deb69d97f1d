package structs

import "proteinrank-go-worker/enums"

// NutrientInput is the normalized per-100g macro input to scoring.
type NutrientInput struct {
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fiber         float64 `json:"fiber"`
}

// ScoreResult is a computed score with its display tier.
type ScoreResult struct {
	Score float64    `json:"score"`
	Tier  enums.Tier `json:"tier"`
}

// 給前端顯示用的商品資料
type ProductView struct {
	ProductName       string     `json:"product_name"`
	Score             string     `json:"score"`
	Tier              enums.Tier `json:"tier"`
	TierColor         string     `json:"tier_color"`
	Proteins100g      float64    `json:"proteins_100g"`
	Fat100g           float64    `json:"fat_100g"`
	Carbohydrates100g float64    `json:"carbohydrates_100g"`
	Fiber100g         float64    `json:"fiber_100g"`
	ServingDescriptor string     `json:"serving_descriptor"`
}

type ScoreView struct {
	Score     string     `json:"score"`
	Tier      enums.Tier `json:"tier"`
	TierColor string     `json:"tier_color"`
}
