package structs

// Product is the subset of an Open Food Facts product record the scorer reads.
// Nutriments keeps raw JSON values since the upstream mixes numbers and strings.
type Product struct {
	Code             string                 `json:"code"`
	ProductName      string                 `json:"product_name"`
	ServingSize      string                 `json:"serving_size"`
	NutritionDataPer string                 `json:"nutrition_data_per"`
	Nutriments       map[string]interface{} `json:"nutriments"`
}
