package models

import "time"

type ScanScore struct {
	ID                int64      `gorm:"column:id;primary_key" json:"id"`
	TaskID            uint       `gorm:"column:task_id" json:"task_id"`
	Barcode           string     `gorm:"column:barcode" json:"barcode"`
	Found             bool       `gorm:"column:found" json:"found"`
	ProductName       string     `gorm:"column:product_name" json:"product_name"`
	Protein           float64    `gorm:"column:protein" json:"protein"`
	Fat               float64    `gorm:"column:fat" json:"fat"`
	Carbohydrates     float64    `gorm:"column:carbohydrates" json:"carbohydrates"`
	Fiber             float64    `gorm:"column:fiber" json:"fiber"`
	Score             float64    `gorm:"column:score" json:"score"`
	Tier              string     `gorm:"column:tier" json:"tier"`
	ServingDescriptor string     `gorm:"column:serving_descriptor" json:"serving_descriptor"`
	Version           int64      `gorm:"column:version" json:"version"`
	CreatedAt         *time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName sets the insert table name for this struct type
func (s *ScanScore) TableName() string {
	return "scan_scores"
}
