package scan

import (
	"proteinrank-go-worker/models"

	"github.com/jinzhu/gorm"
	gormbulk "github.com/t-tiger/gorm-bulk-insert/v2"
)

// RecordStore persists the outcome of one batch job.
type RecordStore interface {
	SaveScanScores(records []models.ScanScore, activityLog models.ActivityLog) error
}

type GormStore struct {
	DB *gorm.DB
}

// SaveScanScores 在同一個交易內批次寫入分數與執行紀錄
func (g GormStore) SaveScanScores(records []models.ScanScore, activityLog models.ActivityLog) error {
	tx := g.DB.Begin()
	if err := tx.Error; err != nil {
		return err
	}

	var insertRecords []interface{}
	for _, record := range records {
		insertRecords = append(insertRecords, record)
	}

	// 批次 insert
	if len(insertRecords) > 0 {
		if err := gormbulk.BulkInsert(tx, insertRecords, 3000); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Create(&activityLog).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
