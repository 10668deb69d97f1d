package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/models"
	"proteinrank-go-worker/services"
	"proteinrank-go-worker/services/display"
	"proteinrank-go-worker/services/lookup"
	"proteinrank-go-worker/services/metrics"
	"proteinrank-go-worker/services/scorer"
	"proteinrank-go-worker/services/trackLog"
	"proteinrank-go-worker/structs"
	"proteinrank-go-worker/utils"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanBatchService 處理 scan queue 的一個 task：查詢每個條碼、計算分數、寫入資料庫並回呼
type ScanBatchService struct {
	sync.Mutex
	scanQueueParam structs.ScanQueueParam
	Errors         []structs.ErrorModel

	Fetcher     lookup.Fetcher
	Store       RecordStore
	Concurrency int
	// Notify 預設呼叫 JobDoneNotify
	Notify func(ctx context.Context, param structs.ScanQueueParam) error

	records   []models.ScanScore
	statistic structs.StatisticModel
}

// 處理資料的主要進入點
func (s *ScanBatchService) Start(ctx context.Context, scanQueueParam structs.ScanQueueParam) error {
	s.scanQueueParam = scanQueueParam
	s.Errors = nil
	s.records = nil
	s.statistic = structs.StatisticModel{}

	logger := trackLog.WithFields(logrus.Fields{"task": "scan", "task_id": scanQueueParam.TaskID})

	barcodes := uniqueBarcodes(scanQueueParam.Barcodes)
	s.statistic.TotalBarcode = len(barcodes)
	logger.WithField("total_barcode", len(barcodes)).Info("開始準備資料")

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	// 限制啟動 goroutine 的數量
	concurrentGoroutines := make(chan struct{}, concurrency)
	version := time.Now().Unix()

	var wg sync.WaitGroup
	for _, barcode := range barcodes {
		concurrentGoroutines <- struct{}{}
		wg.Add(1)
		go func(barcode string) {
			defer func() {
				wg.Done()
				<-concurrentGoroutines
			}()
			s.process(ctx, barcode, version)
		}(barcode)
	}
	wg.Wait()
	close(concurrentGoroutines)

	sort.Slice(s.records, func(i, j int) bool { return s.records[i].Barcode < s.records[j].Barcode })

	result, activityLog := s.summary()
	s.scanQueueParam.Result = result

	var saveErr error
	if s.Store != nil {
		if saveErr = s.Store.SaveScanScores(s.records, activityLog); saveErr != nil {
			logger.Error("交易失敗: ", saveErr.Error())
		}
	} else {
		logger.WithField("result", result).Info("未設定資料庫，只記錄結果")
	}

	notify := s.Notify
	if notify == nil {
		notify = JobDoneNotify
	}
	if err := notify(ctx, s.scanQueueParam); err != nil {
		logger.Error("回呼失敗: ", err.Error())
	}

	logger.WithFields(logrus.Fields{
		"ok_barcode":      s.statistic.OKBarcode,
		"unknown_barcode": s.statistic.UnknownBarcode,
		"fail_barcode":    s.statistic.FailBarcode,
	}).Info("全部已完成")
	return saveErr
}

// 處理單個條碼
func (s *ScanBatchService) process(ctx context.Context, barcode string, version int64) {
	product, err := s.Fetcher.Lookup(ctx, barcode)
	now := time.Now()

	if err != nil && !errors.Is(err, lookup.ErrUnknownBarcode) {
		s.handleError(barcode, err)
		return
	}

	record := models.ScanScore{
		TaskID:    s.scanQueueParam.TaskID,
		Barcode:   barcode,
		Version:   version,
		CreatedAt: &now,
	}

	s.Lock()
	defer s.Unlock()

	// 查無此商品仍然留一筆，但不計算分數
	if product == nil {
		record.ProductName = enums.UnknownFood
		s.statistic.UnknownBarcode++
		s.records = append(s.records, record)
		return
	}

	view := display.NewProductView(product)
	input := scorer.ExtractNutrients(product)
	result := scorer.Evaluate(input)

	record.Found = true
	record.ProductName = view.ProductName
	record.Protein = input.Protein
	record.Fat = input.Fat
	record.Carbohydrates = input.Carbohydrates
	record.Fiber = input.Fiber
	record.Score = result.Score
	record.Tier = string(result.Tier)
	record.ServingDescriptor = view.ServingDescriptor

	s.statistic.OKBarcode++
	s.records = append(s.records, record)
	metrics.ScoreTotal.WithLabelValues(record.Tier, enums.SourceBatch).Inc()
}

func (s *ScanBatchService) summary() (string, models.ActivityLog) {
	var activityLogJSONModel structs.ActivityLogJsonModel
	activityLogJSONModel.TaskID = s.scanQueueParam.TaskID
	activityLogJSONModel.Result = len(s.Errors) == 0
	activityLogJSONModel.Statistic = s.statistic
	activityLogJSONModel.Messages = s.Errors
	if activityLogJSONModel.Result {
		activityLogJSONModel.Message = "ok"
	} else {
		activityLogJSONModel.Message = s.Errors[0].ErrorMessage
	}

	activityLogJSON, _ := json.Marshal(activityLogJSONModel)
	activityLog := models.NewActivityLog("schedule.go.scan", "條碼批次評分", s.scanQueueParam.TaskID, string(activityLogJSON), time.Now())
	return string(activityLogJSON), activityLog
}

// Records 回傳這次 task 產生的資料
func (s *ScanBatchService) Records() []models.ScanScore {
	s.Lock()
	defer s.Unlock()
	return append([]models.ScanScore(nil), s.records...)
}

func (s *ScanBatchService) Statistic() structs.StatisticModel {
	s.Lock()
	defer s.Unlock()
	return s.statistic
}

func (s *ScanBatchService) handleError(barcode string, err error) {
	s.Lock()
	defer s.Unlock()

	errorModel := structs.ErrorModel{
		Barcode:      barcode,
		ErrorMessage: err.Error(),
	}
	s.Errors = append(s.Errors, errorModel)
	s.statistic.FailBarcode++

	trackLog.WithFields(logrus.Fields{"task": "scan", "task_id": s.scanQueueParam.TaskID, "barcode": barcode}).Error(err.Error())
}

// JobDoneNotify 把結果回傳給 app api
func JobDoneNotify(ctx context.Context, param structs.ScanQueueParam) error {
	if utils.EnvConfig == nil || utils.EnvConfig.Server.AppAPI == "" {
		return nil
	}
	endpoint := utils.EnvConfig.Server.AppAPI + "/api/v1/workerCallback/scan"
	trackLog.Info(fmt.Sprintf("callback url %s task_id %d", endpoint, param.TaskID), false)
	_, err := services.HttpRequest(ctx, http.MethodPost, endpoint, nil, param)
	return err
}

func uniqueBarcodes(barcodes []string) []string {
	seen := make(map[string]struct{}, len(barcodes))
	var result []string
	for _, barcode := range barcodes {
		barcode = strings.TrimSpace(barcode)
		if barcode == "" {
			continue
		}
		if _, ok := seen[barcode]; ok {
			continue
		}
		seen[barcode] = struct{}{}
		result = append(result, barcode)
	}
	return result
}
