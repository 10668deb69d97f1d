package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"proteinrank-go-worker/controllers/check"
	"proteinrank-go-worker/database"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/models"
	"proteinrank-go-worker/services"
	"proteinrank-go-worker/services/lookup"
	"proteinrank-go-worker/services/rabbitmq"
	"proteinrank-go-worker/services/scan"
	"proteinrank-go-worker/services/trackLog"
	"proteinrank-go-worker/structs"
	"proteinrank-go-worker/utils"
	"strconv"
	"strings"
	"time"

	"github.com/streadway/amqp"
)

func scanQueue(ctx context.Context, fetcher lookup.Fetcher, store scan.RecordStore) error {
	queues := utils.EnvConfig.RabbitMQ.Queues
	conn := rabbitmq.NewConnection(check.QueueConnection, utils.EnvConfig.RabbitMQ.Domain, queues)

	if err := conn.Connect(); err != nil {
		return err
	}
	if err := conn.BindQueue(); err != nil {
		return err
	}
	deliveries, err := conn.Consume()
	if err != nil {
		return err
	}

	handler := scanHandler(ctx, fetcher, store)
	for q, d := range deliveries {
		go conn.HandleConsumedDeliveries(q, d, handler)
	}
	log.Printf(" [ %s ] [ %s ] Waiting for messages. To exit press CTRL+C", check.QueueConnection, strings.Join(queues, " "))
	return nil
}

func scanHandler(ctx context.Context, fetcher lookup.Fetcher, store scan.RecordStore) func(rabbitmq.Connection, string, <-chan amqp.Delivery) {
	return func(c rabbitmq.Connection, q string, deliveries <-chan amqp.Delivery) {
		for d := range deliveries {
			trackLog.Info(fmt.Sprintf("Queue[%s] 接受資料: %s\n", q, string(d.Body)), true)

			service := &scan.ScanBatchService{
				Fetcher:     fetcher,
				Store:       store,
				Concurrency: utils.EnvConfig.ConcurrentAmount,
			}
			if err := handleScanMessage(ctx, q, d.Body, service); err != nil {
				trackLog.Error(err.Error(), true)
			}
		}
	}
}

// handleScanMessage 解析一則訊息並交給 ScanBatchService 處理
func handleScanMessage(ctx context.Context, q string, body []byte, service *scan.ScanBatchService) error {
	var scanQueueParam structs.ScanQueueParam
	if err := json.Unmarshal(body, &scanQueueParam); err != nil {
		return fmt.Errorf("Queue[%s] 參數格式錯誤: %w", q, err)
	}

	// 檢查queue是否正確
	if q != scanQueueParam.QueueType {
		notifyMismatchQueueApi(ctx, scanQueueParam.TaskID, q, scanQueueParam.QueueType)
		return nil
	}
	if q != enums.ScanQueue {
		return fmt.Errorf("Queue[%s] 沒有對應的處理程序", q)
	}

	_ = insertActivityLog("schedule.go.job.received", "("+strconv.Itoa(int(scanQueueParam.TaskID))+"), "+"queue name: "+q+", start...")

	status := enums.FinishedStatus
	err := service.Start(ctx, scanQueueParam)
	if err != nil || len(service.Errors) != 0 {
		status = enums.FailedStatus
	}
	_ = insertActivityLog("schedule.go.job."+status, "("+strconv.Itoa(int(scanQueueParam.TaskID))+"), "+"queue name: "+q+", "+status)
	return err
}

// 塞入執行紀錄的 log table
func insertActivityLog(jobname string, data interface{}) error {
	if database.Mysql == nil {
		return nil
	}
	activityLogJSON, _ := json.Marshal(data)

	location, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		location = time.Local
	}
	activityLogEntity := models.NewActivityLog(jobname, "golang-worker log", 0, string(activityLogJSON), time.Now().In(location))
	activityLogEntity.SubjectType = ""

	return database.Mysql.Create(&activityLogEntity).Error
}

func notifyMismatchQueueApi(ctx context.Context, taskId uint, queue, queueType string) {
	if utils.EnvConfig == nil || utils.EnvConfig.Server.AppAPI == "" {
		trackLog.Error(fmt.Sprintf("[MismatchQueue]queue發生錯誤, task_id: %d, mismatch queue: %s, queue_type: %s", taskId, queue, queueType), true)
		return
	}
	endpoint := utils.EnvConfig.Server.AppAPI + "/api/v1/workerCallback/mismatchQueue"
	body := structs.MismatchQueueResponse{
		TaskId: taskId,
		Queue:  queue,
	}
	trackLog.Info(fmt.Sprintf("[MismatchQueue]queue發生錯誤, task_id: %d, mismatch queue: %s, queue_type: %s, callback url: %s", taskId, queue, queueType, endpoint), true)
	if _, err := services.HttpRequest(ctx, http.MethodPost, endpoint, nil, body); err != nil {
		trackLog.Error(err.Error(), true)
	}
}
