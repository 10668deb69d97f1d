package check

import (
	"encoding/json"
	"fmt"
	"net/http"
	"proteinrank-go-worker/services/rabbitmq"
	"proteinrank-go-worker/services/trackLog"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// QueueConnection 是 worker 使用的 rabbitmq 連線名稱
const QueueConnection = "proteinrank"

// 等待 api 斷線通知的時間
var apiErrWait = time.Second

type AliveResponse struct {
	Success  bool      `json:"success"`
	Messsage string    `json:"message"`
	Info     CheckInfo `json:"info"`
}

type CheckInfo struct {
	Queues     []string `json:"queue"`
	Consumers  int      `json:"consumers"`
	RoutineNum int      `json:"routine_num"`
}

func CheckAlive(c *gin.Context) {
	c.JSON(http.StatusOK, inspect(rabbitmq.GetConnection(QueueConnection)))
}

// inspect 檢查 mq 連線、每個 queue 與 consumer goroutine，必要時重新連線
func inspect(rabbitConn *rabbitmq.Connection) AliveResponse {
	checkInfo := CheckInfo{RoutineNum: runtime.NumGoroutine()}
	if rabbitConn == nil {
		return AliveResponse{true, "queue consumer disabled", checkInfo}
	}

	var problems []string
	report := func(msg string) {
		trackLog.Error(msg, false)
		problems = append(problems, msg)
	}

	if rabbitConn.Conn == nil {
		report("connection lost, reconnecting")
		if err := rabbitConn.Reconnect(); err != nil {
			report(fmt.Sprintf("reconnect rabbit fail: %s", err.Error()))
		}
	}

	if rabbitConn.Channel != nil {
		for _, q := range rabbitConn.Queues {
			queue, queueErr := rabbitConn.Channel.QueueInspect(q)
			if queueErr != nil {
				report(fmt.Sprintf("Queue[%s] error: %s", q, queueErr.Error()))
				continue
			}
			queueJson, _ := json.Marshal(queue)
			checkInfo.Queues = append(checkInfo.Queues, string(queueJson))
		}
	} else {
		report("channel get fail")
	}

	// 每個 queue 應該各有一個 consumer 在跑
	checkInfo.Consumers = rabbitConn.Consumers()
	if checkInfo.Consumers < len(rabbitConn.Queues) {
		report(fmt.Sprintf("consumers running %d/%d", checkInfo.Consumers, len(rabbitConn.Queues)))
	}

	select {
	case err := <-rabbitConn.ApiErr:
		report(fmt.Sprintf("api error: %s", err.Error()))
		if err := rabbitConn.Reconnect(); err != nil {
			report(fmt.Sprintf("reconnect rabbit fail: %s", err.Error()))
		}
	case <-time.After(apiErrWait):
	}

	if len(problems) > 0 {
		return AliveResponse{false, strings.Join(problems, "; "), checkInfo}
	}
	return AliveResponse{true, "main thread alive", checkInfo}
}
