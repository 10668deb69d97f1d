package session

import (
	"context"
	"errors"
	"net/http"
	"proteinrank-go-worker/services/display"
	"proteinrank-go-worker/services/metrics"
	sessionService "proteinrank-go-worker/services/session"
	"proteinrank-go-worker/services/trackLog"
	"proteinrank-go-worker/structs"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

type SessionController struct {
	Registry *sessionService.Registry
	// Lookups 的 context，需比單一 request 活得久
	Context  context.Context
	Upgrader websocket.Upgrader
}

func (s *SessionController) Create(c *gin.Context) {
	sess := s.Registry.Create()
	c.JSON(http.StatusCreated, structs.ApiResponse{Success: true, Data: sess.Snapshot()})
}

func (s *SessionController) Show(c *gin.Context) {
	sess, ok := s.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, structs.ApiResponse{Success: true, Data: sess.Snapshot()})
}

// Scan 送出條碼查詢，結果透過 Show 或 Stream 取得
func (s *SessionController) Scan(c *gin.Context) {
	sess, ok := s.find(c)
	if !ok {
		return
	}
	var param structs.ScanParam
	if err := c.ShouldBindJSON(&param); err != nil {
		c.JSON(http.StatusBadRequest, structs.ApiResponse{Success: false, Message: err.Error()})
		return
	}

	barcode := strings.TrimSpace(param.Barcode)
	if barcode == "" {
		c.JSON(http.StatusBadRequest, structs.ApiResponse{Success: false, Message: "barcode is required"})
		return
	}

	ctx := s.Context
	if ctx == nil {
		ctx = context.Background()
	}
	state, issued := sess.Scan(ctx, barcode)
	status := http.StatusAccepted
	if !issued {
		status = http.StatusOK
	}
	c.JSON(status, structs.ApiResponse{Success: true, Data: gin.H{"issued": issued, "scan": state}})
}

func (s *SessionController) Edit(c *gin.Context) {
	sess, ok := s.find(c)
	if !ok {
		return
	}
	var param structs.ManualEditParam
	if err := c.ShouldBindJSON(&param); err != nil {
		c.JSON(http.StatusBadRequest, structs.ApiResponse{Success: false, Message: err.Error()})
		return
	}

	manual, err := sess.Edit(param.Field, param.Value)
	if errors.Is(err, display.ErrUnknownField) {
		c.JSON(http.StatusBadRequest, structs.ApiResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, structs.ApiResponse{Success: true, Data: manual})
}

// Stream 以 websocket 推送最新的畫面快照
func (s *SessionController) Stream(c *gin.Context) {
	sess, ok := s.find(c)
	if !ok {
		return
	}
	conn, err := s.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		trackLog.WithFields(logrus.Fields{"task": "stream", "session_id": sess.ID}).Error(err.Error())
		return
	}
	defer conn.Close()

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	updates, cancel := sess.Subscribe()
	defer cancel()

	// 讀取端只用來偵測斷線
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
		}
	}
}

func (s *SessionController) find(c *gin.Context) (*sessionService.Session, bool) {
	sess, err := s.Registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, structs.ApiResponse{Success: false, Message: err.Error()})
		return nil, false
	}
	return sess, true
}
