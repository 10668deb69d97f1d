package trackLog

import (
	"fmt"
	"proteinrank-go-worker/services/log"

	"github.com/sirupsen/logrus"
)

var logTracker *logrus.Entry

func LogTrackInit() {
	var trackerService log.LogService
	temp := trackerService.LoggerInit("tracker")
	logTracker = temp.WithFields(logrus.Fields{"task": "track", "name": "log追蹤"})
}

func Info(message string, needWriteLog bool) {
	if needWriteLog && logTracker != nil {
		logTracker.Info(message)
	}
	fmt.Println(message)
}

func Error(message string, needWriteLog bool) {
	if needWriteLog && logTracker != nil {
		logTracker.Error(message)
	}
	fmt.Println(message)
}

// WithFields 回傳帶欄位的 tracker，尚未初始化時退回標準 logger
func WithFields(fields logrus.Fields) *logrus.Entry {
	if logTracker == nil {
		return logrus.WithFields(fields)
	}
	return logTracker.WithFields(fields)
}
