package log

import (
	"fmt"
	"net"
	"os"
	"path"
	"proteinrank-go-worker/utils"
	"time"

	logrustash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/sirupsen/logrus"
	"gopkg.in/go-extras/elogrus.v7"
)

const hostName = "proteinrank-golang-worker"

type LogService struct {
	// 日誌根目錄，空字串代表 <工作目錄>/logs
	Dir string
}

// LoggerInit 建立寫入 logs/<日期>/<name>.log 的 logger，並依設定掛上 ELK 與 logstash
func (l *LogService) LoggerInit(name string) *logrus.Logger {
	now := time.Now()
	logFilePath := l.Dir
	if logFilePath == "" {
		if dir, err := os.Getwd(); err == nil {
			logFilePath = dir + "/logs"
		}
	}
	logFilePath = path.Join(logFilePath, now.Format("2006-01-02"))
	if err := os.MkdirAll(logFilePath, 0777); err != nil {
		fmt.Println(err.Error())
	}

	//实例化
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	//写入文件
	fileName := path.Join(logFilePath, name+".log")
	src, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		fmt.Println("err", err)
	} else {
		logger.Out = src
	}

	if utils.EnvConfig == nil {
		return logger
	}

	if utils.EnvConfig.Log.ElkEnable == 1 {
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{utils.EnvConfig.Log.ElkURL},
		})
		if err != nil {
			logger.Debug(err.Error())
		} else {
			hook, err := elogrus.NewAsyncElasticHook(client, hostName, logrus.DebugLevel, utils.EnvConfig.Log.ElkIndex)
			if err != nil {
				logger.Debug(err.Error())
			} else {
				logger.Hooks.Add(hook)
			}
		}
	}

	if utils.EnvConfig.Log.LogstashEnable == 1 {
		conn, err := net.Dial("udp", utils.EnvConfig.Log.LogstashURL)
		if err != nil {
			logger.Debug(err)
		} else {
			hook := logrustash.New(conn, logrustash.DefaultFormatter(logrus.Fields{"type": hostName, "index": utils.EnvConfig.Log.LogstashIndex}))
			logger.Hooks.Add(hook)
		}
	}

	return logger
}
