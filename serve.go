package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"proteinrank-go-worker/database"
	"proteinrank-go-worker/router"
	"proteinrank-go-worker/services"
	"proteinrank-go-worker/services/lookup"
	"proteinrank-go-worker/services/scan"
	"proteinrank-go-worker/services/session"
	"proteinrank-go-worker/services/trackLog"
	"proteinrank-go-worker/utils"
	"syscall"
	"time"

	logLib "proteinrank-go-worker/services/log"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	sessionTTL           = 30 * time.Minute
	sessionSweepInterval = time.Minute
	shutdownTimeout      = 10 * time.Second
)

func runServe(cmd *cobra.Command, args []string) error {
	// 初始化 env
	envService := utils.EnvService{ConfigPath: configPath}
	envService.InitEnv()
	fmt.Println("參數初始化成功...")
	trackLog.LogTrackInit()

	var store scan.RecordStore
	if err := database.InitDatabasePool(); err != nil {
		return err
	}
	if database.Mysql != nil {
		store = scan.GormStore{DB: database.Mysql}
		defer database.Close()
		_ = insertActivityLog("schedule.go.job.init", "proteinrank-worker 初始化")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		// 發送 ELK
		var logService logLib.LogService
		logwr := logService.LoggerInit("main")
		logwr.WithFields(logrus.Fields{"task": "main", "name": "主程式"}).Error("worker shutdown")
		// 發送 email
		crashEmailAlert()

		fmt.Println("worker shutdown")
	}()

	fetcher := lookup.NewClient(utils.EnvConfig.Lookup)
	sessions := session.NewRegistry(fetcher)
	go expireSessions(ctx, sessions)

	if !serveNoQueue {
		if err := scanQueue(ctx, fetcher, store); err != nil {
			return err
		}
	}

	port := servePort
	if port == 0 {
		port = utils.EnvConfig.Router.Port
	}
	route := router.Router(router.Dependencies{Context: ctx, Fetcher: fetcher, Sessions: sessions})
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: route}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// 定期清掉沒有在使用的 session
func expireSessions(ctx context.Context, sessions *session.Registry) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Expire(sessionTTL); n > 0 {
				trackLog.Info(fmt.Sprintf("清除閒置 session: %d", n), false)
			}
		}
	}
}

func crashEmailAlert() {
	if utils.EnvConfig == nil || utils.EnvConfig.Email.APIUrl == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	body := map[string]string{"service": "proteinrank-worker", "message": "worker shutdown"}
	if _, err := services.HttpRequest(ctx, http.MethodPost, utils.EnvConfig.Email.APIUrl, nil, body); err != nil {
		trackLog.Error(fmt.Sprintf("crash email alert fail: %s", err.Error()), true)
	}
}
