package router

import (
	"context"
	"proteinrank-go-worker/controllers/check"
	"proteinrank-go-worker/controllers/product"
	"proteinrank-go-worker/controllers/readProbe"
	"proteinrank-go-worker/controllers/score"
	"proteinrank-go-worker/controllers/session"
	"proteinrank-go-worker/services/lookup"
	"proteinrank-go-worker/services/metrics"
	sessionService "proteinrank-go-worker/services/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Dependencies struct {
	Context  context.Context
	Fetcher  lookup.Fetcher
	Sessions *sessionService.Registry
}

func Router(deps Dependencies) *gin.Engine {
	route := gin.Default()

	route.GET("/read-probe", readProbe.Probe)
	route.GET("/check-live", check.CheckAlive)
	route.GET("/metrics", gin.WrapH(metrics.Handler()))

	productController := &product.ProductController{Fetcher: deps.Fetcher}
	sessionController := &session.SessionController{
		Registry: deps.Sessions,
		Context:  deps.Context,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	v1 := route.Group("/api/v1")
	{
		v1.GET("/products/:barcode", productController.Show)
		v1.POST("/scores", score.Compute)

		v1.POST("/sessions", sessionController.Create)
		v1.GET("/sessions/:id", sessionController.Show)
		v1.POST("/sessions/:id/scans", sessionController.Scan)
		v1.PUT("/sessions/:id/manual", sessionController.Edit)
		v1.GET("/sessions/:id/stream", sessionController.Stream)
	}

	return route
}
