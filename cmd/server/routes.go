package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atomik.backend/internal/interfaces/http/handlers"
	"atomik.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	accountHandler  *handlers.AccountHandler
	transferHandler *handlers.TransferHandler
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.MetricsMiddleware(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", d.accountHandler.CreateAccount)
			accounts.GET("", d.accountHandler.ListAccounts)
			accounts.GET("/:id", d.accountHandler.GetAccount)
		}

		v1.POST("/transfers", d.transferHandler.CreateTransfer)
		v1.GET("/ledger", d.transferHandler.ListLedger)
	}

	return r
}
