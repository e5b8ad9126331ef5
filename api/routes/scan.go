package routes

import (
	"github.com/gin-gonic/gin"

	"accountscan/internal/config"
	"accountscan/internal/handlers"
	"accountscan/pkg/scanner"
)

func InitScanRoutes(router *gin.RouterGroup, cfg *config.Config, scn *scanner.Scanner) {
	scanHandlers := handlers.NewScanHandler(scn, cfg)

	scanRoutes := router.Group("/scans")
	{
		scanRoutes.POST("", scanHandlers.StartScan)
	}
	router.GET("/status", scanHandlers.Status)
}
