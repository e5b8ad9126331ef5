package routes

import (
	"github.com/gin-gonic/gin"

	"accountscan/internal/config"
	"accountscan/pkg/scanner"
)

func InitRouter(cfg *config.Config, scn *scanner.Scanner) *gin.Engine {
	router := gin.Default()

	// REST APIs
	api := router.Group("/api")
	{
		InitScanRoutes(api, cfg, scn)
	}

	return router
}
