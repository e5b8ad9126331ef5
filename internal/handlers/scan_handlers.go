package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"accountscan/internal/config"
	pkgerrors "accountscan/pkg/errors"
	"accountscan/pkg/logger"
	"accountscan/pkg/scanner"
)

// ScanRunner is the scan surface the handlers depend on.
type ScanRunner interface {
	Scan(ctx context.Context, cfg scanner.Config) (*scanner.Result, error)
	SherlockAvailable() bool
}

type ScanHandler struct {
	runner ScanRunner
	cfg    *config.Config
	logger *logger.Logger
}

func NewScanHandler(runner ScanRunner, cfg *config.Config) *ScanHandler {
	return &ScanHandler{runner: runner, cfg: cfg, logger: logger.NewLogger(logrus.InfoLevel)}
}

func (h *ScanHandler) StartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON:", logger.Fields{"error": err})
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	mode := scanner.ModeBoth
	if req.Mode != "" {
		parsed, err := scanner.ParseMode(req.Mode)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid mode, use sherlock, reddit or both"})
			return
		}
		mode = parsed
	}

	h.logger.Info("Starting scan", logger.Fields{"username": req.Username, "mode": mode})
	result, err := h.runner.Scan(c.Request.Context(), h.scanConfig(req.Username, mode))
	if err != nil {
		h.respondScanError(c, err)
		return
	}
	c.JSON(200, result)
}

func (h *ScanHandler) Status(c *gin.Context) {
	c.JSON(200, StatusResponse{
		SherlockAvailable: h.runner.SherlockAvailable(),
		RedditConfigured:  h.cfg.HasRedditConfig(),
		ScansDir:          h.cfg.ScansDir,
	})
}

func (h *ScanHandler) respondScanError(c *gin.Context, err error) {
	var confErr *pkgerrors.ConfigError
	switch {
	case errors.Is(err, pkgerrors.ErrSherlockNotInstalled),
		errors.Is(err, pkgerrors.ErrRedditNotConfigured),
		errors.Is(err, pkgerrors.ErrNoScanModes):
		c.JSON(409, gin.H{"error": err.Error()})
	case errors.As(err, &confErr):
		c.JSON(400, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Scan failed:", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Scan failed"})
	}
}

func (h *ScanHandler) scanConfig(username string, mode scanner.Mode) scanner.Config {
	safe := scanner.SanitizeUsername(username)
	cfg := scanner.DefaultConfig(username)
	cfg.Mode = mode
	cfg.PerspectiveKey = h.cfg.PerspectiveAPIKey
	cfg.Reddit = h.cfg.RedditCredentials()
	cfg.Comments = h.cfg.MaxComments
	cfg.Posts = h.cfg.MaxPosts
	cfg.Threshold = h.cfg.ToxicityThreshold
	cfg.RatePerMin = h.cfg.RatePerMin
	cfg.SherlockTimeout = time.Duration(h.cfg.SherlockTimeout) * time.Second
	cfg.OutputReddit = filepath.Join(h.cfg.ScansDir, safe+"_reddit.csv")
	cfg.OutputSherlock = filepath.Join(h.cfg.ScansDir, safe+"_sherlock.json")
	return cfg
}
