package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler handles GET /health — liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "lending-system",
	})
}

// ReadinessHandler handles GET /health/ready. The service is ready when
// MongoDB answers a ping, Redis answers a ping, and the KYC document
// directory is writable — a loan cannot be applied for, approved, or
// documented without all three.
type ReadinessHandler struct {
	mongo     *mongo.Database
	redis     *redis.Client
	uploadDir string
}

func NewReadinessHandler(db *mongo.Database, rdb *redis.Client, uploadDir string) *ReadinessHandler {
	return &ReadinessHandler{
		mongo:     db,
		redis:     rdb,
		uploadDir: uploadDir,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	record := func(name string, err error) {
		if err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			return
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	record("mongodb", h.mongo.Client().Ping(ctx, nil))
	record("redis", h.redis.Ping(ctx).Err())
	record("document_store", h.probeUploadDir())

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}

// probeUploadDir verifies the document directory accepts writes by creating
// and removing a marker file. A read-only volume mount would otherwise only
// surface on the first KYC upload.
func (h *ReadinessHandler) probeUploadDir() error {
	probe := filepath.Join(h.uploadDir, ".ready")
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}
