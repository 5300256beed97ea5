package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/response"
	"github.com/stemsi/exstem-progress/internal/service"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// QueueLen reports the length of the persistence queue.
type QueueLen func(ctx context.Context) (int64, error)

// SystemHandler serves liveness and runtime status.
type SystemHandler struct {
	checks        map[string]Pinger
	queueLen      QueueLen
	reportService *service.ReportService
	startTime     time.Time
	log           zerolog.Logger
}

func NewSystemHandler(checks map[string]Pinger, queueLen QueueLen, reportService *service.ReportService, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		checks:        checks,
		queueLen:      queueLen,
		reportService: reportService,
		startTime:     time.Now(),
		log:           log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	response.Success(c, status, gin.H{"status": state, "dependencies": deps})
}

type systemStatus struct {
	Uptime       string `json:"uptime"`
	GoVersion    string `json:"go_version"`
	Goroutines   int    `json:"goroutines"`
	HeapAlloc    uint64 `json:"heap_alloc"`
	NumGC        uint32 `json:"num_gc"`
	QueuePersist int64  `json:"queue_persist"`
	LatestRunID  string `json:"latest_run_id,omitempty"`
	LatestRunAt  string `json:"latest_run_at,omitempty"`
}

// Status godoc
// GET /api/v1/admin/system/status
func (h *SystemHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	st := systemStatus{
		Uptime:     time.Since(h.startTime).Truncate(time.Second).String(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		NumGC:      mem.NumGC,
	}

	if h.queueLen != nil {
		n, err := h.queueLen(ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("Queue length unavailable")
		}
		st.QueuePersist = n
	}

	if report, err := h.reportService.Latest(ctx); err == nil {
		st.LatestRunID = report.RunID
		st.LatestRunAt = report.GeneratedAt.Format(time.RFC3339)
	}

	response.Success(c, http.StatusOK, st)
}
