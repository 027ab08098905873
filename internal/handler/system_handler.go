package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/middleware"
	"github.com/bimuz/bimuz-backend/internal/response"
)

const (
	metricsInterval = 5 * time.Second
	healthTimeout   = 2 * time.Second
)

// SystemHandler serves the health check and a metrics stream for developers.
type SystemHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	started time.Time
	cpu     *cpuSampler
	log     zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		pool:    pool,
		rdb:     rdb,
		started: time.Now(),
		cpu:     newCPUSampler(),
		log:     logger.Component(log, "system_handler"),
	}
}

// Health godoc
// GET /health
// Answers 503 when PostgreSQL or Redis does not respond.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := h.pool.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Database health check failed")
		status["database"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		h.log.Warn().Err(err).Msg("Redis health check failed")
		status["redis"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

type poolMetrics struct {
	Total    int64 `json:"total"`
	Idle     int64 `json:"idle"`
	InUse    int64 `json:"in_use"`
	Max      int64 `json:"max"`
	Timeouts int64 `json:"timeouts,omitempty"`
}

type systemMetrics struct {
	Timestamp     int64       `json:"timestamp"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	CPUPercent    float64     `json:"cpu_percent"`
	MemTotalBytes uint64      `json:"mem_total_bytes"`
	MemUsedBytes  uint64      `json:"mem_used_bytes"`
	RSSBytes      uint64      `json:"rss_bytes"`
	Goroutines    int         `json:"goroutines"`
	HeapAlloc     uint64      `json:"heap_alloc"`
	NumGC         uint32      `json:"num_gc"`
	GoVersion     string      `json:"go_version"`
	Postgres      poolMetrics `json:"postgres"`
	Redis         poolMetrics `json:"redis"`
}

// SystemMetricsSSE godoc
// GET /api/v1/system/metrics
// Streams a metrics sample every few seconds as server-sent events until
// the client disconnects.
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	log := h.log.With().Int64("employee_id", claims.UserID).Logger()
	log.Info().Msg("Metrics stream opened")
	defer log.Info().Msg("Metrics stream closed")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		if err := h.writeSample(c); err != nil {
			log.Debug().Err(err).Msg("Metrics write failed")
			return
		}
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *SystemHandler) writeSample(c *gin.Context) error {
	payload, err := json.Marshal(h.sample())
	if err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("event: metrics\ndata: " + string(payload) + "\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func (h *SystemHandler) sample() systemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := systemMetrics{
		Timestamp:     time.Now().Unix(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		CPUPercent:    h.cpu.percent(),
		Goroutines:    runtime.NumGoroutine(),
		HeapAlloc:     ms.HeapAlloc,
		NumGC:         ms.NumGC,
		GoVersion:     runtime.Version(),
	}

	if mem, err := readKBFields("/proc/meminfo", "MemTotal:", "MemAvailable:"); err == nil && mem[0] > mem[1] {
		m.MemTotalBytes = mem[0]
		m.MemUsedBytes = mem[0] - mem[1]
	}
	if rss, err := readKBFields("/proc/self/status", "VmRSS:"); err == nil {
		m.RSSBytes = rss[0]
	}

	if h.pool != nil {
		st := h.pool.Stat()
		m.Postgres = poolMetrics{
			Total: int64(st.TotalConns()),
			Idle:  int64(st.IdleConns()),
			InUse: int64(st.AcquiredConns()),
			Max:   int64(st.MaxConns()),
		}
	}
	if h.rdb != nil {
		ps := h.rdb.PoolStats()
		m.Redis = poolMetrics{
			Total:    int64(ps.TotalConns),
			Idle:     int64(ps.IdleConns),
			InUse:    int64(ps.TotalConns) - int64(ps.IdleConns),
			Max:      int64(h.rdb.Options().PoolSize),
			Timeouts: int64(ps.Timeouts),
		}
	}
	return m
}

// cpuSampler turns the cumulative counters of /proc/stat into a busy
// percentage since the previous call. Several streams share one sampler.
type cpuSampler struct {
	mu        sync.Mutex
	prevIdle  uint64
	prevTotal uint64
}

func newCPUSampler() *cpuSampler {
	s := &cpuSampler{}
	s.prevIdle, s.prevTotal, _ = readCPUTicks()
	return s
}

func (s *cpuSampler) percent() float64 {
	idle, total, err := readCPUTicks()
	if err != nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if total <= s.prevTotal {
		return 0
	}
	busy := 1 - float64(idle-s.prevIdle)/float64(total-s.prevTotal)
	s.prevIdle, s.prevTotal = idle, total
	return busy * 100
}

// readCPUTicks returns the idle and total jiffies of the aggregate cpu line.
func readCPUTicks() (idle, total uint64, err error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, 0, errors.New("empty /proc/stat")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0, 0, errors.New("unexpected /proc/stat format")
	}
	for i, field := range fields[1:] {
		v, _ := strconv.ParseUint(field, 10, 64)
		total += v
		if i == 3 {
			idle = v
		}
	}
	return idle, total, nil
}

// readKBFields reads "Key: N kB" lines from a /proc file and returns the
// values in bytes, in the order of keys. Missing keys read as zero.
func readKBFields(path string, keys ...string) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make([]uint64, len(keys))
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		for i, key := range keys {
			if !strings.HasPrefix(line, key) {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				v, _ := strconv.ParseUint(fields[1], 10, 64)
				out[i] = v * 1024
			}
		}
	}
	return out, sc.Err()
}
