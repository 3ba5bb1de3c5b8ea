package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/database"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/reliability"
)

// SystemHandlers handles system monitoring and operations endpoints
type SystemHandlers struct {
	log           zerolog.Logger
	dataDir       string
	startupTime   time.Time
	portfolioDB   *database.DB
	cacheDB       *database.DB
	historyDB     *sql.DB
	backupService *reliability.BackupService
}

// NewSystemHandlers creates a new system handlers instance.
// backupService may be nil when backups are disabled.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	portfolioDB, cacheDB *database.DB,
	historyDB *sql.DB,
	backupService *reliability.BackupService,
) *SystemHandlers {
	return &SystemHandlers{
		log:           log.With().Str("component", "system_handlers").Logger(),
		dataDir:       dataDir,
		startupTime:   time.Now(),
		portfolioDB:   portfolioDB,
		cacheDB:       cacheDB,
		historyDB:     historyDB,
		backupService: backupService,
	}
}

// HandleHealth returns database health plus host CPU, memory and disk usage
// GET /api/system/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	databases := map[string]string{
		"portfolio": h.checkWrapped(ctx, h.portfolioDB),
		"cache":     h.checkWrapped(ctx, h.cacheDB),
		"history":   h.checkConn(ctx, h.historyDB),
	}

	status := "healthy"
	for _, state := range databases {
		if state != "ok" {
			status = "degraded"
			break
		}
	}

	response := map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
		"databases":      databases,
		"system":         h.systemStats(),
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

// HandleBackup runs an S3 backup immediately
// POST /api/system/backup
func (h *SystemHandlers) HandleBackup(w http.ResponseWriter, r *http.Request) {
	if h.backupService == nil {
		writeError(w, http.StatusServiceUnavailable, "Backups are not enabled")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := h.backupService.CreateAndUploadBackup(ctx); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		writeError(w, http.StatusInternalServerError, "Backup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Backup completed successfully",
	})
}

func (h *SystemHandlers) checkWrapped(ctx context.Context, db *database.DB) string {
	if db == nil {
		return "not configured"
	}
	if err := db.QuickCheck(ctx); err != nil {
		h.log.Warn().Err(err).Str("database", db.Name()).Msg("Database health check failed")
		return "unreachable"
	}
	return "ok"
}

func (h *SystemHandlers) checkConn(ctx context.Context, db *sql.DB) string {
	if db == nil {
		return "not configured"
	}
	if err := db.PingContext(ctx); err != nil {
		h.log.Warn().Err(err).Msg("History database health check failed")
		return "unreachable"
	}
	return "ok"
}

// systemStats collects host CPU, memory and disk usage. The CPU sample
// uses a 100ms window to keep the endpoint fast.
func (h *SystemHandlers) systemStats() map[string]float64 {
	stats := map[string]float64{
		"cpu_percent":    0,
		"memory_percent": 0,
		"disk_percent":   0,
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		stats["cpu_percent"] = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		stats["memory_percent"] = memStat.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	if diskStat, err := disk.Usage(h.dataDir); err == nil {
		stats["disk_percent"] = diskStat.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	return stats
}
