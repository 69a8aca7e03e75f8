package services

import (
	"context"
	"runtime"
	"time"

	"dutchthrift_server/database"

	"github.com/MonkyMars/gecho"
)

var uptimeStart = time.Now()

type serverHealthStatus struct {
	Uptime       float64   `json:"uptime"` // in seconds
	CurrentTime  time.Time `json:"current_time"`
	ServiceAlive bool      `json:"service_alive"`
	RamStats     *RamStats `json:"ram_stats"`
}

type RamStats struct {
	TotalMB     uint64 `json:"total_mb"`
	UsedMB      uint64 `json:"used_mb"`
	FreeMB      uint64 `json:"free_mb"`
	UsedPercent uint64 `json:"used_percent"`
}

type databaseHealthStatus struct {
	Connected      bool      `json:"connected"`
	CacheEnabled   bool      `json:"cache_enabled"`
	CacheConnected bool      `json:"cache_connected"`
	LastChecked    time.Time `json:"last_checked"`
	ResponseTimeMs int64     `json:"response_time_ms"`
}

type HealthService struct {
	logger       *gecho.Logger
	store        database.Storage
	cacheService *CacheService
}

func NewHealthService(logger *gecho.Logger, store database.Storage, cacheService *CacheService) *HealthService {
	return &HealthService{
		logger:       logger,
		store:        store,
		cacheService: cacheService,
	}
}

func getRamStats() *RamStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	totalMB := m.Sys / 1024 / 1024
	usedMB := m.Alloc / 1024 / 1024
	usedPercent := uint64(0)
	if totalMB > 0 {
		usedPercent = (usedMB * 100) / totalMB
	}

	return &RamStats{
		TotalMB:     totalMB,
		UsedMB:      usedMB,
		FreeMB:      totalMB - usedMB,
		UsedPercent: usedPercent,
	}
}

func (hs *HealthService) GetServerHealthStatus() serverHealthStatus {
	return serverHealthStatus{
		Uptime:       time.Since(uptimeStart).Seconds(),
		CurrentTime:  time.Now(),
		ServiceAlive: true,
		RamStats:     getRamStats(),
	}
}

// GetDatabaseHealthStatus pings Postgres and, when enabled, Redis. Only a
// Postgres failure is returned as an error.
func (hs *HealthService) GetDatabaseHealthStatus(ctx context.Context) (databaseHealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hs.store.Ping(ctx)
	status := databaseHealthStatus{
		Connected:      err == nil,
		CacheEnabled:   hs.cacheService.Enabled(),
		LastChecked:    time.Now(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		hs.logger.Error("Database health check failed", gecho.Field("error", err))
	}

	if status.CacheEnabled {
		if cacheErr := hs.cacheService.Ping(ctx); cacheErr != nil {
			hs.logger.Warn("Cache health check failed", gecho.Field("error", cacheErr))
		} else {
			status.CacheConnected = true
		}
	}

	return status, err
}
