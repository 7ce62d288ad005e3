package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// handleSystemStatus reports process and host health.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, ramPercent := s.systemStats()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"cpu_percent":    cpuAvg,
		"ram_percent":    ramPercent,
		"countries":      s.inference.Countries(),
	})
}

// systemStats calculates CPU and RAM usage percentages. A 100ms sampling
// interval keeps the endpoint responsive for pollers.
func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
