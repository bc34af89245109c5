package rslimiter

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceUsage represents current process and system resource usage
type ResourceUsage struct {
	AllocMB              int64   `json:"alloc_mb"`
	SysMB                int64   `json:"sys_mb"`
	Goroutines           int     `json:"goroutines"`
	GCCount              int64   `json:"gc_count"`
	SystemMemUsedMB      int64   `json:"system_mem_used_mb"`
	SystemMemTotalMB     int64   `json:"system_mem_total_mb"`
	SystemMemUsedPercent float64 `json:"system_mem_used_percent"`
	CPUUsagePercent      float64 `json:"cpu_usage_percent"`
}

// GetResourceUsage returns current resource usage statistics
func GetResourceUsage() ResourceUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := ResourceUsage{
		AllocMB:    int64(m.Alloc / 1024 / 1024),
		SysMB:      int64(m.Sys / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
		GCCount:    int64(m.NumGC),
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemUsedMB = int64(vmStat.Used / 1024 / 1024)
		usage.SystemMemTotalMB = int64(vmStat.Total / 1024 / 1024)
		usage.SystemMemUsedPercent = vmStat.UsedPercent
	}

	if cpuPercents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		usage.CPUUsagePercent = cpuPercents[0]
	}

	return usage
}
