// Package diskstat reports volume usage for the filesystem holding a path
package diskstat

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// Usage is a snapshot of one volume
type Usage struct {
	Path        string  `json:"path" yaml:"path"`
	Total       uint64  `json:"total" yaml:"total"`
	Free        uint64  `json:"free" yaml:"free"`
	Used        uint64  `json:"used" yaml:"used"`
	UsedPercent float64 `json:"used_percent" yaml:"used_percent"`
}

// Probe returns the usage of the volume holding path
func Probe(path string) (*Usage, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage for %s: %w", path, err)
	}
	return &Usage{
		Path:        path,
		Total:       stat.Total,
		Free:        stat.Free,
		Used:        stat.Used,
		UsedPercent: stat.UsedPercent,
	}, nil
}

// Gained returns how much free space grew since before, or zero
func (u *Usage) Gained(before *Usage) int64 {
	if u == nil || before == nil || u.Free <= before.Free {
		return 0
	}
	return int64(u.Free - before.Free)
}
