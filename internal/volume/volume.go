// Package volume reports free/used space for mounted volumes. It is
// independent of the diagnostic tool and feeds the parallel "volumes"
// list of the snapshot.
package volume

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"

	"drive-telemetry/pkg/types"
)

const gib = 1 << 30

// pseudoFilesystems are mount types that never represent user-visible
// storage and are skipped during collection.
var pseudoFilesystems = map[string]struct{}{
	"autofs":     {},
	"devfs":      {},
	"devtmpfs":   {},
	"fusectl":    {},
	"overlay":    {},
	"proc":       {},
	"ramfs":      {},
	"squashfs":   {},
	"sysfs":      {},
	"tmpfs":      {},
	"tracefs":    {},
	"cgroup":     {},
	"cgroup2":    {},
	"securityfs": {},
}

// Collector lists mounted volume usage via gopsutil.
type Collector struct{}

// New creates a volume Collector.
func New() *Collector {
	return &Collector{}
}

// List returns one record per real mounted volume, ordered by
// identifier. A partition whose usage cannot be read is skipped rather
// than failing the whole list.
func (c *Collector) List(ctx context.Context) ([]types.VolumeRecord, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	volumes := make([]types.VolumeRecord, 0, len(parts))
	for _, p := range parts {
		if _, skip := pseudoFilesystems[p.Fstype]; skip {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			if err != nil {
				log.Debug().Err(err).Str("mountpoint", p.Mountpoint).Msg("Skipping unreadable volume")
			}
			continue
		}
		volumes = append(volumes, buildRecord(p.Mountpoint, p.Device, usage))
	}

	sort.Slice(volumes, func(i, j int) bool {
		return volumes[i].DriveLetter < volumes[j].DriveLetter
	})
	return volumes, nil
}

// buildRecord maps one partition's usage to the wire shape. On Windows
// the mountpoint is the drive letter; elsewhere it is the mount path.
func buildRecord(mountpoint, device string, usage *disk.UsageStat) types.VolumeRecord {
	return types.VolumeRecord{
		DriveLetter:  mountpoint,
		VolumeName:   device,
		FreeGB:       round2(float64(usage.Free) / gib),
		UsedGB:       round2(float64(usage.Used) / gib),
		UsagePercent: round1(usage.UsedPercent),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
