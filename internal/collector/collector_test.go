package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"drive-telemetry/internal/metrics"
	"drive-telemetry/internal/smart"
	"drive-telemetry/pkg/types"
)

type fakeScanner struct {
	devices []string
	err     error
}

func (f *fakeScanner) Scan(context.Context) ([]string, error) { return f.devices, f.err }

type fakeReader struct {
	mu      sync.Mutex
	failing map[string]bool
	active  int32
	overlap int32
	delay   time.Duration
	reads   int32
}

func (f *fakeReader) Read(_ context.Context, device string) (*smart.Telemetry, error) {
	if atomic.AddInt32(&f.active, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.active, -1)
	atomic.AddInt32(&f.reads, 1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	fails := f.failing[device]
	f.mu.Unlock()
	if fails {
		return nil, smart.ErrNoTelemetry
	}

	var tel smart.Telemetry
	payload := fmt.Sprintf(`{"device": {"type": "ata"}, "model_name": "Model-%s", "serial_number": "S"}`, device)
	if err := json.Unmarshal([]byte(payload), &tel); err != nil {
		return nil, err
	}
	return &tel, nil
}

type fakeVolumes struct {
	volumes []types.VolumeRecord
	err     error
}

func (f *fakeVolumes) List(context.Context) ([]types.VolumeRecord, error) {
	return f.volumes, f.err
}

func newTestPoller(scanner DeviceScanner, reader DeviceReader, volumes VolumeLister) *Poller {
	m := metrics.NewWith(prometheus.NewRegistry())
	return New(scanner, reader, volumes, m, time.Minute, zerolog.Nop())
}

func TestCycleOneFailingDeviceDoesNotSuppressOthers(t *testing.T) {
	scanner := &fakeScanner{devices: []string{"/dev/sdc", "/dev/sda", "/dev/sdb"}}
	reader := &fakeReader{failing: map[string]bool{"/dev/sdb": true}}
	p := newTestPoller(scanner, reader, nil)

	p.runCycle(context.Background())
	snap := p.Snapshot()

	if len(snap.Drives) != 3 {
		t.Fatalf("got %d drives, want 3", len(snap.Drives))
	}
	// Sorted by device regardless of discovery order.
	want := []string{"/dev/sda", "/dev/sdb", "/dev/sdc"}
	for i, dev := range want {
		if snap.Drives[i].Device != dev {
			t.Errorf("Drives[%d].Device = %s, want %s", i, snap.Drives[i].Device, dev)
		}
	}
	if !snap.Drives[1].Error {
		t.Error("failing device must be published as an error record")
	}
	if snap.Drives[1].Message == "" {
		t.Error("error record must carry a failure reason")
	}
	if snap.Drives[0].Error || snap.Drives[2].Error {
		t.Error("healthy devices must not be error records")
	}
}

func TestCycleScanFailureKeepsPreviousSnapshot(t *testing.T) {
	scanner := &fakeScanner{devices: []string{"/dev/sda"}}
	reader := &fakeReader{}
	p := newTestPoller(scanner, reader, nil)

	p.runCycle(context.Background())
	first := p.Snapshot()
	if len(first.Drives) != 1 {
		t.Fatalf("got %d drives, want 1", len(first.Drives))
	}

	scanner.devices = nil
	scanner.err = errors.New("scan devices: executable not found: smartctl")
	p.runCycle(context.Background())

	if got := p.Snapshot(); got != first {
		t.Error("cycle-level scan failure must leave the previous snapshot in place")
	}
}

func TestSnapshotBeforeFirstCycleIsEmptyNotNil(t *testing.T) {
	p := newTestPoller(&fakeScanner{}, &fakeReader{}, nil)

	snap := p.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() must never return nil")
	}
	if snap.Drives == nil || snap.Volumes == nil {
		t.Error("empty snapshot must carry non-nil slices")
	}
	if len(snap.Drives) != 0 {
		t.Errorf("got %d drives before first cycle, want 0", len(snap.Drives))
	}
}

func TestCycleIncludesVolumes(t *testing.T) {
	vols := &fakeVolumes{volumes: []types.VolumeRecord{
		{DriveLetter: "C:", VolumeName: "System", FreeGB: 120.5, UsedGB: 100.25, UsagePercent: 45.4},
	}}
	p := newTestPoller(&fakeScanner{devices: []string{"/dev/sda"}}, &fakeReader{}, vols)

	p.runCycle(context.Background())
	snap := p.Snapshot()

	if len(snap.Volumes) != 1 || snap.Volumes[0].DriveLetter != "C:" {
		t.Errorf("volumes not propagated: %+v", snap.Volumes)
	}
}

func TestCycleVolumeFailureDegradesToEmptyList(t *testing.T) {
	vols := &fakeVolumes{err: errors.New("mount table unavailable")}
	p := newTestPoller(&fakeScanner{devices: []string{"/dev/sda"}}, &fakeReader{}, vols)

	p.runCycle(context.Background())
	snap := p.Snapshot()

	if snap.Volumes == nil || len(snap.Volumes) != 0 {
		t.Errorf("volume failure must degrade to an empty list, got %+v", snap.Volumes)
	}
	if len(snap.Drives) != 1 {
		t.Error("volume failure must not suppress drive records")
	}
}

func TestRefreshCoalesces(t *testing.T) {
	p := newTestPoller(&fakeScanner{}, &fakeReader{}, nil)

	p.Refresh()
	p.Refresh()
	p.Refresh()

	select {
	case <-p.refresh:
	default:
		t.Fatal("expected one pending refresh")
	}
	select {
	case <-p.refresh:
		t.Error("concurrent refresh triggers must coalesce into one")
	default:
	}
}

func TestConcurrentRefreshNeverOverlapsSweeps(t *testing.T) {
	scanner := &fakeScanner{devices: []string{"/dev/sda", "/dev/sdb"}}
	reader := &fakeReader{delay: 2 * time.Millisecond}
	m := metrics.NewWith(prometheus.NewRegistry())
	p := New(scanner, reader, nil, m, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				p.Refresh()
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()
	cancel()
	<-done

	if atomic.LoadInt32(&reader.overlap) != 0 {
		t.Error("two probe sweeps ran concurrently against the same devices")
	}
	if atomic.LoadInt32(&reader.reads) == 0 {
		t.Error("expected at least one probe sweep")
	}
}
