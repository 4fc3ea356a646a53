// Package monitoring samples process memory and wall-clock time around the
// scraping phase. Observation only; it never alters scraping behavior.
package monitoring

import (
	"runtime"
	"sync"
	"time"
)

// Snapshot summarizes one monitored interval.
type Snapshot struct {
	Elapsed       time.Duration
	StartHeap     uint64
	PeakHeap      uint64
	HeapDelta     uint64 // peak minus start, 0 if heap shrank
	SampleCount   int
	SampleEveryMs int64
}

// Monitor periodically samples runtime heap usage until stopped.
type Monitor struct {
	interval time.Duration
	start    time.Time

	mu        sync.Mutex
	startHeap uint64
	peakHeap  uint64
	samples   int

	stop chan struct{}
	done chan struct{}
}

// Start begins sampling at the given interval (default 50ms).
func Start(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	m := &Monitor{
		interval: interval,
		start:    time.Now(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	m.startHeap = heapAlloc()
	m.peakHeap = m.startHeap

	go m.loop()
	return m
}

// Stop ends sampling and returns the final snapshot. Safe to call once.
func (m *Monitor) Stop() Snapshot {
	close(m.stop)
	<-m.done

	m.sample()

	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Elapsed:       time.Since(m.start),
		StartHeap:     m.startHeap,
		PeakHeap:      m.peakHeap,
		SampleCount:   m.samples,
		SampleEveryMs: m.interval.Milliseconds(),
	}
	if snap.PeakHeap > snap.StartHeap {
		snap.HeapDelta = snap.PeakHeap - snap.StartHeap
	}
	return snap
}

func (m *Monitor) loop() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	heap := heapAlloc()
	m.mu.Lock()
	m.samples++
	if heap > m.peakHeap {
		m.peakHeap = heap
	}
	m.mu.Unlock()
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
