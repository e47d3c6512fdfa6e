// ABOUTME: Connectivity monitoring for the sync engine
// ABOUTME: Probes remote reachability and notifies subscribers on transitions
package engine

import (
	"context"
	"sync"
	"time"
)

// ConnectivityMonitor answers "are we online right now" and notifies
// subscribers when the answer flips.
type ConnectivityMonitor interface {
	Online() bool
	Subscribe(fn func(online bool))
}

// ProbeFunc checks remote reachability. A nil return means online.
type ProbeFunc func(ctx context.Context) error

// ProbeMonitor polls a probe on an interval and tracks transitions.
// It starts pessimistic (offline) until the first probe succeeds.
type ProbeMonitor struct {
	probe    ProbeFunc
	interval time.Duration

	mu     sync.Mutex
	online bool
	subs   []func(bool)
}

func NewProbeMonitor(probe ProbeFunc, interval time.Duration) *ProbeMonitor {
	if interval <= 0 {
		interval = 20 * time.Second
	}
	return &ProbeMonitor{probe: probe, interval: interval}
}

func (m *ProbeMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *ProbeMonitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Run probes once immediately, then on every tick, until ctx is done.
func (m *ProbeMonitor) Run(ctx context.Context) {
	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one probe and fires subscribers if the state flipped.
func (m *ProbeMonitor) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	online := m.probe(probeCtx) == nil

	m.mu.Lock()
	changed := online != m.online
	m.online = online
	subs := m.subs
	m.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(online)
		}
	}
	return online
}

// StaticMonitor is a manually driven monitor for tests and the
// --offline CLI flag.
type StaticMonitor struct {
	mu     sync.Mutex
	online bool
	subs   []func(bool)
}

func NewStaticMonitor(online bool) *StaticMonitor {
	return &StaticMonitor{online: online}
}

func (m *StaticMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *StaticMonitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// SetOnline flips the state and fires subscribers on a transition.
func (m *StaticMonitor) SetOnline(online bool) {
	m.mu.Lock()
	changed := online != m.online
	m.online = online
	subs := m.subs
	m.mu.Unlock()
	if changed {
		for _, fn := range subs {
			fn(online)
		}
	}
}
