// Package manager owns the background tick loop: double-buffered snapshot
// publication, config/obstacle reconfiguration, and auto-dt feedback
// (spec.md §4.5). It is the only package in this core allowed to log.
package manager

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"fluidcore/config"
	"fluidcore/grid"
	"fluidcore/obstacle"
	"fluidcore/particle"
	"fluidcore/simulator"
	"fluidcore/vecmath"
)

// iterTimeAlpha is the Manager's sliding-average iteration-time smoothing
// factor, 0.8 old / 0.2 new (spec.md §4.5 "Auto-dt").
const iterTimeAlpha = 0.8

// GfxParticle is one particle's graphics-facing state (spec.md §6
// "get_particle_gfx_snapshot").
type GfxParticle struct {
	Pos   vecmath.Vec3
	Speed float64
}

// Snapshot is the double-buffered particle view the Manager publishes once
// per tick, plus a monotonically increasing Generation so a consumer can
// detect whether a new tick actually ran without comparing vector contents
// (SPEC_FULL.md §6, supplementing spec.md's bare "get_particle_gfx_snapshot").
type Snapshot struct {
	Generation uint64
	Particles  []GfxParticle
}

// Manager drives the tick loop, holds the authoritative particle/grid/
// obstacle state, and publishes snapshots under lock (spec.md §4.5).
type Manager struct {
	mu   sync.Mutex
	wake chan struct{} // buffered tick permit; SetRun/StepOnce nudge the worker awake

	config    config.Configuration
	obstacles []*obstacle.Obstacle

	particles *particle.Set
	grid      *grid.Grid
	sim       *simulator.Simulator

	// rng seeds/reseeds particles during reconciliation, always under m.mu.
	// tickRng drives S1's spawn placement inside Simulate, which runs
	// lock-free; the two are kept separate because *rand.Rand is not safe
	// for concurrent use and Simulate must not need the lock to call it.
	rng     *rand.Rand
	tickRng *rand.Rand

	run              bool
	stepRequested    bool
	restartRequested bool
	autoDt           bool
	dt               float64
	avgIterTime      time.Duration

	snapshot Snapshot

	// Logger receives one line per worker lifecycle event and per tick
	// error; it defaults to a no-op so embedding callers who don't care
	// about diagnostics pay nothing (spec.md §2 ambient stack).
	Logger func(format string, args ...any)
}

// New constructs a Manager from cfg, allocating the grid and particle set
// it describes. It returns Validate's error, and no Manager, when cfg is
// invalid.
func New(cfg *config.Configuration) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		config: *cfg.Clone(),
		dt:      1.0 / 60,
		rng:     rand.New(rand.NewSource(1)),
		tickRng: rand.New(rand.NewSource(2)),
		wake:    make(chan struct{}, 1),
		Logger: func(string, ...any) {},
	}
	m.rebuildGridAndParticles()
	m.sim = simulator.New(m.particles, m.grid, m.config)
	m.refreshSnapshotLocked()
	return m, nil
}

func (m *Manager) rebuildGridAndParticles() {
	c := m.config
	m.grid = grid.New(c.WorldSize, c.GridResolution, c.Simulation2D, c.IsTopOfContainerSolid)

	margin := c.ParticleRadius
	domain := particle.Domain{
		Low:          vecmath.NewVec3(margin, margin, margin),
		High:         c.WorldSize.Sub(vecmath.NewVec3(margin, margin, margin)),
		Simulation2D: c.Simulation2D,
		FixedZ:       c.WorldSize.Z / 2,
	}
	m.particles = particle.New(c.ParticleRadius, domain)
	m.particles.SeedRandom(m.rng, c.NumParticles)
}

// Start spawns the worker goroutine. It returns immediately; the worker
// runs until ctx is cancelled, at which point it finishes the tick in
// progress (if any) and exits (spec.md §4.5 Lifecycle, §5 Cancellation).
func (m *Manager) Start(ctx context.Context) {
	go m.loop(ctx)
}

func (m *Manager) loop(ctx context.Context) {
	m.Logger("manager: worker started")
	defer m.Logger("manager: worker stopped")

	for {
		m.mu.Lock()
		runnable := m.run || m.stepRequested
		m.mu.Unlock()

		if !runnable {
			select {
			case <-ctx.Done():
				return
			case <-m.wake:
				continue
			}
		}

		m.mu.Lock()
		m.stepRequested = false
		m.reconcileLocked()
		dt := m.dt
		sim := m.sim
		m.mu.Unlock()

		start := time.Now()
		if err := sim.Simulate(context.Background(), m.tickRng, dt); err != nil {
			m.Logger("manager: tick failed: %v", err)
		}
		elapsed := time.Since(start)

		m.mu.Lock()
		m.avgIterTime = time.Duration(iterTimeAlpha*float64(m.avgIterTime) + (1-iterTimeAlpha)*float64(elapsed))
		if m.autoDt {
			m.dt = m.avgIterTime.Seconds()
		}
		m.refreshSnapshotLocked()
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// nudge wakes the worker if it is parked waiting for run/step-once
// (spec.md §4.5 step 8, §9 "a chan struct{} tick permit").
func (m *Manager) nudge() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// reconcileLocked implements tick-loop skeleton steps 2-6 (spec.md §4.5);
// called with m.mu held.
func (m *Manager) reconcileLocked() {
	if m.restartRequested {
		m.particles.Reseed(m.rng, m.config.NumParticles)
		m.restartRequested = false
	}

	m.particles.SetTargetCount(m.rng, m.config.NumParticles)
	m.particles.Radius = m.config.ParticleRadius

	clones := obstacle.CloneList(m.obstacles)
	for i, o := range clones {
		o.ComputeSpeed(m.dt)
		m.obstacles[i].SetNewPos(m.obstacles[i].Pos)
	}
	m.sim.Obstacles = clones
	m.sim.Config = m.config
}

func (m *Manager) refreshSnapshotLocked() {
	particles := m.particles.Particles
	gfx := make([]GfxParticle, len(particles))
	for i, p := range particles {
		gfx[i] = GfxParticle{Pos: p.Pos, Speed: p.Vel.Length()}
	}
	m.snapshot = Snapshot{Generation: m.snapshot.Generation + 1, Particles: gfx}
}

// SetRun toggles continuous ticking; false parks the worker at the next
// wait point (spec.md §4.5 "set_run").
func (m *Manager) SetRun(run bool) {
	m.mu.Lock()
	m.run = run
	m.mu.Unlock()
	m.nudge()
}

// StepOnce requests exactly one tick even if the loop is paused (spec.md
// §4.5 "step_once").
func (m *Manager) StepOnce() {
	m.mu.Lock()
	m.stepRequested = true
	m.mu.Unlock()
	m.nudge()
}

// SetAutoDt toggles the sliding-average dt feedback loop (spec.md §4.5
// "Auto-dt").
func (m *Manager) SetAutoDt(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoDt = enabled
}

// SetSimulationDt sets the fixed tick dt used when auto-dt is disabled.
func (m *Manager) SetSimulationDt(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dt = dt
}

// SetConfig validates and applies cfg, rejecting and keeping the previous
// configuration on failure (spec.md §7 "no tick advances with an invalid
// config"). If cfg's grid-affecting fields differ from the current
// configuration, the grid and particle set are reallocated at the next
// tick boundary.
func (m *Manager) SetConfig(cfg config.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("manager: rejected config: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.GridAffecting(&cfg) {
		m.config = cfg
		m.rebuildGridAndParticles()
		m.sim.Grid = m.grid
		m.sim.Particles = m.particles
	} else {
		domain := m.particles.Domain
		margin := cfg.ParticleRadius
		domain.Low = vecmath.NewVec3(margin, margin, margin)
		domain.High = cfg.WorldSize.Sub(vecmath.NewVec3(margin, margin, margin))
		m.particles.UpdateDomain(domain)
		m.config = cfg
	}
	m.sim.Config = m.config
	return nil
}

// GetConfig returns a copy of the current configuration.
func (m *Manager) GetConfig() config.Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// SetObstacles replaces the authoritative obstacle list with a deep clone
// of list (spec.md §4.5 "set_obstacles").
func (m *Manager) SetObstacles(list []*obstacle.Obstacle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obstacles = obstacle.CloneList(list)
}

// GetObstacles returns a deep clone of the authoritative obstacle list
// (spec.md §4.5 "get_obstacles ... the returned vec is a deep clone").
func (m *Manager) GetObstacles() []*obstacle.Obstacle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return obstacle.CloneList(m.obstacles)
}

// SetParticleNum changes the target particle count, reconciled at the
// next tick boundary (spec.md §4.5 "set_particle_num").
func (m *Manager) SetParticleNum(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.NumParticles = n
}

// Restart requests the particle set be replaced with a fresh random one
// at the next tick boundary (spec.md §4.5 "restart").
func (m *Manager) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restartRequested = true
}

// GetParticleGfxSnapshot returns the most recently published snapshot
// (spec.md §4.5 "get_particle_gfx_snapshot").
func (m *Manager) GetParticleGfxSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// GetStepDurations returns the simulator's per-substep timing EMA under a
// read lock (spec.md §4.5 "get_step_durations").
func (m *Manager) GetStepDurations() map[string]time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.StepDurations()
}
