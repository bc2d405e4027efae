// Package config holds the mutable configuration the core exposes to its
// caller (spec.md §6): grid/solver parameters plus the nested simulator
// transfer-scheme configuration.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"fluidcore/vecmath"
)

// TransferType selects the particle<->grid velocity transfer scheme.
type TransferType int

const (
	TransferPIC TransferType = iota
	TransferFLIP
	TransferAPIC
)

func (t TransferType) String() string {
	switch t {
	case TransferPIC:
		return "PIC"
	case TransferFLIP:
		return "FLIP"
	case TransferAPIC:
		return "APIC"
	default:
		return "UNKNOWN"
	}
}

// GridSolverType selects the pressure-projection algorithm.
type GridSolverType int

const (
	SolverBridson GridSolverType = iota
	SolverBasic
)

func (s GridSolverType) String() string {
	switch s {
	case SolverBridson:
		return "BRIDSON"
	case SolverBasic:
		return "BASIC"
	default:
		return "UNKNOWN"
	}
}

// SimulatorConfig configures the per-tick driver (spec.md §4.4).
type SimulatorConfig struct {
	TransferType TransferType `yaml:"transferType"`
	// FlipRatio blends FLIP (1.0) and PIC (0.0) reconstruction in G2P.
	FlipRatio float64 `yaml:"flipRatio"`
	// Gravity is a signed scalar acceleration applied on the y-face.
	Gravity float64 `yaml:"gravity"`

	GravityEnabled            bool `yaml:"gravityEnabled"`
	PushApartEnabled          bool `yaml:"pushApartEnabled"`
	ParticleSpawningEnabled   bool `yaml:"particleSpawningEnabled"`
	ParticleDespawningEnabled bool `yaml:"particleDespawningEnabled"`
	StopParticles             bool `yaml:"stopParticles"`
}

// DefaultSimulatorConfig returns sane defaults matching the shipped core.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		TransferType:              TransferFLIP,
		FlipRatio:                 0.95,
		Gravity:                   -9.81,
		GravityEnabled:            true,
		PushApartEnabled:          true,
		ParticleSpawningEnabled:   true,
		ParticleDespawningEnabled: true,
		StopParticles:             false,
	}
}

// Configuration is the mutable configuration struct the core exposes
// (spec.md §6). Grid-affecting fields (GridResolution, WorldSize,
// Simulation2D, IsTopOfContainerSolid, GridSolverType) require the Manager
// to reallocate the grid when changed; the rest are propagated in place.
type Configuration struct {
	// WorldSize is the requested world dimension D on each axis (spec.md §4.2
	// Construction). In 2-D mode WorldSize.Z is the full slab depth and the
	// grid derives a three-cell-thick z resolution from it.
	WorldSize vecmath.Vec3 `yaml:"worldSize"`

	// GridResolution is cells per unit length (r in spec.md §4.2), > 0.5.
	GridResolution float64 `yaml:"gridResolution"`
	// ParticleRadius is the particle radius r, in world length units.
	ParticleRadius float64 `yaml:"particleRadius"`
	// Simulation2D selects the three-cell-thick slab degenerate mode.
	Simulation2D bool `yaml:"simulation2D"`
	// IsTopOfContainerSolid controls whether the y=ny-1 layer is SOLID.
	IsTopOfContainerSolid bool `yaml:"isTopOfContainerSolid"`

	// PressureK and AveragePressure are carried in the configuration but
	// are not read by either pressure solver; no compressibility-relaxation
	// term is added to the right-hand side. PressureEnabled switches the
	// whole pressure projection step on or off.
	PressureK       float64 `yaml:"pressureK"`
	AveragePressure float64 `yaml:"averagePressure"`
	PressureEnabled bool    `yaml:"pressureEnabled"`

	IncompressibilityIterationCount int            `yaml:"incompressibilityIterationCount"`
	ResidualTolerance               float64        `yaml:"residualTolerance"`
	FluidDensity                    float64        `yaml:"fluidDensity"`
	GridSolverType                  GridSolverType `yaml:"gridSolverType"`

	NumParticles int `yaml:"numParticles"`

	SimulatorConfig SimulatorConfig `yaml:"simulatorConfig"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Configuration {
	return &Configuration{
		WorldSize:                       vecmath.NewVec3(10, 10, 10),
		GridResolution:                  1.0,
		ParticleRadius:                  0.1,
		Simulation2D:                    false,
		IsTopOfContainerSolid:           false,
		PressureK:                       0.0,
		AveragePressure:                 0.0,
		PressureEnabled:                 true,
		IncompressibilityIterationCount: 100,
		ResidualTolerance:               1e-6,
		FluidDensity:                    1.0,
		GridSolverType:                  SolverBridson,
		NumParticles:                    1000,
		SimulatorConfig:                 DefaultSimulatorConfig(),
	}
}

// Validate checks if the configuration is valid. Configuration errors are
// reported at configure time; no tick advances with an invalid config
// (spec.md §7).
func (c *Configuration) Validate() error {
	if c.GridResolution <= 0.5 {
		return fmt.Errorf("invalid grid resolution: %f (must be > 0.5)", c.GridResolution)
	}
	if c.ParticleRadius <= 0 {
		return fmt.Errorf("invalid particle radius: %f", c.ParticleRadius)
	}
	if c.WorldSize.X <= 0 || c.WorldSize.Y <= 0 || c.WorldSize.Z <= 0 {
		return fmt.Errorf("invalid world size: %+v", c.WorldSize)
	}
	if c.FluidDensity <= 0 {
		return fmt.Errorf("invalid fluid density: %f", c.FluidDensity)
	}
	if c.IncompressibilityIterationCount < 1 || c.IncompressibilityIterationCount > 600 {
		return fmt.Errorf("invalid incompressibility iteration count: %d (must be 1..600)", c.IncompressibilityIterationCount)
	}
	if c.ResidualTolerance < 0 {
		return fmt.Errorf("invalid residual tolerance: %f", c.ResidualTolerance)
	}
	if c.NumParticles < 0 {
		return fmt.Errorf("invalid number of particles: %d", c.NumParticles)
	}
	if c.SimulatorConfig.FlipRatio < 0 || c.SimulatorConfig.FlipRatio > 1 {
		return fmt.Errorf("invalid flip ratio: %f (must be in [0,1])", c.SimulatorConfig.FlipRatio)
	}
	switch c.GridSolverType {
	case SolverBridson, SolverBasic:
	default:
		return fmt.Errorf("invalid grid solver type: %d", c.GridSolverType)
	}
	switch c.SimulatorConfig.TransferType {
	case TransferPIC, TransferFLIP, TransferAPIC:
	default:
		return fmt.Errorf("invalid transfer type: %d", c.SimulatorConfig.TransferType)
	}
	return nil
}

// LoadYAML parses a YAML document into a Configuration, starting from
// DefaultConfig so an embedding application's config file only needs to
// name the fields it overrides. The result is validated before return.
func LoadYAML(data []byte) (*Configuration, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToYAML renders the configuration back to YAML, the inverse of LoadYAML.
func (c *Configuration) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Clone creates a deep copy of the configuration. Configuration has no
// reference-typed fields, so a value copy already qualifies.
func (c *Configuration) Clone() *Configuration {
	clone := *c
	return &clone
}

// GridAffecting reports whether b's grid-affecting fields differ from c's,
// i.e. whether applying b requires the Manager to reallocate the grid
// (spec.md §4.5 step 2, supplemented per SPEC_FULL.md §6).
func (c *Configuration) GridAffecting(b *Configuration) bool {
	return c.WorldSize != b.WorldSize ||
		c.GridResolution != b.GridResolution ||
		c.Simulation2D != b.Simulation2D ||
		c.IsTopOfContainerSolid != b.IsTopOfContainerSolid ||
		c.GridSolverType != b.GridSolverType
}
