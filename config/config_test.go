package config

import (
	"testing"

	"fluidcore/vecmath"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GridResolution != 1.0 {
		t.Errorf("Expected GridResolution 1.0, got %f", cfg.GridResolution)
	}
	if cfg.ParticleRadius != 0.1 {
		t.Errorf("Expected ParticleRadius 0.1, got %f", cfg.ParticleRadius)
	}
	if cfg.WorldSize != vecmath.NewVec3(10, 10, 10) {
		t.Errorf("Expected WorldSize (10,10,10), got %+v", cfg.WorldSize)
	}
	if cfg.FluidDensity != 1.0 {
		t.Errorf("Expected FluidDensity 1.0, got %f", cfg.FluidDensity)
	}
	if cfg.GridSolverType != SolverBridson {
		t.Errorf("Expected default solver BRIDSON, got %v", cfg.GridSolverType)
	}
	if cfg.SimulatorConfig.TransferType != TransferFLIP {
		t.Errorf("Expected default transfer FLIP, got %v", cfg.SimulatorConfig.TransferType)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Configuration)
		wantError bool
	}{
		{"valid config", func(c *Configuration) {}, false},
		{"grid resolution too low", func(c *Configuration) { c.GridResolution = 0.5 }, true},
		{"negative particle radius", func(c *Configuration) { c.ParticleRadius = -1 }, true},
		{"zero world size", func(c *Configuration) { c.WorldSize.X = 0 }, true},
		{"non-positive density", func(c *Configuration) { c.FluidDensity = 0 }, true},
		{"iteration count too high", func(c *Configuration) { c.IncompressibilityIterationCount = 601 }, true},
		{"iteration count too low", func(c *Configuration) { c.IncompressibilityIterationCount = 0 }, true},
		{"negative particle count", func(c *Configuration) { c.NumParticles = -1 }, true},
		{"flip ratio out of range", func(c *Configuration) { c.SimulatorConfig.FlipRatio = 1.5 }, true},
		{"unknown solver type", func(c *Configuration) { c.GridSolverType = GridSolverType(99) }, true},
		{"unknown transfer type", func(c *Configuration) { c.SimulatorConfig.TransferType = TransferType(99) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	clone.GridResolution = 5.0
	clone.SimulatorConfig.Gravity = 0

	if cfg.GridResolution == clone.GridResolution {
		t.Errorf("Clone should be independent of the original")
	}
	if cfg.SimulatorConfig.Gravity == clone.SimulatorConfig.Gravity {
		t.Errorf("Clone should deep copy the nested SimulatorConfig")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridResolution = 2.0
	cfg.SimulatorConfig.TransferType = TransferAPIC

	data, err := cfg.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error = %v", err)
	}

	loaded, err := LoadYAML(data)
	if err != nil {
		t.Fatalf("LoadYAML() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: got %+v, want %+v", loaded, cfg)
	}
}

func TestLoadYAMLRejectsInvalidConfig(t *testing.T) {
	_, err := LoadYAML([]byte("fluidDensity: -1\n"))
	if err == nil {
		t.Errorf("expected LoadYAML to reject a negative fluid density")
	}
}

func TestGridAffecting(t *testing.T) {
	a := DefaultConfig()
	b := a.Clone()

	if a.GridAffecting(b) {
		t.Errorf("identical configs should not be grid-affecting")
	}

	b.GridResolution = 2.0
	if !a.GridAffecting(b) {
		t.Errorf("changed GridResolution should be grid-affecting")
	}

	b = a.Clone()
	b.SimulatorConfig.Gravity = 0
	if a.GridAffecting(b) {
		t.Errorf("changing SimulatorConfig alone should not be grid-affecting")
	}
}
