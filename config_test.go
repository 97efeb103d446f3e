// config_test.go: unit tests for reftable configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"math"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   Config
	}{
		{
			name:   "default config is kept",
			config: Config{InitialCapacity: DefaultInitialCapacity, LoadFactor: DefaultLoadFactor},
			want: Config{
				InitialCapacity: DefaultInitialCapacity,
				LoadFactor:      DefaultLoadFactor,
				SoftPinLimit:    DefaultSoftPinLimit,
			},
		},
		{
			name:   "explicit values are kept",
			config: Config{InitialCapacity: 4, LoadFactor: 2, Strength: Soft, SoftPinLimit: 9},
			want:   Config{InitialCapacity: 4, LoadFactor: 2, Strength: Soft, SoftPinLimit: 9},
		},
		{
			name:   "zero capacity is kept",
			config: Config{LoadFactor: 1},
			want:   Config{LoadFactor: 1, SoftPinLimit: DefaultSoftPinLimit},
		},
		{
			name:   "oversized capacity is clamped",
			config: Config{InitialCapacity: MaximumCapacity * 2, LoadFactor: DefaultLoadFactor},
			want: Config{
				InitialCapacity: MaximumCapacity,
				LoadFactor:      DefaultLoadFactor,
				SoftPinLimit:    DefaultSoftPinLimit,
			},
		},
		{
			name:   "negative pin limit uses default",
			config: Config{LoadFactor: DefaultLoadFactor, SoftPinLimit: -3},
			want: Config{
				LoadFactor:   DefaultLoadFactor,
				SoftPinLimit: DefaultSoftPinLimit,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if cfg.InitialCapacity != tt.want.InitialCapacity {
				t.Errorf("InitialCapacity = %d, want %d", cfg.InitialCapacity, tt.want.InitialCapacity)
			}
			if cfg.LoadFactor != tt.want.LoadFactor {
				t.Errorf("LoadFactor = %v, want %v", cfg.LoadFactor, tt.want.LoadFactor)
			}
			if cfg.Strength != tt.want.Strength {
				t.Errorf("Strength = %v, want %v", cfg.Strength, tt.want.Strength)
			}
			if cfg.SoftPinLimit != tt.want.SoftPinLimit {
				t.Errorf("SoftPinLimit = %d, want %d", cfg.SoftPinLimit, tt.want.SoftPinLimit)
			}
			if cfg.Logger == nil || cfg.TimeProvider == nil || cfg.MetricsCollector == nil {
				t.Error("Validate() left a nil dependency")
			}
		})
	}
}

func TestConfig_ValidateRejects(t *testing.T) {
	bad := []Config{
		{InitialCapacity: -1, LoadFactor: DefaultLoadFactor},
		{},
		{InitialCapacity: 16},
		{LoadFactor: -1},
		{LoadFactor: math.NaN()},
		{LoadFactor: math.Inf(-1)},
		{LoadFactor: DefaultLoadFactor, Strength: Soft + 1},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil || !IsConfigError(err) {
			t.Errorf("Validate(%+v) error = %v, want a config error", cfg, err)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.InitialCapacity != DefaultInitialCapacity || cfg.LoadFactor != DefaultLoadFactor {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.Strength != Weak {
		t.Errorf("DefaultConfig().Strength = %v", cfg.Strength)
	}
}

func TestStrength_String(t *testing.T) {
	tests := map[Strength]string{
		Weak:        "weak",
		Soft:        "soft",
		Strength(7): "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Strength(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestThresholdFor(t *testing.T) {
	if got := thresholdFor(16, 0.75); got != 12 {
		t.Errorf("thresholdFor(16, 0.75) = %d", got)
	}
	if got := thresholdFor(4, 0.75); got != 3 {
		t.Errorf("thresholdFor(4, 0.75) = %d", got)
	}
	if got := thresholdFor(MaximumCapacity, 1e12); got != math.MaxInt {
		t.Errorf("thresholdFor() overflow = %d, want MaxInt", got)
	}
}

func TestSystemTimeProvider(t *testing.T) {
	tp := SystemTimeProvider()
	if tp.Now() <= 0 {
		t.Error("Now() should be positive")
	}
}
