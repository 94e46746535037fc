package analysis

import (
	"errors"
	"testing"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"brrr", StrategyBRRR, false},
		{"cash_flow", StrategyCashFlow, false},
		{"flip", StrategyFlip, false},
		{"wholesale", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownStrategy) {
					t.Errorf("err = %v, want ErrUnknownStrategy", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	cfg := defaultConfig()
	cfg.Strategies = []string{"flip", "brrr", "flip"}

	reg, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	got := reg.Strategies()
	if len(got) != 2 || got[0] != StrategyFlip || got[1] != StrategyBRRR {
		t.Errorf("Strategies() = %v, want [flip brrr]", got)
	}

	a, err := reg.Get(StrategyBRRR)
	if err != nil {
		t.Fatalf("Get(brrr): %v", err)
	}
	if a.Strategy() != StrategyBRRR {
		t.Errorf("analyzer strategy = %q", a.Strategy())
	}

	if _, err := reg.Get(StrategyCashFlow); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Get(cash_flow) err = %v, want ErrUnknownStrategy", err)
	}
}

func TestRegistryRejectsUnknownStrategy(t *testing.T) {
	cfg := defaultConfig()
	cfg.Strategies = []string{"brrr", "wholesale"}

	if _, err := NewRegistry(cfg); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("err = %v, want ErrUnknownStrategy", err)
	}
}

func TestTier(t *testing.T) {
	th := []float64{25, 15, 10}
	pts := []float64{40, 30, 20}

	tests := []struct {
		v    float64
		want float64
	}{
		{30, 40},
		{25, 40},
		{24.99, 30},
		{10, 20},
		{9.99, 0},
		{-5, 0},
	}
	for _, tt := range tests {
		if got := tier(tt.v, th, pts); got != tt.want {
			t.Errorf("tier(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
