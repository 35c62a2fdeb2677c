package tuning

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/grid"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

type Tuning struct {
	RealmID string `yaml:"realm_id" env:"NMMO_REALM_ID"`

	NEnt int `yaml:"nent" env:"NMMO_NENT"`
	NPop int `yaml:"npop" env:"NMMO_NPOP"`
	Stim int `yaml:"stim" env:"NMMO_STIM"`

	Seed       int64  `yaml:"seed" env:"NMMO_SEED"`
	TickRateHz int    `yaml:"tick_rate_hz" env:"NMMO_TICK_RATE_HZ"`
	NamePrefix string `yaml:"name_prefix" env:"NMMO_NAME_PREFIX"`

	LogEveryTicks int `yaml:"log_every_ticks" env:"NMMO_LOG_EVERY_TICKS"`

	Map    MapTuning    `yaml:"map" envPrefix:"NMMO_MAP_"`
	Player PlayerTuning `yaml:"player" envPrefix:"NMMO_PLAYER_"`
}

type MapTuning struct {
	Rows        int `yaml:"rows" env:"ROWS"`
	Cols        int `yaml:"cols" env:"COLS"`
	Border      int `yaml:"border" env:"BORDER"`
	RegrowTicks int `yaml:"regrow_ticks" env:"REGROW_TICKS"`
}

type PlayerTuning struct {
	MaxHealth   int `yaml:"max_health" env:"MAX_HEALTH"`
	MaxFood     int `yaml:"max_food" env:"MAX_FOOD"`
	MaxWater    int `yaml:"max_water" env:"MAX_WATER"`
	MeleeDamage int `yaml:"melee_damage" env:"MELEE_DAMAGE"`
	MeleeRange  int `yaml:"melee_range" env:"MELEE_RANGE"`
	RangeDamage int `yaml:"range_damage" env:"RANGE_DAMAGE"`
	RangeRange  int `yaml:"range_range" env:"RANGE_RANGE"`
}

func Defaults() Tuning {
	pc := entity.DefaultConfig()
	return Tuning{
		RealmID:       "realm_0",
		NEnt:          128,
		NPop:          8,
		Stim:          7,
		Seed:          1337,
		TickRateHz:    5,
		NamePrefix:    "Neural_",
		LogEveryTicks: 300,
		Map: MapTuning{
			Rows:        80,
			Cols:        80,
			Border:      8,
			RegrowTicks: 100,
		},
		Player: PlayerTuning{
			MaxHealth:   pc.MaxHealth,
			MaxFood:     pc.MaxFood,
			MaxWater:    pc.MaxWater,
			MeleeDamage: pc.MeleeDamage,
			MeleeRange:  pc.MeleeRange,
			RangeDamage: pc.RangeDamage,
			RangeRange:  pc.RangeRange,
		},
	}
}

// Load reads path over the defaults, then applies NMMO_* environment
// overrides. An empty path skips the file.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return t, err
		}
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return t, fmt.Errorf("tuning.yaml: %w", err)
		}
	}
	if err := env.Parse(&t); err != nil {
		return t, fmt.Errorf("tuning env: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.NEnt <= 0 {
		errs = append(errs, fmt.Errorf("nent must be positive, got %d", t.NEnt))
	}
	if t.NPop <= 0 {
		errs = append(errs, fmt.Errorf("npop must be positive, got %d", t.NPop))
	} else if t.NEnt < t.NPop {
		errs = append(errs, fmt.Errorf("nent (%d) must be at least npop (%d)", t.NEnt, t.NPop))
	}
	if t.Stim < 0 {
		errs = append(errs, fmt.Errorf("stim must not be negative, got %d", t.Stim))
	}
	if t.Map.Rows <= 2*t.Map.Border || t.Map.Cols <= 2*t.Map.Border {
		errs = append(errs, fmt.Errorf("map %dx%d too small for border %d", t.Map.Rows, t.Map.Cols, t.Map.Border))
	}
	if len(errs) > 0 {
		return fmt.Errorf("tuning: %w", errors.Join(errs...))
	}
	return nil
}

func (t Tuning) RealmConfig() realm.Config {
	return realm.Config{
		ID:            t.RealmID,
		NEnt:          t.NEnt,
		NPop:          t.NPop,
		Stim:          t.Stim,
		Seed:          t.Seed,
		NamePrefix:    t.NamePrefix,
		TickRateHz:    t.TickRateHz,
		LogEveryTicks: t.LogEveryTicks,
	}
}

func (t Tuning) GridConfig() grid.Config {
	return grid.Config{
		Rows:        t.Map.Rows,
		Cols:        t.Map.Cols,
		Border:      t.Map.Border,
		Seed:        t.Seed,
		RegrowTicks: t.Map.RegrowTicks,
	}
}

func (t Tuning) PlayerConfig() entity.Config {
	return entity.Config{
		MaxHealth:   t.Player.MaxHealth,
		MaxFood:     t.Player.MaxFood,
		MaxWater:    t.Player.MaxWater,
		MeleeDamage: t.Player.MeleeDamage,
		MeleeRange:  t.Player.MeleeRange,
		RangeDamage: t.Player.RangeDamage,
		RangeRange:  t.Player.RangeRange,
	}
}
