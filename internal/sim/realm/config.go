package realm

import "fmt"

type Config struct {
	ID string

	// NEnt caps live entities across all populations; NPop splits the cap
	// into NEnt/NPop slots per population.
	NEnt int
	NPop int
	// Stim is the observation radius around each entity.
	Stim int

	Seed       int64
	NamePrefix string
	TickRateHz int

	// LogEveryTicks controls the periodic summary line; 0 disables it.
	LogEveryTicks int
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "realm_0"
	}
	if c.NPop <= 0 {
		c.NPop = 1
	}
	if c.Stim <= 0 {
		c.Stim = 7
	}
	if c.NamePrefix == "" {
		c.NamePrefix = "Neural_"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
}

func (c Config) validate() error {
	if c.NEnt <= 0 {
		return fmt.Errorf("nent must be positive, got %d", c.NEnt)
	}
	if c.NEnt < c.NPop {
		return fmt.Errorf("nent (%d) must be at least npop (%d)", c.NEnt, c.NPop)
	}
	return nil
}
