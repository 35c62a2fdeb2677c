package realm

import "fmt"

// Spawner is the population ledger. It enforces the total entity cap and the
// per-population slot size. A population with no live entities has no entry.
type Spawner struct {
	nEnt     int
	nPop     int
	slotSize int

	total int
	pops  map[int]int
}

// NewSpawner fixes the slot size at nEnt/nPop (floor).
func NewSpawner(nEnt, nPop int) *Spawner {
	if nPop <= 0 {
		nPop = 1
	}
	return &Spawner{
		nEnt:     nEnt,
		nPop:     nPop,
		slotSize: nEnt / nPop,
		pops:     map[int]int{},
	}
}

// Admit reserves a slot for pop. It returns false and changes nothing when
// either the total cap or the population's slot size is reached.
func (s *Spawner) Admit(pop int) bool {
	if s.total >= s.nEnt {
		return false
	}
	if s.pops[pop] >= s.slotSize {
		return false
	}
	s.pops[pop]++
	s.total++
	return true
}

// Release frees one slot of pop. Releasing a population or total already at
// zero is a caller bug and reported as ErrLedgerUnderflow.
func (s *Spawner) Release(pop int) error {
	n := s.pops[pop]
	if n < 1 || s.total < 1 {
		return fmt.Errorf("%w: pop=%d count=%d total=%d", ErrLedgerUnderflow, pop, n, s.total)
	}
	s.total--
	if n == 1 {
		delete(s.pops, pop)
		return nil
	}
	s.pops[pop] = n - 1
	return nil
}

func (s *Spawner) Count(pop int) int { return s.pops[pop] }
func (s *Spawner) Total() int        { return s.total }
func (s *Spawner) SlotSize() int     { return s.slotSize }
func (s *Spawner) Cap() int          { return s.nEnt }

// Populations returns a copy of the live counts. Absent keys mean zero.
func (s *Spawner) Populations() map[int]int {
	out := make(map[int]int, len(s.pops))
	for k, v := range s.pops {
		out[k] = v
	}
	return out
}
