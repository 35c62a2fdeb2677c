package realm

import "sort"

// ActionKind names an action family and the tier it is applied in.
// Lower priorities are applied first across the whole population.
type ActionKind struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// Args are interpreted by the entity applying the action.
type Args []int

type Choice struct {
	Kind ActionKind `json:"kind"`
	Args Args       `json:"args,omitempty"`
}

// Decision is one entity's ordered list of choices for a tick.
type Decision []Choice

// Decisions maps live entities to their choices for the next tick.
type Decisions map[EntityID]Decision

type pendingAct struct {
	id     EntityID
	choice Choice
}

type tier struct {
	priority int
	acts     []pendingAct
}

// prioritize buckets every entity's choices by priority. Only the first
// choice an entity submits for a given priority is kept; later ones in the
// same tier are dropped, giving each entity one slot per tier per tick.
// Tiers come back in ascending priority, acts within a tier by entity id.
func prioritize(ids []EntityID, decisions Decisions) []tier {
	byPriority := map[int]map[EntityID]Choice{}
	for _, id := range ids {
		for _, c := range decisions[id] {
			slot := byPriority[c.Kind.Priority]
			if slot == nil {
				slot = map[EntityID]Choice{}
				byPriority[c.Kind.Priority] = slot
			}
			if _, taken := slot[id]; taken {
				continue
			}
			slot[id] = c
		}
	}

	tiers := make([]tier, 0, len(byPriority))
	for p, slot := range byPriority {
		t := tier{priority: p, acts: make([]pendingAct, 0, len(slot))}
		for id, c := range slot {
			t.acts = append(t.acts, pendingAct{id: id, choice: c})
		}
		sort.Slice(t.acts, func(i, j int) bool { return t.acts[i].id < t.acts[j].id })
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].priority < tiers[j].priority })
	return tiers
}

func sortedIDs(decisions Decisions) []EntityID {
	ids := make([]EntityID, 0, len(decisions))
	for id := range decisions {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
