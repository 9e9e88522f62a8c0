package grid

// HazardCache holds, for each of the four loadouts, the union of every agent's
// zone. It is computed once per map and never mutated.
type HazardCache struct {
	zones [4]CellSet
}

// NewHazardCache builds the cache for m.
func NewHazardCache(m *MapDefinition) *HazardCache {
	hc := &HazardCache{}
	for _, l := range Loadouts {
		zone := make(CellSet)
		for _, a := range m.Agents {
			for c := range a.Zone(l) {
				zone.Add(c)
			}
		}
		hc.zones[l.index()] = zone
	}
	return hc
}

// Zone returns the lethal cells for loadout l. Callers must not modify the set.
func (h *HazardCache) Zone(l Loadout) CellSet {
	return h.zones[l.index()]
}

// Lethal reports whether c is inside the hazard zone for l.
func (h *HazardCache) Lethal(l Loadout, c Cell) bool {
	return h.zones[l.index()].Has(c)
}
