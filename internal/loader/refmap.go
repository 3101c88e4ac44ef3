package loader

import "strconv"

// RefMap remembers, per entity, which primary key each CSV identifier ended
// up with during the run. Entities whose real keys differ from the CSV ids
// (users get UUIDs) register themselves here so dependent rows can resolve.
type RefMap struct {
	byEntity map[string]map[string]any
}

func NewRefMap() *RefMap {
	return &RefMap{byEntity: make(map[string]map[string]any)}
}

// Put records the primary key assigned to a CSV identifier.
func (m *RefMap) Put(entity, csvID string, pk any) {
	if m.byEntity[entity] == nil {
		m.byEntity[entity] = make(map[string]any)
	}
	m.byEntity[entity][csvID] = pk
}

// Get returns the primary key previously recorded for a CSV identifier.
func (m *RefMap) Get(entity, csvID string) (any, bool) {
	pk, ok := m.byEntity[entity][csvID]
	return pk, ok
}

// ParseIntRef parses a numeric foreign-key identifier, reporting an
// InvalidReferenceError when the value is not a usable key.
func ParseIntRef(entity, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &InvalidReferenceError{Entity: entity, Value: value}
	}
	return id, nil
}
