package loader

import "fmt"

// MissingReferenceError marks a row whose foreign-key identifier resolved to
// no existing record. The row fails; the run continues.
type MissingReferenceError struct {
	Entity string
	ID     string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("related %s with id %s not found", e.Entity, e.ID)
}

// InvalidReferenceError marks a row whose foreign-key identifier is not a
// valid key for the referenced entity type.
type InvalidReferenceError struct {
	Entity string
	Value  string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid id for %s: %q", e.Entity, e.Value)
}

// CycleError is returned before any file is touched when the declared
// entity dependencies admit no load order.
type CycleError struct {
	Entities []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among entities: %v", e.Entities)
}
