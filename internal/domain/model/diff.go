package model

// UpdateDiff is the outcome of comparing a stored record with its full
// replacement. Fields lists the names of the fields that differ.
type UpdateDiff struct {
	Changed bool
	Fields  []string
}

// Diffable is implemented by entities that go through the change-tracked
// update path. DiffFields compares every persisted field of the receiver with
// incoming and returns the names of those that differ, in declaration order.
type Diffable[T any] interface {
	DiffFields(incoming T) []string
}

// Diff builds an UpdateDiff for a full replacement of existing by incoming.
func Diff[T Diffable[T]](existing, incoming T) UpdateDiff {
	fields := existing.DiffFields(incoming)
	return UpdateDiff{Changed: len(fields) > 0, Fields: fields}
}
