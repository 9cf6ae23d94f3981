package application

import (
	"context"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// ApplyUpdate performs a change-tracked full replacement of existing by
// incoming. When no field differs it returns existing with Changed=false and
// does not call persist; callers treat that as a rejected no-op. Otherwise
// incoming is persisted as a whole and returned with the list of changed fields.
func ApplyUpdate[T model.Diffable[T]](
	ctx context.Context,
	existing, incoming T,
	persist func(ctx context.Context, v T) error,
) (T, model.UpdateDiff, error) {
	diff := model.Diff(existing, incoming)
	if !diff.Changed {
		return existing, diff, nil
	}

	if err := persist(ctx, incoming); err != nil {
		return existing, diff, err
	}

	return incoming, diff, nil
}
