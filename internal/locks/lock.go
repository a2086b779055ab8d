// Package locks provides the per-project mutual exclusion held for the
// duration of a validation run. Acquisition never blocks: a held lock is
// reported as (false, nil) and the caller turns it into a conflict.
package locks

import "context"

type ProjectLock interface {
	TryAcquire(ctx context.Context, projectID string) (bool, error)
	Release(ctx context.Context, projectID string) error
}
