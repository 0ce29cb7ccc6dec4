package domain

import "context"

// Transactor runs fn in a single store transaction; repositories called with
// the context passed to fn join it.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
