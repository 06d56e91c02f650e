package principal

import "context"

type Repo interface {
	Lookup(ctx context.Context, role Role, id int64) (Credential, error)
	Exists(ctx context.Context, reg Registration) (bool, error)
	// Create must run inside a transaction; it writes the principal, its satellites and its credential.
	Create(ctx context.Context, reg Registration, hash string) (int64, error)
	Profile(ctx context.Context, role Role, id int64) (*Profile, error)
}
