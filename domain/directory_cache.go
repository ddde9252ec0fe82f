package domain

import "context"

// DirectoryCache caches the unfiltered directory listing used to build
// client-side suggestion indexes. A miss returns (nil, nil).
type DirectoryCache interface {
	Post(ctx context.Context, listings []*ProfileWithServices) error
	Get(ctx context.Context) ([]*ProfileWithServices, error)
	Invalidate(ctx context.Context) error
}
