package rate

import (
	"context"

	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/types"
)

// Store persists rate versions. Versions are closed, never deleted.
type Store interface {
	// ListRateVersions returns every version ordered by StartDate ascending.
	ListRateVersions(ctx context.Context) ([]*Version, error)
	GetRateVersion(ctx context.Context, versionID id.RateVersionID) (*Version, error)
	// RotateRateVersion atomically sets closeEnd on the open version (if any)
	// and inserts v as the new open version.
	RotateRateVersion(ctx context.Context, v *Version, closeEnd types.Date) error
	// UpdateRateVersion rewrites a version in place.
	UpdateRateVersion(ctx context.Context, v *Version) error
}
