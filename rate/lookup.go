package rate

import (
	"sort"

	"github.com/xraph/boxrate/types"
)

// EffectiveOn returns the version covering d. End dates are inclusive of the
// whole day, so a version ending on d still applies. If more than one version
// covers d the one with the latest StartDate wins.
func EffectiveOn(versions []*Version, d types.Date) (*Version, bool) {
	var best *Version
	for _, v := range versions {
		if !v.Covers(d) {
			continue
		}
		if best == nil || v.StartDate.After(best.StartDate) {
			best = v
		}
	}
	return best, best != nil
}

// Current returns the open version. When no version is open it falls back to
// the version with the latest StartDate on or before today.
func Current(versions []*Version, today types.Date) (*Version, bool) {
	var open, fallback *Version
	for _, v := range versions {
		if v.IsOpen() && (open == nil || v.StartDate.After(open.StartDate)) {
			open = v
		}
		if !v.StartDate.After(today) && (fallback == nil || v.StartDate.After(fallback.StartDate)) {
			fallback = v
		}
	}
	if open != nil {
		return open, true
	}
	return fallback, fallback != nil
}

// Open returns the single open version, if any.
func Open(versions []*Version) (*Version, bool) {
	for _, v := range versions {
		if v.IsOpen() {
			return v, true
		}
	}
	return nil, false
}

// Sort orders versions by StartDate ascending in place.
func Sort(versions []*Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].StartDate.Before(versions[j].StartDate)
	})
}

// Overlaps reports whether any two versions share a day. A nil end is open.
func Overlaps(versions []*Version) bool {
	sorted := append([]*Version(nil), versions...)
	Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.EndDate == nil || !prev.EndDate.Before(sorted[i].StartDate) {
			return true
		}
	}
	return false
}
