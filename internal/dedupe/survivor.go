package dedupe

import (
	"sort"
	"time"

	"dupesweep/internal/cloudinary"
)

// SelectSurvivor picks the asset to keep from a duplicate group and returns
// the rest as deletion candidates. The oldest upload wins: the first copy is
// treated as canonical and later re-uploads are the duplicates. Assets with
// equal or unparseable timestamps keep their group order (stable sort), so
// the outcome is deterministic for a given clustering.
func SelectSurvivor(group Group) (keep cloudinary.Asset, remove []cloudinary.Asset) {
	sorted := make(Group, len(group))
	copy(sorted, group)

	sort.SliceStable(sorted, func(i, j int) bool {
		return createdBefore(sorted[i].CreatedAt, sorted[j].CreatedAt)
	})

	return sorted[0], sorted[1:]
}

// createdBefore compares two host-provided creation timestamps. Cloudinary
// returns RFC3339, which we parse into real times; if either side fails to
// parse, comparison falls back to the raw string, which for RFC3339 sorts
// identically anyway. The fallback exists so a host format change degrades
// to lexical ordering instead of a crash.
func createdBefore(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}
