package dedupe

import (
	"dupesweep/internal/cloudinary"
	"dupesweep/internal/fingerprint"
)

// Item pairs an asset with its perceptual fingerprint. An empty fingerprint
// means extraction failed for that asset; such items never participate in
// clustering.
type Item struct {
	Asset       cloudinary.Asset
	Fingerprint string
}

// Group is an ordered set of assets considered visual duplicates of each
// other. Groups always contain at least two assets.
type Group []cloudinary.Asset

// Cluster partitions items into duplicate groups using single-pass greedy
// seed-linkage: items are scanned in input order, each unclaimed item seeds
// a new group and claims every later unclaimed item whose distance to the
// seed's fingerprint is within threshold. Groups that end up with a single
// member are discarded.
//
// Membership is measured against the seed only, not transitively: if A~B and
// B~C but A is far from C, the group seeded by A contains only A and B, and C
// is left to seed its own group. This trades some recall for determinism and
// simplicity; duplicates produced by re-uploads are near-identical, so the
// approximation rarely matters in practice.
//
// The scan is O(n²) in the number of fingerprinted items. Each asset lands in
// at most one group, and identical input always produces identical output.
func Cluster(items []Item, threshold int) []Group {
	hashed := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Fingerprint != "" {
			hashed = append(hashed, item)
		}
	}

	var groups []Group
	used := make([]bool, len(hashed))

	for i, seed := range hashed {
		if used[i] {
			continue
		}

		group := Group{seed.Asset}
		used[i] = true

		for j := i + 1; j < len(hashed); j++ {
			if used[j] {
				continue
			}
			if fingerprint.Similar(seed.Fingerprint, hashed[j].Fingerprint, threshold) {
				group = append(group, hashed[j].Asset)
				used[j] = true
			}
		}

		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	return groups
}
