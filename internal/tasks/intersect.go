package tasks

import "github.com/bradcj/intersect/internal/models"

// IntersectSongs computes the exact intersection of the given liked-song sets.
//
// The first set is the reference: output order follows its stored like order,
// so repeated runs over unchanged inputs produce identical results. A song is
// kept only when its video ID appears in every set. Any empty input set short
// circuits to an empty result.
func IntersectSongs(sets [][]models.Song) []models.Song {
	if len(sets) == 0 {
		return []models.Song{}
	}

	for _, set := range sets {
		if len(set) == 0 {
			return []models.Song{}
		}
	}

	// Membership index for every set after the reference.
	lookups := make([]map[string]struct{}, 0, len(sets)-1)
	for _, set := range sets[1:] {
		lookup := make(map[string]struct{}, len(set))
		for _, song := range set {
			lookup[song.VideoID] = struct{}{}
		}
		lookups = append(lookups, lookup)
	}

	common := []models.Song{}
	seen := map[string]struct{}{}

	for _, song := range sets[0] {
		if _, dup := seen[song.VideoID]; dup {
			continue
		}
		seen[song.VideoID] = struct{}{}

		inAll := true
		for _, lookup := range lookups {
			if _, ok := lookup[song.VideoID]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, song)
		}
	}

	return common
}
