package tasks

import (
	"testing"

	"github.com/bradcj/intersect/internal/models"
)

func songSet(ids ...string) []models.Song {
	songs := make([]models.Song, len(ids))
	for i, id := range ids {
		songs[i] = models.Song{VideoID: id, Title: "Title " + id}
	}
	return songs
}

func videoIDs(songs []models.Song) []string {
	ids := make([]string, len(songs))
	for i, song := range songs {
		ids[i] = song.VideoID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIntersectSongs(t *testing.T) {
	t.Run("keeps only songs present in every set", func(t *testing.T) {
		got := IntersectSongs([][]models.Song{
			songSet("1", "2", "3"),
			songSet("2", "3", "4"),
			songSet("2", "5"),
		})

		if !equalIDs(videoIDs(got), []string{"2"}) {
			t.Errorf("expected intersection {2}, got %v", videoIDs(got))
		}
	})

	t.Run("any empty set yields empty result", func(t *testing.T) {
		got := IntersectSongs([][]models.Song{
			songSet("1", "2"),
			{},
			songSet("1"),
		})

		if len(got) != 0 {
			t.Errorf("expected empty intersection, got %v", videoIDs(got))
		}
	})

	t.Run("no sets yields empty result", func(t *testing.T) {
		if got := IntersectSongs(nil); len(got) != 0 {
			t.Errorf("expected empty intersection, got %v", videoIDs(got))
		}
	})

	t.Run("single set is identity", func(t *testing.T) {
		set := songSet("a", "b", "c")
		got := IntersectSongs([][]models.Song{set})

		if !equalIDs(videoIDs(got), []string{"a", "b", "c"}) {
			t.Errorf("expected identity, got %v", videoIDs(got))
		}
	})

	t.Run("order follows the first set", func(t *testing.T) {
		got := IntersectSongs([][]models.Song{
			songSet("c", "a", "b"),
			songSet("a", "b", "c"),
		})

		if !equalIDs(videoIDs(got), []string{"c", "a", "b"}) {
			t.Errorf("expected reference order c,a,b, got %v", videoIDs(got))
		}
	})

	t.Run("repeated runs are identical", func(t *testing.T) {
		sets := [][]models.Song{
			songSet("x", "y", "z", "w"),
			songSet("w", "x", "q"),
		}

		first := videoIDs(IntersectSongs(sets))
		second := videoIDs(IntersectSongs(sets))

		if !equalIDs(first, second) {
			t.Errorf("expected identical results, got %v then %v", first, second)
		}
	})

	t.Run("result never exceeds the smallest set", func(t *testing.T) {
		sets := [][]models.Song{
			songSet("1", "2", "3", "4", "5"),
			songSet("1", "2", "3"),
			songSet("1", "2", "3", "4"),
		}

		got := IntersectSongs(sets)
		if len(got) > 3 {
			t.Errorf("intersection size %d exceeds smallest set size 3", len(got))
		}
	})

	t.Run("duplicate video IDs in the reference appear once", func(t *testing.T) {
		got := IntersectSongs([][]models.Song{
			songSet("a", "a", "b"),
			songSet("a", "b"),
		})

		if !equalIDs(videoIDs(got), []string{"a", "b"}) {
			t.Errorf("expected deduplicated a,b, got %v", videoIDs(got))
		}
	})
}
