// Package conflict finds overlapping intervals within a room.
//
// Detection compares every unordered pair of a room's intervals, so the cost
// is quadratic in the number of intervals of a single room. Rooms are expected
// to hold few intervals; a room with thousands of entries needs an interval
// tree instead.
package conflict

import (
	"sort"

	"github.com/henderiw/rangetable/pkg/interval"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Pair is two overlapping intervals of the same room, A < B.
type Pair struct {
	A, B int64
}

// Overlap is the strict overlap predicate. Intervals touching at an endpoint
// do not overlap.
func Overlap(a, b interval.Interval) bool {
	return a.Overlaps(b)
}

// RoomIntervals returns the intervals of roomID in collection order. The room
// is matched exactly against the stored, normalized value.
func RoomIntervals(roomID string, collection []interval.Interval) []interval.Interval {
	ivs := []interval.Interval{}
	for _, iv := range collection {
		if iv.RoomID == roomID {
			ivs = append(ivs, iv)
		}
	}
	return ivs
}

// FindConflictPairs returns every overlapping pair of roomID, each unordered
// pair compared once.
func FindConflictPairs(roomID string, collection []interval.Interval) []Pair {
	return pairs(RoomIntervals(roomID, collection))
}

// FindConflicts returns the ids of roomID's intervals that overlap at least
// one other interval of the same room.
func FindConflicts(roomID string, collection []interval.Interval) sets.Set[int64] {
	return idsOf(FindConflictPairs(roomID, collection))
}

// Rooms returns the distinct rooms of the collection, sorted.
func Rooms(collection []interval.Interval) []string {
	rooms := sets.New[string]()
	for _, iv := range collection {
		rooms.Insert(iv.RoomID)
	}
	return sets.List(rooms)
}

// TotalConflictCount returns the number of overlapping pairs over all rooms.
func TotalConflictCount(collection []interval.Interval) int {
	total := 0
	for _, room := range Rooms(collection) {
		total += len(FindConflictPairs(room, collection))
	}
	return total
}

// ConflictingIntervalCount returns the number of intervals that take part in
// at least one conflict.
func ConflictingIntervalCount(collection []interval.Interval) int {
	total := 0
	for _, room := range Rooms(collection) {
		total += FindConflicts(room, collection).Len()
	}
	return total
}

func pairs(ivs []interval.Interval) []Pair {
	ps := []Pair{}
	for i := 0; i < len(ivs); i++ {
		for j := i + 1; j < len(ivs); j++ {
			if !Overlap(ivs[i], ivs[j]) {
				continue
			}
			a, b := ivs[i].ID, ivs[j].ID
			if b < a {
				a, b = b, a
			}
			ps = append(ps, Pair{A: a, B: b})
		}
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].A != ps[j].A {
			return ps[i].A < ps[j].A
		}
		return ps[i].B < ps[j].B
	})
	return ps
}

func idsOf(ps []Pair) sets.Set[int64] {
	ids := sets.New[int64]()
	for _, p := range ps {
		ids.Insert(p.A, p.B)
	}
	return ids
}
