package conflict

import (
	"github.com/henderiw/rangetable/pkg/interval"
	"k8s.io/apimachinery/pkg/util/sets"
)

// RoomReport is what a presentation layer needs to draw one room.
type RoomReport struct {
	RoomID    string
	Intervals []interval.Interval
	Conflicts sets.Set[int64]
	Pairs     []Pair
}

func (r RoomReport) HasConflicts() bool       { return r.Conflicts.Len() > 0 }
func (r RoomReport) IsConflict(id int64) bool { return r.Conflicts.Has(id) }

// Report is the conflict state of a whole collection.
type Report struct {
	Rooms                []RoomReport
	ConflictingPairs     int
	ConflictingIntervals int
}

// Analyze computes a fresh report; rooms are sorted by id.
func Analyze(collection []interval.Interval) Report {
	report := Report{Rooms: []RoomReport{}}
	for _, room := range Rooms(collection) {
		ivs := RoomIntervals(room, collection)
		ps := pairs(ivs)
		rr := RoomReport{
			RoomID:    room,
			Intervals: ivs,
			Conflicts: idsOf(ps),
			Pairs:     ps,
		}
		report.Rooms = append(report.Rooms, rr)
		report.ConflictingPairs += len(ps)
		report.ConflictingIntervals += rr.Conflicts.Len()
	}
	return report
}

func (r Report) Room(roomID string) (RoomReport, bool) {
	for _, rr := range r.Rooms {
		if rr.RoomID == roomID {
			return rr, true
		}
	}
	return RoomReport{}, false
}
