package interval

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"k8s.io/apimachinery/pkg/labels"
)

// DefaultMaxX is the default upper bound of the To coordinate.
const DefaultMaxX int64 = 1000

// RoomLabelKey is the label under which an interval exposes its room.
const RoomLabelKey = "room"

// Interval is a room scoped integer range [From, To]. Intervals are immutable
// once created.
type Interval struct {
	ID     int64  `json:"id"`
	RoomID string `json:"roomId"`
	From   int64  `json:"from"`
	To     int64  `json:"to"`
}

func (r Interval) Labels() labels.Set { return labels.Set{RoomLabelKey: r.RoomID} }
func (r Interval) String() string {
	return fmt.Sprintf("id: %d, room: %s, [%d, %d]", r.ID, r.RoomID, r.From, r.To)
}

// Overlaps reports whether r and other share a common region. Intervals that
// only touch at an endpoint do not overlap. The room is not considered.
func (r Interval) Overlaps(other Interval) bool {
	return r.From < other.To && r.To > other.From
}

// Check asserts the bound invariant 0 <= From < To <= maxX.
func (r Interval) Check(maxX int64) error {
	if r.RoomID == "" {
		return fmt.Errorf("interval %d: empty room", r.ID)
	}
	if r.From < 0 || r.From >= r.To || r.To > maxX || r.To < 1 {
		return fmt.Errorf("interval %d: bad bounds [%d,%d], must be 0 <= from < to <= %d", r.ID, r.From, r.To, maxX)
	}
	return nil
}

// NormalizeRoomID upper cases a room id the way it is stored.
func NormalizeRoomID(roomID string) string {
	return cases.Upper(language.Und).String(roomID)
}
