package rangetable

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/henderiw/rangetable/pkg/interval"
	"github.com/tj/assert"
	"k8s.io/apimachinery/pkg/labels"
)

var initEntries = []any{
	interval.NewCandidate("a", 0, 10),
	interval.NewCandidate("a", 5, 15),
	interval.NewCandidate("b", 0, 5),
}

func TestAddOne(t *testing.T) {
	cases := map[string]struct {
		candidate       interval.Candidate
		expected        interval.Interval
		expectedReasons []interval.Reason
		expectedEntries int
	}{
		"Normal": {
			candidate:       interval.NewCandidate("c", 1, 2),
			expected:        interval.Interval{ID: 4, RoomID: "C", From: 1, To: 2},
			expectedEntries: 4,
		},
		"FromNotLessThanTo": {
			candidate:       interval.NewCandidate("a", 5, 3),
			expectedReasons: []interval.Reason{interval.ReasonFromNotBeforeTo},
			expectedEntries: 3,
		},
		"Missing": {
			candidate:       interval.Candidate{"roomId": "a"},
			expectedReasons: []interval.Reason{interval.ReasonMissingField},
			expectedEntries: 3,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := NewWithEntries(interval.DefaultMaxX, nil, initEntries)
			assert.NoError(t, err)

			iv, err := r.AddOne(tc.candidate)
			if len(tc.expectedReasons) > 0 {
				var verrs interval.ValidationErrors
				assert.True(t, errors.As(err, &verrs))
				reasons := []interval.Reason{}
				for _, e := range verrs {
					reasons = append(reasons, e.Reason)
				}
				if diff := cmp.Diff(tc.expectedReasons, reasons); diff != "" {
					t.Errorf("%s: -want, +got:\n%s", name, diff)
				}
				assert.True(t, IsRejected(err))
			} else {
				assert.NoError(t, err)
				if diff := cmp.Diff(tc.expected, iv); diff != "" {
					t.Errorf("%s: -want, +got:\n%s", name, diff)
				}
			}
			if r.Count() != tc.expectedEntries {
				t.Errorf("%s: -want %d, +got: %d\n", name, tc.expectedEntries, r.Count())
			}
		})
	}
}

func TestImportBatch(t *testing.T) {
	cases := map[string]struct {
		items           []any
		expectedIndexes []int
		structural      error
		expectedAdded   []interval.Interval
		expectedEntries int
	}{
		"Committed": {
			items: []any{
				interval.NewCandidate("a", 0, 5),
				interval.NewCandidate("b", 1, 5),
			},
			expectedAdded: []interval.Interval{
				{ID: 4, RoomID: "A", From: 0, To: 5},
				{ID: 5, RoomID: "B", From: 1, To: 5},
			},
			expectedEntries: 5,
		},
		"RejectedOneInvalid": {
			items: []any{
				interval.NewCandidate("a", 0, 5),
				interval.NewCandidate("b", -1, 5),
			},
			expectedIndexes: []int{1},
			expectedEntries: 3,
		},
		"RejectedAllErrorsCollected": {
			items: []any{
				interval.NewCandidate("a", 5, 0),
				interval.NewCandidate("b", 1, 5),
				interval.Candidate{"roomId": "c"},
				interval.NewCandidate("d", "x", 2000),
			},
			expectedIndexes: []int{0, 2, 3, 3},
			expectedEntries: 3,
		},
		"Empty": {
			items:           []any{},
			structural:      interval.ErrEmpty,
			expectedEntries: 3,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := NewWithEntries(interval.DefaultMaxX, nil, initEntries)
			assert.NoError(t, err)
			before := r.GetAll()

			summary, err := r.ImportBatch(tc.items)
			switch {
			case tc.structural != nil:
				assert.True(t, errors.Is(err, tc.structural))
			case len(tc.expectedIndexes) > 0:
				var verrs interval.ValidationErrors
				assert.True(t, errors.As(err, &verrs))
				if diff := cmp.Diff(tc.expectedIndexes, verrs.Indexes()); diff != "" {
					t.Errorf("%s: -want, +got:\n%s", name, diff)
				}
			default:
				assert.NoError(t, err)
				assert.Equal(t, len(tc.expectedAdded), summary.Added)
				if diff := cmp.Diff(tc.expectedAdded, summary.Intervals); diff != "" {
					t.Errorf("%s: -want, +got:\n%s", name, diff)
				}
			}

			if r.Count() != tc.expectedEntries {
				t.Errorf("%s: -want %d, +got: %d\n", name, tc.expectedEntries, r.Count())
			}
			if err != nil {
				if diff := cmp.Diff(before, r.GetAll()); diff != "" {
					t.Errorf("%s: rejected import modified the table -want, +got:\n%s", name, diff)
				}
			}
		})
	}
}

func TestImportPayload(t *testing.T) {
	r := New(interval.DefaultMaxX, nil)

	_, err := r.ImportPayload([]byte(`{"roomId":"a"}`))
	assert.True(t, errors.Is(err, interval.ErrNotSequence))

	_, err = r.ImportPayload([]byte(`[`))
	var perr *interval.ParseError
	assert.True(t, errors.As(err, &perr))

	_, err = r.ImportPayload([]byte(`[{"roomId":"a","from":0,"to":5}, 12]`))
	var verrs interval.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	assert.Equal(t, []int{1}, verrs.Indexes())
	assert.Equal(t, 0, r.Count())

	summary, err := r.ImportPayload([]byte(`[{"roomId":"a","from":"0","to":"5"},{"roomId":"b","from":2,"to":9}]`))
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, []int64{1, 2}, []int64{summary.Intervals[0].ID, summary.Intervals[1].ID})
}

func TestIDMonotonic(t *testing.T) {
	r := New(interval.DefaultMaxX, nil)

	seen := int64(0)
	check := func(id int64) {
		if id <= seen {
			t.Errorf("id %d not greater than previously allocated %d", id, seen)
		}
		seen = id
	}

	iv, err := r.AddOne(interval.NewCandidate("a", 0, 5))
	assert.NoError(t, err)
	check(iv.ID)
	iv, err = r.AddOne(interval.NewCandidate("a", 5, 10))
	assert.NoError(t, err)
	check(iv.ID)

	// removing the highest id must not free it for reuse
	assert.True(t, r.RemoveOne(iv.ID))
	iv, err = r.AddOne(interval.NewCandidate("b", 0, 5))
	assert.NoError(t, err)
	check(iv.ID)
	assert.Equal(t, int64(3), iv.ID)

	summary, err := r.ImportBatch([]any{interval.NewCandidate("c", 0, 1), interval.NewCandidate("c", 1, 2)})
	assert.NoError(t, err)
	for _, iv := range summary.Intervals {
		check(iv.ID)
	}

	// a rejected import does not consume ids
	_, err = r.ImportBatch([]any{interval.NewCandidate("c", 0, 1), interval.NewCandidate("c", 2, 1)})
	assert.Error(t, err)
	iv, err = r.AddOne(interval.NewCandidate("d", 0, 1))
	assert.NoError(t, err)
	check(iv.ID)
	assert.Equal(t, int64(6), iv.ID)
}

func TestClearThenAdd(t *testing.T) {
	r, err := NewWithEntries(interval.DefaultMaxX, nil, initEntries)
	assert.NoError(t, err)

	r.Clear()
	assert.Equal(t, 0, r.Count())

	iv, err := r.AddOne(interval.NewCandidate("a", 0, 5))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), iv.ID)
	assert.Equal(t, 1, r.Count())
}

func TestRemoveOne(t *testing.T) {
	r, err := NewWithEntries(interval.DefaultMaxX, nil, initEntries)
	assert.NoError(t, err)

	assert.False(t, r.RemoveOne(42))
	assert.Equal(t, 3, r.Count())

	assert.True(t, r.RemoveOne(2))
	assert.False(t, r.RemoveOne(2))
	assert.Equal(t, 2, r.Count())
	assert.False(t, r.Has(2))
	_, err = r.Get(2)
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	r, err := NewWithEntries(interval.DefaultMaxX, nil, initEntries)
	assert.NoError(t, err)

	s := r.Snapshot()
	assert.Len(t, s.Intervals, 3)
	assert.Equal(t, int64(3), s.LastID)
	assert.Equal(t, 1, s.Report.ConflictingPairs)
	a, ok := s.Report.Room("A")
	assert.True(t, ok)
	assert.True(t, a.IsConflict(1))
	assert.True(t, a.IsConflict(2))

	// the report follows every mutation
	r.RemoveOne(2)
	s = r.Snapshot()
	assert.Equal(t, 0, s.Report.ConflictingPairs)
	a, _ = s.Report.Room("A")
	assert.False(t, a.HasConflicts())

	// removing the newest interval does not hand its id out again
	r.RemoveOne(3)
	s = r.Snapshot()
	assert.Len(t, s.Intervals, 1)
	assert.Equal(t, int64(3), s.LastID)

	r.Clear()
	assert.Equal(t, int64(0), r.Snapshot().LastID)
}

func TestClassify(t *testing.T) {
	r := New(interval.DefaultMaxX, nil)

	cases := map[string]struct {
		err      func() error
		expected Rejection
	}{
		"NoError": {
			err:      func() error { return nil },
			expected: NotRejected,
		},
		"Internal": {
			err:      func() error { return errors.New("disk on fire") },
			expected: NotRejected,
		},
		"InvalidItems": {
			err: func() error {
				_, err := r.AddOne(interval.NewCandidate("a", 5, 3))
				return err
			},
			expected: InvalidItems,
		},
		"InvalidStructure": {
			err: func() error {
				_, err := r.ImportPayload([]byte(`[]`))
				return err
			},
			expected: InvalidStructure,
		},
		"InvalidPayload": {
			err: func() error {
				_, err := r.ImportPayload([]byte(`[`))
				return err
			},
			expected: InvalidPayload,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.err()
			assert.Equal(t, tc.expected, Classify(err))
			assert.Equal(t, tc.expected != NotRejected, IsRejected(err))
		})
	}
}

func TestGetByLabel(t *testing.T) {
	r, err := NewWithEntries(interval.DefaultMaxX, nil, initEntries)
	assert.NoError(t, err)

	selector, err := labels.Parse("room=A")
	assert.NoError(t, err)
	got := r.GetByLabel(selector)
	assert.Len(t, got, 2)
	for _, iv := range got {
		assert.Equal(t, "A", iv.RoomID)
	}

	selector, err = labels.Parse("room in (A,B)")
	assert.NoError(t, err)
	assert.Len(t, r.GetByLabel(selector), 3)

	assert.Len(t, r.GetByLabel(labels.Everything()), 3)

	selector, err = labels.Parse("room=A")
	assert.NoError(t, err)
	s := r.SnapshotByLabel(selector)
	assert.Len(t, s.Intervals, 2)
	assert.Equal(t, 1, s.Report.ConflictingPairs)
	assert.Equal(t, int64(3), s.LastID)
	_, ok := s.Report.Room("B")
	assert.False(t, ok)
}

func TestNewWithEntriesInvalid(t *testing.T) {
	_, err := NewWithEntries(interval.DefaultMaxX, nil, []any{interval.NewCandidate("a", 0, 5000)})
	assert.Error(t, err)
	assert.True(t, IsRejected(err))
}

func TestMaxX(t *testing.T) {
	r := New(100, nil)
	assert.Equal(t, int64(100), r.MaxX())
	_, err := r.AddOne(interval.NewCandidate("a", 0, 101))
	assert.Error(t, err)
	_, err = r.AddOne(interval.NewCandidate("a", 0, 100))
	assert.NoError(t, err)
}
