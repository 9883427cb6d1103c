package rangetable

import (
	"errors"
	"fmt"

	"github.com/henderiw/rangetable/pkg/conflict"
	"github.com/henderiw/rangetable/pkg/idxtable"
	"github.com/henderiw/rangetable/pkg/interval"
	"github.com/henderiw/rangetable/pkg/payload"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/labels"
)

// RangeTable owns a collection of room intervals. Every mutation is
// validated first and applied afterwards in one step; a rejected operation
// leaves the collection untouched.
type RangeTable interface {
	AddOne(c interval.Candidate) (interval.Interval, error)
	ImportBatch(items []any) (ImportSummary, error)
	ImportPayload(raw []byte) (ImportSummary, error)
	RemoveOne(id int64) bool
	Clear()

	Snapshot() Snapshot
	SnapshotByLabel(selector labels.Selector) Snapshot

	Get(id int64) (interval.Interval, error)
	Has(id int64) bool
	Count() int
	MaxX() int64

	GetAll() []interval.Interval
	GetByLabel(selector labels.Selector) []interval.Interval
}

// ImportSummary is returned by a committed import.
type ImportSummary struct {
	Added     int                 `json:"added"`
	Intervals []interval.Interval `json:"ranges"`
}

// Snapshot is a read only view of the collection in insertion order plus a
// conflict report computed for exactly that view. LastID is the highest id
// handed out so far; it is at least the id of every interval in the view.
type Snapshot struct {
	Intervals []interval.Interval
	Report    conflict.Report
	LastID    int64
}

func New(maxX int64, log *zap.Logger) RangeTable {
	if log == nil {
		log = zap.NewNop()
	}
	v := interval.NewValidator(maxX)
	return &rangeTable{
		table: idxtable.NewTable[interval.Interval](func(id int64, d interval.Interval) error {
			if d.ID != id {
				return fmt.Errorf("interval id %d does not match allocated id %d", d.ID, id)
			}
			return d.Check(v.MaxX)
		}),
		validator: v,
		log:       log,
	}
}

// NewWithEntries returns a table seeded with initEntries, imported as one
// batch.
func NewWithEntries(maxX int64, log *zap.Logger, initEntries []any) (RangeTable, error) {
	r := New(maxX, log)
	if len(initEntries) == 0 {
		return r, nil
	}
	if _, err := r.ImportBatch(initEntries); err != nil {
		return nil, err
	}
	return r, nil
}

type rangeTable struct {
	table     idxtable.Table[interval.Interval]
	validator *interval.Validator
	log       *zap.Logger
}

func (r *rangeTable) MaxX() int64 { return r.validator.MaxX }

func (r *rangeTable) AddOne(c interval.Candidate) (interval.Interval, error) {
	iv, errs := r.validator.Validate(0, c)
	if len(errs) > 0 {
		r.log.Debug("add rejected", zap.Int("errors", len(errs)))
		return interval.Interval{}, errs
	}
	iv, err := r.table.ClaimDynamic(withID(iv))
	if err != nil {
		return interval.Interval{}, err
	}
	r.log.Debug("added interval", zap.Int64("id", iv.ID), zap.String("room", iv.RoomID),
		zap.Int64("from", iv.From), zap.Int64("to", iv.To))
	return iv, nil
}

// ImportBatch adds all items or none. Every item is validated before anything
// is committed and the errors of all items are returned together.
func (r *rangeTable) ImportBatch(items []any) (ImportSummary, error) {
	if len(items) == 0 {
		r.log.Warn("import rejected", zap.Error(interval.ErrEmpty))
		return ImportSummary{}, &interval.StructuralError{Err: interval.ErrEmpty}
	}
	ivs, errs := r.validator.ValidateAll(items)
	if len(errs) > 0 {
		r.log.Warn("import rejected", zap.Int("candidates", len(items)), zap.Int("errors", len(errs)))
		return ImportSummary{}, errs
	}

	fns := make([]idxtable.NewFn[interval.Interval], 0, len(ivs))
	for _, iv := range ivs {
		fns = append(fns, withID(iv))
	}
	added, err := r.table.ClaimDynamicBatch(fns)
	if err != nil {
		return ImportSummary{}, err
	}
	r.log.Info("imported intervals", zap.Int("added", len(added)),
		zap.Int64("firstID", added[0].ID), zap.Int64("lastID", added[len(added)-1].ID))
	return ImportSummary{Added: len(added), Intervals: added}, nil
}

func (r *rangeTable) ImportPayload(raw []byte) (ImportSummary, error) {
	items, err := payload.Decode(raw)
	if err != nil {
		r.log.Warn("import rejected", zap.Error(err))
		return ImportSummary{}, err
	}
	return r.ImportBatch(items)
}

func (r *rangeTable) RemoveOne(id int64) bool {
	removed := r.table.Release(id)
	r.log.Debug("remove interval", zap.Int64("id", id), zap.Bool("removed", removed))
	return removed
}

func (r *rangeTable) Clear() {
	r.table.Clear()
	r.log.Debug("cleared intervals")
}

func (r *rangeTable) Snapshot() Snapshot {
	ivs := r.GetAll()
	return Snapshot{
		Intervals: ivs,
		Report:    conflict.Analyze(ivs),
		LastID:    r.table.LastID(),
	}
}

// SnapshotByLabel is Snapshot restricted to the intervals matching selector;
// the report only considers those intervals.
func (r *rangeTable) SnapshotByLabel(selector labels.Selector) Snapshot {
	ivs := r.GetByLabel(selector)
	return Snapshot{
		Intervals: ivs,
		Report:    conflict.Analyze(ivs),
		LastID:    r.table.LastID(),
	}
}

func (r *rangeTable) Get(id int64) (interval.Interval, error) {
	return r.table.Get(id)
}

func (r *rangeTable) Has(id int64) bool {
	return r.table.Has(id)
}

func (r *rangeTable) Count() int {
	return r.table.Count()
}

func (r *rangeTable) GetAll() []interval.Interval {
	entries := r.table.GetAll()
	ivs := make([]interval.Interval, 0, len(entries))
	for _, e := range entries {
		ivs = append(ivs, e.Data())
	}
	return ivs
}

func (r *rangeTable) GetByLabel(selector labels.Selector) []interval.Interval {
	ivs := []interval.Interval{}

	iter := r.table.Iterate()
	for iter.Next() {
		if selector.Matches(iter.Value().Labels()) {
			ivs = append(ivs, iter.Value())
		}
	}
	return ivs
}

func withID(iv interval.Interval) idxtable.NewFn[interval.Interval] {
	return func(id int64) interval.Interval {
		iv.ID = id
		return iv
	}
}

// Rejection classifies an error returned by a table operation.
type Rejection int

const (
	// NotRejected is an internal failure, or no error at all.
	NotRejected Rejection = iota
	// InvalidItems means one or more candidates failed validation.
	InvalidItems
	// InvalidStructure means the payload was not a non-empty list.
	InvalidStructure
	// InvalidPayload means the payload could not be parsed.
	InvalidPayload
)

func Classify(err error) Rejection {
	var (
		verrs interval.ValidationErrors
		serr  *interval.StructuralError
		perr  *interval.ParseError
	)
	switch {
	case err == nil:
		return NotRejected
	case errors.As(err, &verrs):
		return InvalidItems
	case errors.As(err, &serr):
		return InvalidStructure
	case errors.As(err, &perr):
		return InvalidPayload
	}
	return NotRejected
}

// IsRejected reports whether err is one of the rejection errors of this
// package's operations, as opposed to an internal failure.
func IsRejected(err error) bool {
	return Classify(err) != NotRejected
}
