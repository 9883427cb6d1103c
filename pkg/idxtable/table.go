package idxtable

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Table is an id keyed table. Ids are allocated by the table itself, start at
// 1 and only ever grow: a released id is never handed out again until the
// table is cleared.
type Table[T1 any] interface {
	Get(id int64) (T1, error)
	ClaimDynamic(fn NewFn[T1]) (T1, error)
	ClaimDynamicBatch(fns []NewFn[T1]) ([]T1, error)
	Release(id int64) bool
	Clear()

	Iterate() *Iterator[T1]

	Count() int
	Has(id int64) bool
	LastID() int64

	GetAll() Entries[T1]
}

// NewFn builds the value stored under a freshly allocated id.
type NewFn[T1 any] func(id int64) T1

// ValidationFn is run against every value before it is committed.
type ValidationFn[T1 any] func(id int64, d T1) error

func NewTable[T1 any](v ValidationFn[T1]) Table[T1] {
	return &table[T1]{
		m:          new(sync.RWMutex),
		table:      map[int64]T1{},
		validateFn: v,
	}
}

type table[T1 any] struct {
	m          *sync.RWMutex
	table      map[int64]T1
	lastID     int64
	validateFn ValidationFn[T1]
}

func (r *table[T1]) validate(id int64, d T1) error {
	if id < 1 {
		return fmt.Errorf("id %d is not a positive id", id)
	}
	if r.validateFn != nil {
		if err := r.validateFn(id, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *table[T1]) Get(id int64) (T1, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	d, ok := r.table[id]
	if !ok {
		return d, fmt.Errorf("no match found for: %v", id)
	}
	return d, nil
}

func (r *table[T1]) ClaimDynamic(fn NewFn[T1]) (T1, error) {
	r.m.Lock()
	defer r.m.Unlock()

	var d T1
	ds, err := r.claimBatch([]NewFn[T1]{fn})
	if err != nil {
		return d, err
	}
	return ds[0], nil
}

// ClaimDynamicBatch allocates consecutive ids for all values. Either every
// value is committed or none is.
func (r *table[T1]) ClaimDynamicBatch(fns []NewFn[T1]) ([]T1, error) {
	r.m.Lock()
	defer r.m.Unlock()

	return r.claimBatch(fns)
}

func (r *table[T1]) claimBatch(fns []NewFn[T1]) ([]T1, error) {
	if len(fns) == 0 {
		return nil, fmt.Errorf("nothing to claim")
	}
	ds := make([]T1, 0, len(fns))
	var errm error
	for i, fn := range fns {
		id := r.lastID + int64(i) + 1
		d := fn(id)
		if err := r.validate(id, d); err != nil {
			errm = errors.Join(errm, err)
			continue
		}
		ds = append(ds, d)
	}
	if errm != nil {
		return nil, errm
	}
	for i, d := range ds {
		r.table[r.lastID+int64(i)+1] = d
	}
	r.lastID += int64(len(ds))
	return ds, nil
}

// Release removes the entry and reports whether it was present.
func (r *table[T1]) Release(id int64) bool {
	r.m.Lock()
	defer r.m.Unlock()

	if _, ok := r.table[id]; !ok {
		return false
	}
	delete(r.table, id)
	return true
}

// Clear drops all entries and restarts id allocation at 1.
func (r *table[T1]) Clear() {
	r.m.Lock()
	defer r.m.Unlock()

	r.table = map[int64]T1{}
	r.lastID = 0
}

func (r *table[T1]) Iterate() *Iterator[T1] {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.iterate()
}

// iterate snapshots the table, so the iterator stays valid after the lock is
// released.
func (r *table[T1]) iterate() *Iterator[T1] {
	keys := make([]int64, 0, len(r.table))
	table := make(map[int64]T1, len(r.table))
	for key, d := range r.table {
		keys = append(keys, key)
		table[key] = d
	}
	sort.Slice(keys, func(i int, j int) bool {
		return keys[i] < keys[j]
	})

	return &Iterator[T1]{current: -1, keys: keys, table: table}
}

func (r *table[T1]) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.table)
}

func (r *table[T1]) Has(id int64) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	_, ok := r.table[id]
	return ok
}

// LastID returns the highest id allocated since the table was created or
// last cleared.
func (r *table[T1]) LastID() int64 {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.lastID
}

// GetAll returns all entries ordered by id.
func (r *table[T1]) GetAll() Entries[T1] {
	r.m.RLock()
	defer r.m.RUnlock()

	entries := make(Entries[T1], 0, len(r.table))
	iter := r.iterate()
	for iter.Next() {
		entries = append(entries, NewEntry(iter.ID(), iter.Value()))
	}
	return entries
}
