package interval

import (
	"encoding/json"
	"fmt"
)

// Validator checks candidates against the bound invariant
// 0 <= from < to <= MaxX.
type Validator struct {
	MaxX int64
}

func NewValidator(maxX int64) *Validator {
	if maxX < 1 {
		maxX = DefaultMaxX
	}
	return &Validator{MaxX: maxX}
}

// Validate checks the item found at index idx. The item must be a Candidate
// or a map[string]any; anything else is reported as missing all fields.
// All applicable errors are collected. On success the returned interval has
// its room normalized and no id.
func (r *Validator) Validate(idx int, item any) (Interval, ValidationErrors) {
	var c Candidate
	switch t := item.(type) {
	case Candidate:
		c = t
	case map[string]any:
		c = Candidate(t)
	}

	roomID, roomOK := c.roomID()
	if !roomOK || !c.has(FieldFrom) || !c.has(FieldTo) {
		return Interval{}, ValidationErrors{{
			Index:   idx,
			Reason:  ReasonMissingField,
			Fields:  missingFields(c, roomOK),
			Message: fmt.Sprintf("Missing required fields (roomId, from, to). Found: %s", found(item)),
			Value:   item,
		}}
	}

	var errs ValidationErrors
	from, fromOK := parseInt(c[FieldFrom])
	to, toOK := parseInt(c[FieldTo])
	if !fromOK || !toOK {
		fields := []string{}
		if !fromOK {
			fields = append(fields, FieldFrom)
		}
		if !toOK {
			fields = append(fields, FieldTo)
		}
		errs = append(errs, &ValidationError{
			Index:   idx,
			Reason:  ReasonNotANumber,
			Fields:  fields,
			Message: fmt.Sprintf("'from' and 'to' must be numbers. Found: from=%v, to=%v", c[FieldFrom], c[FieldTo]),
			Value:   map[string]any{FieldFrom: c[FieldFrom], FieldTo: c[FieldTo]},
		})
	}

	if fromOK && toOK && from >= to {
		errs = append(errs, &ValidationError{
			Index:   idx,
			Reason:  ReasonFromNotBeforeTo,
			Fields:  []string{FieldFrom, FieldTo},
			Message: fmt.Sprintf("'from' must be less than 'to'. Found: from=%d, to=%d", from, to),
			Value:   map[string]any{FieldFrom: from, FieldTo: to},
		})
	}
	if fromOK && from < 0 {
		errs = append(errs, &ValidationError{
			Index:   idx,
			Reason:  ReasonFromNegative,
			Fields:  []string{FieldFrom},
			Message: fmt.Sprintf("'from' must be >= 0. Found: %d", from),
			Value:   from,
		})
	}
	if toOK && to > r.MaxX {
		errs = append(errs, &ValidationError{
			Index:   idx,
			Reason:  ReasonToAboveMax,
			Fields:  []string{FieldTo},
			Message: fmt.Sprintf("'to' must be <= %d. Found: %d", r.MaxX, to),
			Value:   to,
		})
	}
	if toOK && to < 1 {
		errs = append(errs, &ValidationError{
			Index:   idx,
			Reason:  ReasonToBelowOne,
			Fields:  []string{FieldTo},
			Message: fmt.Sprintf("'to' must be >= 1. Found: %d", to),
			Value:   to,
		})
	}
	if len(errs) > 0 {
		return Interval{}, errs
	}

	return Interval{
		RoomID: NormalizeRoomID(roomID),
		From:   from,
		To:     to,
	}, nil
}

// ValidateAll validates every item and returns the normalized intervals in
// input order together with the errors of all items.
func (r *Validator) ValidateAll(items []any) ([]Interval, ValidationErrors) {
	ivs := make([]Interval, 0, len(items))
	var errs ValidationErrors
	for i, item := range items {
		iv, verrs := r.Validate(i, item)
		if len(verrs) > 0 {
			errs = append(errs, verrs...)
			continue
		}
		ivs = append(ivs, iv)
	}
	return ivs, errs
}

func missingFields(c Candidate, roomOK bool) []string {
	fields := []string{}
	if !roomOK {
		fields = append(fields, FieldRoomID)
	}
	if !c.has(FieldFrom) {
		fields = append(fields, FieldFrom)
	}
	if !c.has(FieldTo) {
		fields = append(fields, FieldTo)
	}
	return fields
}

func found(item any) string {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Sprintf("%v", item)
	}
	return string(b)
}
