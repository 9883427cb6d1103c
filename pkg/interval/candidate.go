package interval

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	FieldRoomID = "roomId"
	FieldFrom   = "from"
	FieldTo     = "to"
)

// Candidate is an unvalidated interval record as it arrives from a caller or
// an import file. A field is present when its key exists, even if the value
// is nil.
type Candidate map[string]any

func NewCandidate(roomID string, from, to any) Candidate {
	return Candidate{
		FieldRoomID: roomID,
		FieldFrom:   from,
		FieldTo:     to,
	}
}

func (r Candidate) has(field string) bool {
	_, ok := r[field]
	return ok
}

func (r Candidate) roomID() (string, bool) {
	s, ok := r[FieldRoomID].(string)
	return s, ok && s != ""
}

// parseInt converts numbers and numeric strings to an integer. Fractions are
// truncated toward zero and strings are read up to the first non digit
// ("12px" is 12, "0x1f" is 31). Finite values outside the int64 range
// saturate; infinities are not numbers.
func parseInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return truncate(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		if err != nil && !isRangeErr(err) {
			return 0, false
		}
		return truncate(f)
	case string:
		return parseIntPrefix(t)
	}
	return 0, false
}

func truncate(f float64) (int64, bool) {
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return 0, false
	case f >= math.MaxInt64:
		return math.MaxInt64, true
	case f <= math.MinInt64:
		return math.MinInt64, true
	}
	return int64(math.Trunc(f)), true
}

func parseIntPrefix(s string) (int64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	sign := s[:end]
	base, isDigit := 10, isDecimal
	if strings.HasPrefix(s[end:], "0x") || strings.HasPrefix(s[end:], "0X") {
		base, isDigit = 16, isHex
		end += 2
	}
	digits := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == digits {
		return 0, false
	}
	i, err := strconv.ParseInt(sign+s[digits:end], base, 64)
	if err != nil && !isRangeErr(err) {
		return 0, false
	}
	return i, true
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }
func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}
