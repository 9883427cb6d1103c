// Package payload decodes bulk import files into candidate sequences.
//
// The expected document is a JSON array of objects:
//
//	[
//	  { "roomId": "<string>", "from": <number-or-numeric-string>, "to": <number-or-numeric-string> },
//	  ...
//	]
//
// UTF-8 input may carry a byte order mark; UTF-16 input must carry one.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/henderiw/rangetable/pkg/interval"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode turns raw file content into the candidate sequence expected by an
// import. It returns a *interval.ParseError when the content is not valid
// JSON and a *interval.StructuralError when it is not a non-empty array.
// Array items are not checked here: objects become interval.Candidate values
// and everything else is passed through for per item validation.
func Decode(raw []byte) ([]any, error) {
	text, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return nil, &interval.ParseError{Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &interval.ParseError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &interval.ParseError{Err: fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset())}
	}

	list, ok := doc.([]any)
	if !ok {
		return nil, &interval.StructuralError{Err: interval.ErrNotSequence}
	}
	if len(list) == 0 {
		return nil, &interval.StructuralError{Err: interval.ErrEmpty}
	}

	items := make([]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			items = append(items, interval.Candidate(m))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Encode writes intervals in the import format, so an export can be fed back
// into an import.
func Encode(w io.Writer, ivs []interval.Interval) error {
	out := make([]interval.Candidate, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, interval.NewCandidate(iv.RoomID, iv.From, iv.To))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
