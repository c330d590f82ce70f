// Package listings reads the server directory file.
//
// The file is a JSON array of free-form records. Every call reads the file
// from disk again; nothing is cached between calls.
package listings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound  = errors.New("listing file not found")
	ErrMalformed = errors.New("listing file is not a valid JSON array")
)

// Failure kinds reported by Kind.
const (
	KindNotFound  = "not_found"
	KindMalformed = "malformed"
	KindOther     = "other"
)

// Record is one directory entry. Raw holds the element exactly as it appears
// in the file; the typed fields are filled only when the element is an object
// carrying them as strings.
type Record struct {
	Name        string
	Category    string
	Description string
	URL         string

	Raw json.RawMessage
}

type recordFields struct {
	Name        any `json:"name"`
	Category    any `json:"category"`
	Description any `json:"description"`
	URL         any `json:"url"`
}

// UnmarshalJSON keeps the raw element and never fails on its shape.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.Raw = append(json.RawMessage(nil), data...)

	var f recordFields
	if err := json.Unmarshal(data, &f); err != nil {
		// not an object: opaque value, no typed view
		return nil
	}
	r.Name = asString(f.Name)
	r.Category = asString(f.Category)
	r.Description = asString(f.Description)
	r.URL = asString(f.URL)
	return nil
}

// MarshalJSON re-emits the element unmodified.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// Load reads and decodes the listing file at path. Errors wrap ErrNotFound or
// ErrMalformed where they apply.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var records []Record
	dec := json.NewDecoder(f)
	if err := dec.Decode(&records); err != nil {
		if isDecodeError(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	// the array must be the whole document
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: extra data after array", ErrMalformed, path)
	}
	if records == nil {
		// a literal null decodes to a nil slice
		return nil, fmt.Errorf("%w: %s: null document", ErrMalformed, path)
	}
	return records, nil
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Kind classifies an error returned by Load.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	default:
		return KindOther
	}
}

// LoadOrEmpty is Load with the service's failure policy applied: any error is
// logged and replaced by an empty, non-nil slice.
func LoadOrEmpty(path string, logger logrus.FieldLogger) []Record {
	records, err := Load(path)
	if err != nil {
		kind := Kind(err)
		entry := logger.WithFields(logrus.Fields{"path": path, "kind": kind})
		switch kind {
		case KindNotFound:
			entry.Errorf("[LISTINGS]: servers file not found: %v", err)
		case KindMalformed:
			entry.Errorf("[LISTINGS]: invalid JSON in servers file: %v", err)
		default:
			entry.Errorf("[LISTINGS]: unexpected error loading servers: %v", err)
		}
		return []Record{}
	}
	return records
}

// Count returns the number of records currently on disk, 0 on any error.
func Count(path string, logger logrus.FieldLogger) int {
	return len(LoadOrEmpty(path, logger))
}
