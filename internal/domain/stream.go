package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidIdentifier is returned for stream names or value columns that are
// not plain SQL identifiers.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Stream is one logical measurement series. Name doubles as the table name in
// both stores and ValueColumn names the measured quantity.
type Stream struct {
	Name        string
	ValueColumn string
}

// NewStream builds a stream whose value column is derived from its name.
func NewStream(name string) Stream {
	return Stream{Name: name, ValueColumn: DeriveValueColumn(name)}
}

// DeriveValueColumn returns the part of name after the first underscore, so
// "cluster1_suhu" measures "suhu". Names without a separator measure "value".
func DeriveValueColumn(name string) string {
	_, col, ok := strings.Cut(name, "_")
	if !ok || col == "" {
		return "value"
	}
	return col
}

// Validate checks both identifiers.
func (s Stream) Validate() error {
	if !identPattern.MatchString(s.Name) {
		return fmt.Errorf("stream name %q: %w", s.Name, ErrInvalidIdentifier)
	}
	if !identPattern.MatchString(s.ValueColumn) {
		return fmt.Errorf("stream %s value column %q: %w", s.Name, s.ValueColumn, ErrInvalidIdentifier)
	}
	return nil
}

// ValidIdentifier reports whether ident can be used unescaped as a table or
// column name.
func ValidIdentifier(ident string) bool {
	return identPattern.MatchString(ident)
}

// Catalog is the stream lookup table built once at configuration time. It
// keeps the configured order, which is the order streams are synced in.
type Catalog struct {
	order  []Stream
	byName map[string]Stream
}

// NewCatalog validates streams and rejects duplicate names.
func NewCatalog(streams []Stream) (Catalog, error) {
	c := Catalog{
		order:  make([]Stream, 0, len(streams)),
		byName: make(map[string]Stream, len(streams)),
	}
	for _, s := range streams {
		if err := s.Validate(); err != nil {
			return Catalog{}, err
		}
		if _, dup := c.byName[s.Name]; dup {
			return Catalog{}, fmt.Errorf("duplicate stream %q", s.Name)
		}
		c.order = append(c.order, s)
		c.byName[s.Name] = s
	}
	return c, nil
}

// Streams returns the streams in configured order.
func (c Catalog) Streams() []Stream {
	out := make([]Stream, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of configured streams.
func (c Catalog) Len() int { return len(c.order) }

// Lookup returns the configured stream for name.
func (c Catalog) Lookup(name string) (Stream, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Resolve returns the configured stream for name, falling back to a derived
// stream for names that are no longer configured (e.g. old buffer content).
func (c Catalog) Resolve(name string) Stream {
	if s, ok := c.byName[name]; ok {
		return s
	}
	return NewStream(name)
}
