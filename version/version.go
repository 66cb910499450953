// Package version parses dotted integer version labels and orders them.
package version

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Version is a parsed dotted version label such as 5.2.1
type Version []int

// ParseError reports a label that is not a dotted sequence of non-negative integers
type ParseError struct {
	Input   string
	Segment string
	Cause   error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("invalid version %q: empty segment", e.Input)
	}
	return fmt.Sprintf("invalid version %q: segment %q is not a non-negative integer", e.Input, e.Segment)
}

// Unwrap returns the underlying strconv error, if any
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parse splits s on "." and converts every segment to an integer
func Parse(s string) (Version, error) {
	segments := strings.Split(s, ".")
	v := make(Version, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return nil, &ParseError{Input: s}
		}
		// strconv accepts a leading sign; labels never carry one.
		if seg[0] < '0' || seg[0] > '9' {
			return nil, &ParseError{Input: s, Segment: seg}
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			return nil, &ParseError{Input: s, Segment: seg, Cause: err}
		}
		v = append(v, n)
	}
	return v, nil
}

// MustParse is like Parse but panics on malformed input
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the dotted form of the version
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Compare returns 1 if a > b, -1 if a < b and 0 if they are equal.
// The shorter version is padded with zeros, so 1.2 and 1.2.0 are equal.
func Compare(a, b Version) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		x, y := 0, 0
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

// CompareStrings parses both labels and compares them
func CompareStrings(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return Compare(va, vb), nil
}

// SortDescending sorts parseable labels from newest to oldest and returns
// the labels that could not be parsed separately, in input order.
func SortDescending(labels []string) (sorted []string, invalid []string) {
	type entry struct {
		label string
		v     Version
	}
	entries := make([]entry, 0, len(labels))
	for _, l := range labels {
		v, err := Parse(l)
		if err != nil {
			invalid = append(invalid, l)
			continue
		}
		entries = append(entries, entry{label: l, v: v})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(entries[i].v, entries[j].v) > 0
	})
	sorted = make([]string, len(entries))
	for i, e := range entries {
		sorted[i] = e.label
	}
	return sorted, invalid
}

// Max returns the greatest parseable label. ok is false when no label parses.
func Max(labels []string) (latest string, invalid []string, ok bool) {
	sorted, invalid := SortDescending(labels)
	if len(sorted) == 0 {
		return "", invalid, false
	}
	return sorted[0], invalid, true
}
