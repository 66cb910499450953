package version

import (
	"errors"
	"math/rand"
	"reflect"
	"strconv"
	"strings"
	"testing"

	goversion "github.com/hashicorp/go-version"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    Version
		expectError bool
	}{
		{name: "three segments", input: "5.2.1", expected: Version{5, 2, 1}},
		{name: "single segment", input: "2", expected: Version{2}},
		{name: "zero segments kept", input: "1.0.0", expected: Version{1, 0, 0}},
		{name: "leading zeros", input: "01.002", expected: Version{1, 2}},
		{name: "empty string", input: "", expectError: true},
		{name: "empty segment", input: "1..2", expectError: true},
		{name: "trailing dot", input: "1.2.", expectError: true},
		{name: "alpha segment", input: "1.2a.3", expectError: true},
		{name: "negative segment", input: "1.-2", expectError: true},
		{name: "plus sign", input: "+1.2", expectError: true},
		{name: "v prefix", input: "v1.2", expectError: true},
		{name: "whitespace", input: " 1.2", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.input, v)
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected *ParseError, got %T", err)
				}
				if pe.Input != tt.input {
					t.Errorf("expected input %q in error, got %q", tt.input, pe.Input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(v, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, v)
			}
		})
	}
}

func TestVersion_String(t *testing.T) {
	if got := MustParse("5.2.1").String(); got != "5.2.1" {
		t.Errorf("expected 5.2.1, got %s", got)
	}
	if got := MustParse("007").String(); got != "7" {
		t.Errorf("expected 7, got %s", got)
	}
}

func TestCompareStrings(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"1.2", "1.2.0", 0},
		{"2.0.0", "1.9.9", 1},
		{"1.0", "1.0.1", -1},
		{"2", "1.9.9", 1},
		{"1.10", "1.9", 1},
		{"3.0.0", "3", 0},
		{"0.0.1", "0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got, err := CompareStrings(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("CompareStrings(%q, %q) = %d, expected %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCompareStrings_InvalidInput(t *testing.T) {
	if _, err := CompareStrings("1.x", "1.0"); err == nil {
		t.Error("expected error for malformed left operand")
	}
	if _, err := CompareStrings("1.0", ""); err == nil {
		t.Error("expected error for malformed right operand")
	}
}

func randomLabel(r *rand.Rand) string {
	n := 1 + r.Intn(4)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strconv.Itoa(r.Intn(4))
	}
	return strings.Join(parts, ".")
}

func TestCompare_OrderProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a := MustParse(randomLabel(r))
		b := MustParse(randomLabel(r))
		c := MustParse(randomLabel(r))

		if Compare(a, a) != 0 {
			t.Fatalf("reflexivity violated for %v", a)
		}
		if Compare(a, b) != -Compare(b, a) {
			t.Fatalf("antisymmetry violated for %v, %v", a, b)
		}
		if Compare(a, b) >= 0 && Compare(b, c) >= 0 && Compare(a, c) < 0 {
			t.Fatalf("transitivity violated for %v >= %v >= %v", a, b, c)
		}
	}
}

func TestCompare_MatchesGoVersion(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a, b := randomLabel(r), randomLabel(r)
		ga := goversion.Must(goversion.NewVersion(a))
		gb := goversion.Must(goversion.NewVersion(b))

		got, err := CompareStrings(a, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if expected := ga.Compare(gb); got != expected {
			t.Fatalf("CompareStrings(%q, %q) = %d, go-version says %d", a, b, got, expected)
		}
	}
}

func TestSortDescending(t *testing.T) {
	sorted, invalid := SortDescending([]string{"1.0.0", "1.10", "1.2.0", "beta", "1.9.9", "2..0"})

	expected := []string{"1.10", "1.9.9", "1.2.0", "1.0.0"}
	if !reflect.DeepEqual(sorted, expected) {
		t.Errorf("expected %v, got %v", expected, sorted)
	}
	if !reflect.DeepEqual(invalid, []string{"beta", "2..0"}) {
		t.Errorf("expected invalid labels [beta 2..0], got %v", invalid)
	}
}

func TestMax(t *testing.T) {
	tests := []struct {
		name       string
		labels     []string
		expected   string
		expectedOK bool
	}{
		{name: "picks greatest", labels: []string{"1.0.0", "1.2.0"}, expected: "1.2.0", expectedOK: true},
		{name: "padding ties keep first", labels: []string{"1.2", "1.2.0"}, expected: "1.2", expectedOK: true},
		{name: "skips invalid", labels: []string{"x", "0.1"}, expected: "0.1", expectedOK: true},
		{name: "all invalid", labels: []string{"x", "y"}, expectedOK: false},
		{name: "empty", labels: nil, expectedOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := Max(tt.labels)
			if ok != tt.expectedOK {
				t.Fatalf("expected ok=%v, got %v", tt.expectedOK, ok)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
