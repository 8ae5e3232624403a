package update

import (
	"strconv"
	"strings"
	"unicode"
)

// Version is a parsed conda version string. Ordering follows conda's rules:
// an optional integer epoch (N!), then dot/dash/underscore separated
// components, each split into alternating numeric and alphabetic runs.
// Alphabetic runs sort below numbers, except "post" which sorts above
// everything and "dev" which sorts below everything. Missing components
// count as 0. Local version labels (+...) are ignored.
type Version struct {
	Raw   string
	epoch int64
	parts [][]component
}

type component struct {
	num int64
	str string
}

const (
	rankDev = iota
	rankString
	rankNumber
	rankPost
)

func (c component) rank() int {
	switch c.str {
	case "":
		return rankNumber
	case "dev":
		return rankDev
	case "post":
		return rankPost
	default:
		return rankString
	}
}

func (c component) compare(o component) int {
	if r, or := c.rank(), o.rank(); r != or {
		return cmpInt(int64(r), int64(or))
	}
	if c.str == "" {
		return cmpInt(c.num, o.num)
	}
	return strings.Compare(c.str, o.str)
}

// ParseVersion parses a conda version string. It never fails; unparsable
// input still yields a consistently ordered value.
func ParseVersion(s string) Version {
	v := Version{Raw: s}
	s = strings.ToLower(strings.TrimSpace(s))

	if idx := strings.IndexByte(s, '+'); idx != -1 {
		s = s[:idx]
	}
	if idx := strings.IndexByte(s, '!'); idx != -1 {
		v.epoch, _ = strconv.ParseInt(s[:idx], 10, 64)
		s = s[idx+1:]
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
	for _, field := range fields {
		v.parts = append(v.parts, splitRuns(field))
	}

	return v
}

// splitRuns splits "1a2" into 1, "a", 2. A field starting with a letter gets
// an implicit leading 0 so that "1.a" and "1.0a" compare equal.
func splitRuns(field string) []component {
	var out []component
	start := 0
	for start < len(field) {
		digit := unicode.IsDigit(rune(field[start]))
		end := start
		for end < len(field) && unicode.IsDigit(rune(field[end])) == digit {
			end++
		}
		run := field[start:end]
		if digit {
			n, err := strconv.ParseInt(run, 10, 64)
			if err != nil {
				// absurdly long digit runs compare as strings
				out = append(out, component{str: run})
			} else {
				out = append(out, component{num: n})
			}
		} else {
			if len(out) == 0 {
				out = append(out, component{})
			}
			out = append(out, component{str: run})
		}
		start = end
	}
	return out
}

// Compare returns -1, 0 or 1 as v sorts before, equal to or after o
func (v Version) Compare(o Version) int {
	if v.epoch != o.epoch {
		return cmpInt(v.epoch, o.epoch)
	}

	n := max(len(v.parts), len(o.parts))
	for i := 0; i < n; i++ {
		a, b := partAt(v.parts, i), partAt(o.parts, i)
		m := max(len(a), len(b))
		for j := 0; j < m; j++ {
			if c := componentAt(a, j).compare(componentAt(b, j)); c != 0 {
				return c
			}
		}
	}
	return 0
}

// IsNewerThan returns true if v sorts strictly after o
func (v Version) IsNewerThan(o Version) bool {
	return v.Compare(o) > 0
}

// CompareVersions compares two version strings
func CompareVersions(a, b string) int {
	return ParseVersion(a).Compare(ParseVersion(b))
}

func partAt(parts [][]component, i int) []component {
	if i < len(parts) {
		return parts[i]
	}
	return nil
}

func componentAt(part []component, i int) component {
	if i < len(part) {
		return part[i]
	}
	return component{}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
