// SPDX-License-Identifier: MPL-2.0

package version

import (
	"fmt"
	"strconv"
)

const (
	// PatchConcrete is a fully specified patch number.
	PatchConcrete PatchKind = iota
	// PatchWildcard is a feature-band range such as "1xx" or "20x".
	PatchWildcard
)

// maxPatch is the largest concrete patch the grammar accepts.
const maxPatch = 999

type (
	// PatchKind discriminates the Patch variants.
	PatchKind uint8

	// Patch is the third version segment. For PatchConcrete, value holds the
	// number. For PatchWildcard, value holds the fixed leading digits and
	// width the count of trailing 'x' placeholders.
	Patch struct {
		kind  PatchKind
		value int
		width int
	}
)

// ConcretePatch returns a concrete patch. n must be in 0-999.
func ConcretePatch(n int) (Patch, error) {
	if n < 0 || n > maxPatch {
		return Patch{}, fmt.Errorf("patch %d out of range 0-%d", n, maxPatch)
	}
	return Patch{kind: PatchConcrete, value: n}, nil
}

// Kind returns the variant of the patch.
func (p Patch) Kind() PatchKind { return p.kind }

// IsWildcard reports whether the patch is a feature-band range.
func (p Patch) IsWildcard() bool { return p.kind == PatchWildcard }

// Value returns the concrete patch number, or false for a wildcard.
func (p Patch) Value() (int, bool) {
	if p.kind != PatchConcrete {
		return 0, false
	}
	return p.value, true
}

// Range returns the inclusive bounds covered by the patch. A concrete
// patch covers exactly itself.
func (p Patch) Range() (lo, hi int) {
	if p.kind == PatchConcrete {
		return p.value, p.value
	}
	span := pow10(p.width)
	lo = p.value * span
	return lo, lo + span - 1
}

// Contains reports whether the concrete patch number n lies in the range.
func (p Patch) Contains(n int) bool {
	lo, hi := p.Range()
	return n >= lo && n <= hi
}

// String formats the patch canonically ("100", "1xx", "20x").
func (p Patch) String() string {
	if p.kind == PatchConcrete {
		return strconv.Itoa(p.value)
	}
	s := strconv.Itoa(p.value)
	for range p.width {
		s += "x"
	}
	return s
}

// comparePatch orders wildcards before concrete patches. Wildcards order by
// their lower bound, then the wider range first.
func comparePatch(a, b Patch) int {
	if a.kind != b.kind {
		if a.kind == PatchWildcard {
			return -1
		}
		return 1
	}
	alo, ahi := a.Range()
	blo, bhi := b.Range()
	switch {
	case alo < blo:
		return -1
	case alo > blo:
		return 1
	case ahi > bhi:
		return -1
	case ahi < bhi:
		return 1
	}
	return 0
}

// parsePatch accepts 1-3 digits or a wildcard of shape Dxx / DDx. The
// caller lower-cases the placeholder before calling.
func parsePatch(s string) (Patch, string) {
	switch {
	case s == "":
		return Patch{}, "empty patch"
	case len(s) > 3:
		return Patch{}, "patch has more than 3 characters"
	}

	x := 0
	for i := len(s) - 1; i >= 0 && s[i] == 'x'; i-- {
		x++
	}
	if x == 0 {
		n, reason := parseNumber(s, "patch")
		if reason != "" {
			return Patch{}, reason
		}
		return Patch{kind: PatchConcrete, value: n}, ""
	}

	// Wildcards always span three characters so the band stays in 100-999.
	if len(s) != 3 || x == 3 {
		return Patch{}, fmt.Sprintf("ambiguous wildcard patch %q (want Dxx or DDx)", s)
	}
	prefix := s[:3-x]
	if !isDigits(prefix) {
		return Patch{}, fmt.Sprintf("invalid wildcard patch %q", s)
	}
	if prefix[0] == '0' {
		return Patch{}, fmt.Sprintf("wildcard patch %q must not start with 0", s)
	}
	n, _ := strconv.Atoi(prefix)
	return Patch{kind: PatchWildcard, value: n, width: x}, ""
}

func pow10(n int) int {
	r := 1
	for range n {
		r *= 10
	}
	return r
}
