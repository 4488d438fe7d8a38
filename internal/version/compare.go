// SPDX-License-Identifier: MPL-2.0

package version

import (
	"cmp"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// minOfficialBuildLen is the digit count of the date-derived segment in an
// official build number such as "24080.9".
const minOfficialBuildLen = 5

// Compare returns -1, 0 or +1 ordering a before, equal to, or after b.
// Build metadata is ignored.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.major, b.major); c != 0 {
		return c
	}
	if c := cmp.Compare(a.minor, b.minor); c != 0 {
		return c
	}
	if c := comparePatch(a.patch, b.patch); c != 0 {
		return c
	}
	switch {
	case a.prerelease == b.prerelease:
		return 0
	case a.prerelease == "":
		return 1
	case b.prerelease == "":
		return -1
	}
	return semver.Compare("v0.0.0-"+a.prerelease, "v0.0.0-"+b.prerelease)
}

// Compare is the method form of Compare.
func (v Version) Compare(other Version) int { return Compare(v, other) }

// Less reports whether v orders before other.
func (v Version) Less(other Version) bool { return Compare(v, other) < 0 }

// Equal reports whether v and other are equal under Compare.
func (v Version) Equal(other Version) bool { return Compare(v, other) == 0 }

// FeatureBand returns the band identifier ("1xx", "2xx", ...) of an SDK
// version. Concrete patches below 100 belong to no band.
func FeatureBand(v Version) (string, bool) {
	lo, _ := v.patch.Range()
	if lo < 100 {
		return "", false
	}
	return fmt.Sprintf("%dxx", lo/100), true
}

// BuildHash extracts the trailing build identifier of v: the build
// metadata if present, else the official build number at the end of the
// prerelease label ("preview.1.24080.9" gives "24080.9"), else a trailing
// commit hash token.
func BuildHash(v Version) (string, bool) {
	if v.build != "" {
		return v.build, true
	}
	if v.prerelease == "" {
		return "", false
	}
	ids := strings.Split(v.prerelease, ".")
	if n := len(ids); n >= 3 && isDigits(ids[n-1]) && isDigits(ids[n-2]) && len(ids[n-2]) >= minOfficialBuildLen {
		return ids[n-2] + "." + ids[n-1], true
	}
	if last := ids[len(ids)-1]; isCommitHash(last) {
		return last, true
	}
	return "", false
}

func isCommitHash(s string) bool {
	if len(s) < 7 {
		return false
	}
	letter := false
	for i := range len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
			letter = true
		default:
			return false
		}
	}
	return letter
}
