package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeName produces the case/whitespace-folded form of a display name
// used for duplicate and equality matching. Unicode case folding handles
// names beyond ASCII ("STRAßE" and "strasse" compare equal).
func NormalizeName(name string) string {
	folded := cases.Fold().String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), " ")
}
