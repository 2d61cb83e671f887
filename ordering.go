package dsstore

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// foldForCompare reduces a filename to the form used by compareRecordKeys:
// NFD-decomposed, stripped of combining marks, and case-folded. This
// approximates the host file manager's locale-aware, diacritic- and
// case-insensitive ordering using golang.org/x/text/unicode/norm for
// decomposition and golang.org/x/text/cases for folding.
func foldForCompare(s string) string {
	decomposed := norm.NFD.String(s)
	stripped := make([]rune, 0, len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		stripped = append(stripped, r)
	}
	return cases.Fold().String(string(stripped))
}

// compareFileNames implements case-insensitive, diacritic-insensitive
// comparison matching the host file manager.
func compareFileNames(a, b string) int {
	fa, fb := foldForCompare(a), foldForCompare(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

// compareRecordKeys implements the full total order: filename first
// (folded comparison), then typeCode.rawU32 ascending on ties.
func compareRecordKeys(a, b recordKey) int {
	if c := compareFileNames(a.FileName, b.FileName); c != 0 {
		return c
	}
	switch {
	case a.TypeCode < b.TypeCode:
		return -1
	case a.TypeCode > b.TypeCode:
		return 1
	default:
		return 0
	}
}

// compareRecords orders two full Records by their identity key.
func compareRecords(a, b Record) int {
	return compareRecordKeys(a.key(), b.key())
}
