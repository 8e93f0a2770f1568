package picklist

import (
	"strings"

	"github.com/EargasmDev/SortlyXEargasmInternalTool/pkg/models"
)

// Normalize standardizes a scanned text or item name for comparison:
// surrounding whitespace is trimmed and the text is case-folded. Hyphens
// stay as-is since SKUs use them (e.g. HF-Blue).
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Match resolves a raw scan text to exactly one item name within the job.
// Matching is exact on the normalized form; a partial scan like "HF-Bl"
// never silently decrements the wrong SKU.
//
// Returns the item's stored (case-sensitive) name on success, ErrNoMatch if
// nothing matches, or ErrAmbiguousMatch if more than one item normalizes to
// the scanned text. Ambiguity cannot occur when item names are unique; a
// degenerate store state surfaces as an error rather than a guess.
// Pure function, no side effects.
func Match(job models.Job, rawScanText string) (string, error) {
	want := Normalize(rawScanText)

	matched := ""
	count := 0
	for _, it := range job.Items {
		if Normalize(it.Name) == want {
			matched = it.Name
			count++
		}
	}

	switch count {
	case 0:
		return "", ErrNoMatch
	case 1:
		return matched, nil
	default:
		return "", ErrAmbiguousMatch
	}
}
