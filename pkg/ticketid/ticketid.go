// Package ticketid allocates human-readable ticket identifiers.
// Ids look like a0001, a0002, ... for p2p tickets and b0001, ... for
// group tickets. Numbering is per category and never reuses an id,
// because the caller feeds in ids from the live and archive tables.
package ticketid

import (
	"fmt"
	"strconv"
	"strings"
)

// Category of a ticket. Informational only, it does not change
// repayment semantics, but it selects the id prefix.
type Category string

const (
	CategoryP2P   Category = "p2p"
	CategoryGroup Category = "group"
)

// Prefix returns the single-letter id prefix for the category.
func (c Category) Prefix() string {
	if c == CategoryGroup {
		return "b"
	}
	return "a"
}

// Next returns the next free id for the category, scanning existing for
// the highest numeric suffix behind the category prefix. Ids that do not
// match the <prefix><digits> shape are ignored. Not safe against
// concurrent allocation; callers serialize through the ledger lock.
func Next(cat Category, existing []string) string {
	prefix := cat.Prefix()

	max := int64(0)
	for _, id := range existing {
		suffix, ok := strings.CutPrefix(id, prefix)
		if !ok || suffix == "" {
			continue
		}
		if !digits(suffix) {
			continue
		}
		n, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("%s%04d", prefix, max+1)
}

// digits reports whether s contains ASCII digits only. ParseInt alone
// is too lax here, it accepts a leading sign.
func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
