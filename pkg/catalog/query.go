package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the ordering of a query result.
type SortKey string

const (
	SortName     SortKey = "name"
	SortNumber   SortKey = "number"
	SortRarity   SortKey = "rarity"
	SortHP       SortKey = "hp"
	SortReleased SortKey = "released"
)

// SortKeys lists every sort key in cycling order.
var SortKeys = []SortKey{SortName, SortNumber, SortRarity, SortHP, SortReleased}

// ParseSortKey validates a sort key name. The empty string selects SortName.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortName, nil
	}
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q (want one of %v)", s, SortKeys)
}

// Next returns the key after k in SortKeys, wrapping around.
func (k SortKey) Next() SortKey {
	i := slices.Index(SortKeys, k)
	return SortKeys[(i+1)%len(SortKeys)]
}

// Query filters and orders cards. The zero Query returns every card by name.
type Query struct {
	// Search is a case-insensitive substring of name, number, set or artist.
	Search   string
	Types    []string
	Rarities []string
	Set      string
	Sort     SortKey
	Desc     bool
}

// Apply returns the matching cards in query order. The input is not modified.
// Cards comparing equal are ordered by ID.
func (q Query) Apply(cards []Card) []Card {
	out := make([]Card, 0, len(cards))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, c := range cards {
		if q.matches(c, search) {
			out = append(out, c)
		}
	}

	by := q.compareFunc()
	slices.SortFunc(out, func(a, b Card) int {
		r := by(a, b)
		if q.Desc {
			r = -r
		}
		if r != 0 {
			return r
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (q Query) matches(c Card, search string) bool {
	if q.Set != "" && !strings.EqualFold(c.Set, q.Set) {
		return false
	}
	if len(q.Types) > 0 && !anyFold(c.Types, q.Types) {
		return false
	}
	if len(q.Rarities) > 0 && !anyFold([]string{c.Rarity}, q.Rarities) {
		return false
	}
	if search == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Number, c.Set, c.Artist} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (q Query) compareFunc() func(a, b Card) int {
	switch q.Sort {
	case SortNumber:
		return func(a, b Card) int { return compareNatural(a.Number, b.Number) }
	case SortRarity:
		return func(a, b Card) int { return cmp.Compare(RarityRank(a.Rarity), RarityRank(b.Rarity)) }
	case SortHP:
		return func(a, b Card) int { return cmp.Compare(a.HP, b.HP) }
	case SortReleased:
		return func(a, b Card) int { return a.Released().Compare(b.Released()) }
	default:
		return func(a, b Card) int { return compareStrings(a.Name, b.Name) }
	}
}

// String summarises the query for display.
func (q Query) String() string {
	var parts []string
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("%q", q.Search))
	}
	if q.Set != "" {
		parts = append(parts, "set:"+q.Set)
	}
	if len(q.Types) > 0 {
		parts = append(parts, "type:"+strings.Join(q.Types, ","))
	}
	if len(q.Rarities) > 0 {
		parts = append(parts, "rarity:"+strings.Join(q.Rarities, ","))
	}
	sort := q.Sort
	if sort == "" {
		sort = SortName
	}
	dir := "asc"
	if q.Desc {
		dir = "desc"
	}
	parts = append(parts, fmt.Sprintf("sort:%s %s", sort, dir))
	return strings.Join(parts, " ")
}

func anyFold(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func compareStrings(a, b string) int {
	if r := strings.Compare(strings.ToLower(a), strings.ToLower(b)); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// compareNatural orders card numbers so that digit runs compare by value:
// "2" < "10" < "TG01". Digit runs sort before letters.
func compareNatural(a, b string) int {
	for a != "" && b != "" {
		ca, restA := chunk(a)
		cb, restB := chunk(b)
		da, db := isDigit(ca[0]), isDigit(cb[0])

		var r int
		switch {
		case da && db:
			r = compareDigits(ca, cb)
		case da:
			r = -1
		case db:
			r = 1
		default:
			r = strings.Compare(strings.ToLower(ca), strings.ToLower(cb))
		}
		if r != 0 {
			return r
		}
		a, b = restA, restB
	}
	return cmp.Compare(len(a), len(b))
}

// chunk splits off the leading run of digits or non-digits.
func chunk(s string) (string, string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if r := cmp.Compare(len(a), len(b)); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
