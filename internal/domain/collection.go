package domain

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

// FilterByTags returns the bricks carrying at least one of tags, in input order.
// An empty tag list selects everything.
func FilterByTags(items []Brick, tags []string) []Brick {
	if len(tags) == 0 {
		return slices.Clone(items)
	}
	out := make([]Brick, 0, len(items))
	for _, b := range items {
		if b.HasAnyTag(tags) {
			out = append(out, b)
		}
	}
	return out
}

// SortByNumber returns a copy of items ordered by catalog number.
// Two numbers that both start with an integer compare numerically; otherwise
// they compare by Unicode collation. The sort is stable.
func SortByNumber(items []Brick) []Brick {
	out := slices.Clone(items)
	c := collate.New(language.Und)
	slices.SortStableFunc(out, func(a, b Brick) int {
		return compareNumbers(c, a.Number, b.Number)
	})
	return out
}

func compareNumbers(c *collate.Collator, a, b string) int {
	na, okA := leadingInt(a)
	nb, okB := leadingInt(b)
	if okA && okB {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return c.CompareString(a, b)
}

// leadingInt reads an optionally signed run of digits at the start of s,
// ignoring leading whitespace. "10294-1" yields 10294.
func leadingInt(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtractTags returns the sorted set of tags used across items.
func ExtractTags(items []Brick) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, b := range items {
		for _, t := range b.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return tags
}

// FindBrick returns the index of the brick with brickID, or -1.
func FindBrick(items []Brick, brickID string) int {
	return slices.IndexFunc(items, func(b Brick) bool { return b.ID == brickID })
}

// CheckUniqueNumber fails when another brick (other than exceptID) already uses number.
func CheckUniqueNumber(items []Brick, number, exceptID string) error {
	for _, b := range items {
		if b.ID != exceptID && b.Number == number {
			return domainerrors.AlreadyExistsf("brick number %q is already in the collection", number)
		}
	}
	return nil
}
