package rank

import (
	"fmt"
	"sort"
	"strings"

	"jobagg-engine/internal/domain"
)

type Order string

const (
	OrderConfig Order = "config"
	OrderRecent Order = "recent"
	OrderScore  Order = "score"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrderConfig, nil
	case OrderConfig, OrderRecent, OrderScore:
		return o, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// Sort reorders postings in place. Ties, and OrderConfig, keep the incoming
// order, which is site declaration order then source order.
func Sort(postings []domain.Posting, o Order) {
	switch o {
	case OrderRecent:
		sort.SliceStable(postings, func(i, j int) bool {
			a, b := postings[i].PostedAt, postings[j].PostedAt
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return a.After(*b)
		})
	case OrderScore:
		sort.SliceStable(postings, func(i, j int) bool {
			return postings[i].Score > postings[j].Score
		})
	}
}
