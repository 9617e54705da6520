// Package season defines the agricultural season type shared by the product
// catalog and the personalization engine.
package season

import (
	"fmt"
	"strings"
	"time"
)

// Season is one of the four agricultural calendar quarters
type Season string

const (
	Spring Season = "SPRING"
	Summer Season = "SUMMER"
	Fall   Season = "FALL"
	Winter Season = "WINTER"
)

// All lists the seasons in cyclic order (Spring → Summer → Fall → Winter → Spring)
var All = []Season{Spring, Summer, Fall, Winter}

// FromTime maps a calendar date to its season:
// Mar–May Spring, Jun–Aug Summer, Sep–Nov Fall, Dec–Feb Winter
func FromTime(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Fall
	default:
		return Winter
	}
}

// Parse converts a string to a Season, case-insensitively
func Parse(s string) (Season, error) {
	switch Season(strings.ToUpper(strings.TrimSpace(s))) {
	case Spring:
		return Spring, nil
	case Summer:
		return Summer, nil
	case Fall:
		return Fall, nil
	case Winter:
		return Winter, nil
	}
	return "", fmt.Errorf("invalid season: %q", s)
}

// Valid reports whether s is one of the four defined seasons
func (s Season) Valid() bool {
	switch s {
	case Spring, Summer, Fall, Winter:
		return true
	}
	return false
}

// Next returns the season that follows s in the cycle
func (s Season) Next() Season {
	for i, candidate := range All {
		if candidate == s {
			return All[(i+1)%len(All)]
		}
	}
	return s
}

// Prev returns the season that precedes s in the cycle
func (s Season) Prev() Season {
	for i, candidate := range All {
		if candidate == s {
			return All[(i+len(All)-1)%len(All)]
		}
	}
	return s
}

// Adjacent reports whether other is directly before or after s in the cycle.
// A season is not adjacent to itself.
func (s Season) Adjacent(other Season) bool {
	return other == s.Next() || other == s.Prev()
}

func (s Season) String() string {
	return string(s)
}
