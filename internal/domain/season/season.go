// Package season models calendar seasons used for recommendation boosting.
package season

import "time"

// Season is a calendar season tag carried on products.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
	// All marks a product as relevant year-round.
	All Season = "all"
)

// FromTime returns the calendar season for t.
// Mar-May spring, Jun-Aug summer, Sep-Nov autumn, Dec-Feb winter.
func FromTime(t time.Time) Season {
	switch m := t.Month(); {
	case m >= time.March && m <= time.May:
		return Spring
	case m >= time.June && m <= time.August:
		return Summer
	case m >= time.September && m <= time.November:
		return Autumn
	default:
		return Winter
	}
}

// Matches reports whether a product tagged with seasons is relevant in current.
// A product without season tags never matches; the All tag always matches.
func Matches(seasons []Season, current Season) bool {
	for _, s := range seasons {
		if s == current || s == All {
			return true
		}
	}
	return false
}
