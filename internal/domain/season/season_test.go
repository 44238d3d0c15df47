package season

import (
	"testing"
	"time"
)

func TestFromTime(t *testing.T) {
	cases := []struct {
		month time.Month
		want  Season
	}{
		{time.January, Winter},
		{time.February, Winter},
		{time.March, Spring},
		{time.May, Spring},
		{time.June, Summer},
		{time.August, Summer},
		{time.September, Autumn},
		{time.November, Autumn},
		{time.December, Winter},
	}
	for _, tc := range cases {
		d := time.Date(2026, tc.month, 15, 0, 0, 0, 0, time.UTC)
		if got := FromTime(d); got != tc.want {
			t.Errorf("FromTime(%s) = %s, want %s", tc.month, got, tc.want)
		}
	}
}

func TestMatches(t *testing.T) {
	if !Matches([]Season{Winter}, Winter) {
		t.Error("expected winter product to match winter")
	}
	if Matches([]Season{Summer}, Winter) {
		t.Error("expected summer product not to match winter")
	}
	if !Matches([]Season{All}, Spring) {
		t.Error("expected all-season product to match any season")
	}
	if Matches(nil, Winter) {
		t.Error("expected untagged product never to match")
	}
}
