package notify

import (
	"time"

	"github.com/user/anime-notify-bot/internal/model"
)

// airDateLayouts covers the provider's full and truncated date forms.
var airDateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// parseAirDate resolves a provider date string, falling back to the given
// time for empty or unparseable values. The fallback makes the airing window
// always-currently-open in the degenerate case.
func parseAirDate(s string, fallback time.Time) time.Time {
	for _, layout := range airDateLayouts {
		if t, err := time.ParseInLocation(layout, s, fallback.Location()); err == nil {
			return t
		}
	}
	return fallback
}

// airingWindowOpen reports whether now falls inside the title's
// [start_date, end_date] interval.
func airingWindowOpen(detail *model.AnimeDetail, now time.Time) bool {
	start := parseAirDate(detail.StartDate, now)
	end := parseAirDate(detail.EndDate, now)

	// An end date is a calendar day; the window stays open through it.
	end = end.Add(24*time.Hour - time.Nanosecond)

	return !now.Before(start) && !now.After(end)
}
