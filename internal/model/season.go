package model

import "time"

// Season names as used by the anime industry's quarterly release cycle.
const (
	SeasonWinter = "winter"
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonFall   = "fall"

	SeasonUnknown = "unknown"
)

// seasonOrdinals orders quarters within a year: winter < spring < summer < fall.
var seasonOrdinals = map[string]int{
	SeasonWinter: 0,
	SeasonSpring: 1,
	SeasonSummer: 2,
	SeasonFall:   3,
}

var seasonNames = [4]string{SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall}

// Season identifies one quarterly release window.
type Season struct {
	Year int
	Name string
}

// SeasonOf maps a point in time to its release quarter:
// months 1-3 are winter, 4-6 spring, 7-9 summer, 10-12 fall.
func SeasonOf(t time.Time) Season {
	return Season{
		Year: t.Year(),
		Name: seasonNames[(int(t.Month())-1)/3],
	}
}

// Next returns the following quarter, rolling the year over after fall.
func (s Season) Next() Season {
	ord := seasonOrdinals[s.Name]
	if ord == 3 {
		return Season{Year: s.Year + 1, Name: seasonNames[0]}
	}
	return Season{Year: s.Year, Name: seasonNames[ord+1]}
}

// Compare orders seasons by (year, quarter ordinal).
// It returns -1 if s is before other, 0 if equal, 1 if after.
func (s Season) Compare(other Season) int {
	if s.Year != other.Year {
		if s.Year < other.Year {
			return -1
		}
		return 1
	}
	a, b := seasonOrdinals[s.Name], seasonOrdinals[other.Name]
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Known reports whether the season name is one of the four quarters.
func (s Season) Known() bool {
	_, ok := seasonOrdinals[s.Name]
	return ok
}

// MaxSeason returns the latest season among the given ones.
// The second return value is false for an empty input.
func MaxSeason(seasons []Season) (Season, bool) {
	if len(seasons) == 0 {
		return Season{}, false
	}
	latest := seasons[0]
	for _, s := range seasons[1:] {
		if s.Compare(latest) > 0 {
			latest = s
		}
	}
	return latest, true
}
