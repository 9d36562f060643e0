package prompt

import (
	"fmt"
	"strings"
)

// HolidayRange is one statutory holiday span, with the weekend makeup
// workdays that Chinese holiday scheduling shifts around it. These are
// published facts injected into the prompt as disambiguation context, not
// logic the pipeline applies itself.
type HolidayRange struct {
	Name     string
	First    string // YYYY-MM-DD, inclusive
	Last     string // YYYY-MM-DD, inclusive
	Workdays []string
}

// holidaysByYear holds the official mainland-China holiday schedule per
// year. Only years with a published State Council announcement are listed.
var holidaysByYear = map[int][]HolidayRange{
	2025: {
		{Name: "New Year's Day (元旦)", First: "2025-01-01", Last: "2025-01-01"},
		{Name: "Spring Festival (春节)", First: "2025-01-28", Last: "2025-02-04", Workdays: []string{"2025-01-26", "2025-02-08"}},
		{Name: "Qingming Festival (清明节)", First: "2025-04-04", Last: "2025-04-06"},
		{Name: "Labour Day (劳动节)", First: "2025-05-01", Last: "2025-05-05", Workdays: []string{"2025-04-27"}},
		{Name: "Dragon Boat Festival (端午节)", First: "2025-05-31", Last: "2025-06-02"},
		{Name: "National Day & Mid-Autumn (国庆节、中秋节)", First: "2025-10-01", Last: "2025-10-08", Workdays: []string{"2025-09-28", "2025-10-11"}},
	},
}

// holidayTable renders the holiday facts for a year, one line per range.
func holidayTable(year int) string {
	ranges, ok := holidaysByYear[year]
	if !ok {
		return fmt.Sprintf("No official holiday schedule is available for %d; interpret holiday references conservatively.", year)
	}

	var b strings.Builder
	for _, r := range ranges {
		if r.First == r.Last {
			fmt.Fprintf(&b, "- %s: %s", r.Name, r.First)
		} else {
			fmt.Fprintf(&b, "- %s: %s to %s", r.Name, r.First, r.Last)
		}
		if len(r.Workdays) > 0 {
			fmt.Fprintf(&b, " (makeup workdays: %s)", strings.Join(r.Workdays, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
