package chrono

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "time/tzdata"
)

var paris *time.Location

func init() {
	var err error
	paris, err = time.LoadLocation("Europe/Paris")
	if err != nil {
		panic(err)
	}
}

// Paris returns a [*time.Location] for Europe/Paris, the timezone every date on the
// assemblee website is expressed in.
func Paris() *time.Location {
	return paris
}

// matches "Lundi 17 mars 2022" or "mardi 1er octobre 2024" anywhere in a string
var frenchDateRegex = regexp.MustCompile(
	`(?i)(?:lundi|mardi|mercredi|jeudi|vendredi|samedi|dimanche) (\d{1,2})(?:er)? ([a-zéû]+) (\d{4})`,
)

var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"fevrier":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"aout":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
	"decembre":  time.December,
}

// ParseFrenchDate finds a spelled out french date in `raw` and returns it as YYYY-MM-DD.
// It returns an empty string when no valid date is found, it never fails.
func ParseFrenchDate(raw string) string {
	date, ok := FindFrenchDate(raw)
	if !ok {
		return ""
	}
	return date.Format(time.DateOnly)
}

// FindFrenchDate is ParseFrenchDate but returns the date itself.
func FindFrenchDate(raw string) (time.Time, bool) {
	normalized := strings.Join(strings.Fields(raw), " ")
	groups := frenchDateRegex.FindStringSubmatch(normalized)
	if len(groups) < 4 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(groups[1])
	if err != nil {
		return time.Time{}, false
	}
	month, ok := frenchMonths[strings.ToLower(groups[2])]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(groups[3])
	if err != nil {
		return time.Time{}, false
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, paris)
	// time.Date normalizes 31 février into march, which is not a real date
	if date.Day() != day || date.Month() != month {
		return time.Time{}, false
	}
	return date, true
}

// FormatFrenchDate renders a date the way the assemblee website spells it out.
func FormatFrenchDate(date time.Time) string {
	weekdays := [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	months := [...]string{
		"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre",
	}
	day := strconv.Itoa(date.Day())
	if date.Day() == 1 {
		day = "1er"
	}
	return fmt.Sprintf(
		"%s %s %s %d",
		weekdays[date.Weekday()],
		day,
		months[date.Month()-1],
		date.Year(),
	)
}
