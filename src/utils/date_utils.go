package utils

import (
	"fmt"
	"strings"
	"time"
)

// MoscowTime is the zone Russian broker reports are written in. The
// fixed-offset fallback keeps parsing working on hosts without tzdata.
var MoscowTime = loadMoscowTime()

func loadMoscowTime() *time.Location {
	if loc, err := time.LoadLocation("Europe/Moscow"); err == nil {
		return loc
	}
	return time.FixedZone("MSK", 3*60*60)
}

var dateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02",
}

// ParseReportDate reads a broker's date or date-time text in Moscow
// time. A bare date means the start of that day.
func ParseReportDate(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, MoscowTime); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", text)
}

// FormatDate renders a time as the yyyy-MM-dd key used by the exchange
// rate tables.
func FormatDate(t time.Time) string {
	return t.In(MoscowTime).Format("2006-01-02")
}
