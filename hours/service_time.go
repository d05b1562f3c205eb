package hours

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	hourLayout = "2006-01-02 15:04"
)

var (
	// All upstream timestamps are published in China Standard Time, no DST.
	serviceLoc  = time.FixedZone("CST", 8*60*60)
	guiLocation = time.UTC
)

func SetGuiTimezone(timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %v", timezone, err)
	}
	guiLocation = loc
	return nil
}

func Service() *time.Location {
	return serviceLoc
}

func InService(t time.Time) time.Time {
	return t.In(serviceLoc)
}

// Midnight returns the start of the day t falls on, in service time.
func Midnight(t time.Time) time.Time {
	t = t.In(serviceLoc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, serviceLoc)
}

func Today(now time.Time) time.Time {
	return Midnight(now)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(serviceLoc).Date()
	by, bm, bd := b.In(serviceLoc).Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses "2006-01-02" as a service time midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, serviceLoc)
}

// ParseMinute parses "2006-01-02 15:04" in service time.
func ParseMinute(s string) (time.Time, error) {
	return time.ParseInLocation(hourLayout, s, serviceLoc)
}

func FormatDate(t time.Time) string {
	return t.In(serviceLoc).Format(dateLayout)
}

func FormatTimeInGuiTimezone(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(guiLocation).Format("2006-01-02 15:04:05")
}

func FormatDateInGuiTimezone(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(guiLocation).Format(dateLayout)
}
