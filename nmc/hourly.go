package nmc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/angas/nmcweather-go/hours"
	"github.com/angas/nmcweather-go/types/maybe"
	"golang.org/x/net/html"
)

const maxDayBlocks = 7

// Positional cells of a 3-hour sub-block.
const (
	cellTime = iota
	cellIcon
	cellPrecipitation
	cellTemperature
	cellWindSpeed
	cellWindDirection
	cellPressure
	cellHumidity
	cellCount
)

type HourlyForecast struct {
	Time          time.Time            `json:"time"`
	Precipitation maybe.Maybe[float64] `json:"precipitation"`
	Temperature   maybe.Maybe[float64] `json:"temperature"`
	WindSpeed     maybe.Maybe[float64] `json:"wind_speed"`
	WindBearing   maybe.Maybe[float64] `json:"wind_bearing"`
	WindDirection string               `json:"wind_direction"`
	Pressure      maybe.Maybe[float64] `json:"pressure"`
	Humidity      maybe.Maybe[float64] `json:"humidity"`
}

var (
	numberRe    = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	timeLabelRe = regexp.MustCompile(`^(?:(\d{1,2})日)?\s*(\d{1,2}):(\d{2})$`)
	dayLabelRe  = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
)

// hourlyState tracks where the walk is: which day block and which calendar
// date the rows currently belong to.
type hourlyState struct {
	dayIndex int
	date     time.Time
}

// advanceTo moves the running date one day forward and makes sure it lands
// on the day of month printed in the label.
func (s *hourlyState) advanceTo(dayOfMonth int) {
	next := s.date.AddDate(0, 0, 1)
	if next.Day() != dayOfMonth {
		next = closestDayOfMonth(next, dayOfMonth)
	}
	s.date = next
}

func closestDayOfMonth(d time.Time, day int) time.Time {
	month := d.Month()
	switch {
	case day > d.Day()+15:
		month--
	case day+15 < d.Day():
		month++
	}
	return time.Date(d.Year(), month, day, 0, 0, 0, 0, d.Location())
}

// ParseHourly extracts the 3-hour forecast rows from a station forecast page.
//
// The page carries up to seven day blocks (#day0..#day6). Each block holds
// sub-blocks with eight positional cells, see cellTime..cellHumidity. The
// date of every block is taken from the day tabs in #day7 when present,
// otherwise it is today plus the block index. Block 0 is dropped when it is
// not today, stations keep serving yesterday's block for a while after
// midnight.
func ParseHourly(markup string, now time.Time) ([]HourlyForecast, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, nil
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("%w: hourly markup: %w", ErrParse, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	today := hours.Today(now)
	labels := doc.Find("#day7 .date").Map(func(_ int, s *goquery.Selection) string {
		return normalizeSpace(s.Text())
	})

	var result []HourlyForecast
	for i := range maxDayBlocks {
		block := doc.Find(fmt.Sprintf("#day%d", i))
		if block.Length() == 0 {
			continue
		}

		state := hourlyState{dayIndex: i, date: today.AddDate(0, 0, i)}
		if i < len(labels) {
			if d, ok := parseDayLabel(labels[i], today); ok {
				state.date = d
			}
		}

		if state.dayIndex == 0 && !hours.SameDay(state.date, today) {
			continue
		}

		subBlocks(block.First()).Each(func(_ int, row *goquery.Selection) {
			if fc, ok := state.parseRow(row); ok {
				result = append(result, fc)
			}
		})
	}

	return result, nil
}

// subBlocks returns the 3-hour sub-blocks of a day block. They are marked
// with the hour3 class on most pages, otherwise any child with enough cells
// qualifies.
func subBlocks(block *goquery.Selection) *goquery.Selection {
	if marked := block.Find(".hour3"); marked.Length() > 0 {
		return marked
	}
	return block.Children().FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Children().Length() >= cellCount
	})
}

func (s *hourlyState) parseRow(row *goquery.Selection) (HourlyForecast, bool) {
	cells := row.Children().Map(func(_ int, c *goquery.Selection) string {
		return normalizeSpace(c.Text())
	})
	if len(cells) < cellCount {
		return HourlyForecast{}, false
	}

	m := timeLabelRe.FindStringSubmatch(cells[cellTime])
	if m == nil {
		// Header column or garbage
		return HourlyForecast{}, false
	}
	if m[1] != "" {
		day, _ := strconv.Atoi(m[1])
		s.advanceTo(day)
	}
	hh, _ := strconv.Atoi(m[2])
	mm, _ := strconv.Atoi(m[3])

	direction := cells[cellWindDirection]
	return HourlyForecast{
		Time:          time.Date(s.date.Year(), s.date.Month(), s.date.Day(), hh, mm, 0, 0, hours.Service()),
		Precipitation: unitValue(cells[cellPrecipitation], "mm"),
		Temperature:   unitValue(cells[cellTemperature], "℃", "°C"),
		WindSpeed:     unitValue(cells[cellWindSpeed], "m/s"),
		WindBearing:   WindBearing(direction),
		WindDirection: direction,
		Pressure:      unitValue(cells[cellPressure], "hPa"),
		Humidity:      unitValue(cells[cellHumidity], "%"),
	}, true
}

// unitValue returns the first number of the cell, but only when the cell
// carries one of the unit markers. Without a marker the value is absent.
func unitValue(cell string, units ...string) maybe.Maybe[float64] {
	for _, unit := range units {
		if !strings.Contains(cell, unit) {
			continue
		}
		n := numberRe.FindString(cell)
		if n == "" {
			return maybe.None[float64]()
		}
		v, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return maybe.None[float64]()
		}
		return maybe.Some(v)
	}
	return maybe.None[float64]()
}

// parseDayLabel parses a "MM/DD" day tab label. The year is picked so that
// the date is the one closest to today.
func parseDayLabel(label string, today time.Time) (time.Time, bool) {
	m := dayLabelRe.FindStringSubmatch(label)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	d := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, hours.Service())
	switch {
	case d.Sub(today) > 180*24*time.Hour:
		d = d.AddDate(-1, 0, 0)
	case today.Sub(d) > 180*24*time.Hour:
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var windBearings = map[string]float64{
	"北":  0,
	"东北": 45,
	"东":  90,
	"东南": 135,
	"南":  180,
	"西南": 225,
	"西":  270,
	"西北": 315,
}

// WindBearing converts a wind direction such as "东北风" into degrees.
// Calm or variable winds have no bearing.
func WindBearing(direction string) maybe.Maybe[float64] {
	d := strings.TrimSuffix(strings.TrimSpace(direction), "风")
	if b, ok := windBearings[d]; ok {
		return maybe.Some(b)
	}
	return maybe.None[float64]()
}
