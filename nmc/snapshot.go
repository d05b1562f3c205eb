package nmc

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/angas/nmcweather-go/convert"
	"github.com/angas/nmcweather-go/hours"
	"github.com/angas/nmcweather-go/types/maybe"
)

const Attribution = "Data provided by www.nmc.cn"

type StationInfo struct {
	Code     string `json:"code"`
	Province string `json:"province"`
	City     string `json:"city"`
	URL      string `json:"url"`
}

// DisplayName is what the station is called when nothing else is configured.
func (s StationInfo) DisplayName() string {
	if s.Province == "" && s.City == "" {
		return s.Code
	}
	if s.Province == s.City {
		return s.City
	}
	return s.Province + s.City
}

type Current struct {
	Condition     Condition            `json:"condition"`
	ConditionText string               `json:"condition_text"`
	Temperature   maybe.Maybe[float64] `json:"temperature"`
	FeelsLike     maybe.Maybe[float64] `json:"feels_like"`
	Humidity      maybe.Maybe[float64] `json:"humidity"`
	Pressure      maybe.Maybe[float64] `json:"pressure"`
	Precipitation maybe.Maybe[float64] `json:"precipitation"`
	WindSpeed     maybe.Maybe[float64] `json:"wind_speed"`
	WindBearing   maybe.Maybe[float64] `json:"wind_bearing"`
	WindDirection string               `json:"wind_direction"`
	WindPower     string               `json:"wind_power"`
	Alert         string               `json:"alert"`
	AQI           maybe.Maybe[int]     `json:"aqi"`
	AQIText       string               `json:"aqi_text"`
}

type DailyForecast struct {
	Date               time.Time            `json:"date"`
	Condition          Condition            `json:"condition"`
	ConditionText      string               `json:"condition_text"`
	NightCondition     Condition            `json:"night_condition"`
	NightConditionText string               `json:"night_condition_text"`
	TempHigh           maybe.Maybe[float64] `json:"temp_high"`
	TempLow            maybe.Maybe[float64] `json:"temp_low"`
	Precipitation      maybe.Maybe[float64] `json:"precipitation"`
	WindBearing        maybe.Maybe[float64] `json:"wind_bearing"`
	WindDirection      string               `json:"wind_direction"`
	WindPower          string               `json:"wind_power"`
}

// Snapshot is the normalized result of one fetch cycle. It is never
// modified after it has been built.
type Snapshot struct {
	Station     StationInfo     `json:"station"`
	FetchedAt   time.Time       `json:"fetched_at"`
	PublishedAt time.Time       `json:"published_at"`
	Current     Current         `json:"current"`
	Daily       []DailyForecast `json:"daily"`
	Images      []Image         `json:"images"`
	// Station forecast page, parsed on demand by Hourly.
	HourlyMarkup string `json:"hourly_markup"`
}

func (s *Snapshot) Hourly(now time.Time) ([]HourlyForecast, error) {
	return ParseHourly(s.HourlyMarkup, now)
}

func (s *Snapshot) Image(kind ImageKind) (Image, bool) {
	for _, img := range s.Images {
		if img.Kind == kind {
			return img, true
		}
	}
	return Image{}, false
}

// snapshotBuilder turns the rest/weather payload into snapshot parts,
// logging whatever it has to degrade.
type snapshotBuilder struct {
	logger *slog.Logger
	now    time.Time
}

// condition expects text already stripped of the 9999 placeholder, a blank
// is reported as exceptional without complaint.
func (b snapshotBuilder) condition(s string) Condition {
	if s == "" {
		return Exceptional
	}
	c, ok := NormalizeCondition(s)
	if !ok {
		b.logger.Warn("unknown weather condition", slog.String("text", s))
		unknownConditions.Inc()
	}
	return c
}

func (b snapshotBuilder) current(data *weatherData) Current {
	rd := data.Real
	info := text(rd.Weather.Info)
	c := Current{
		Condition:     b.condition(info),
		ConditionText: info,
		Temperature:   rd.Weather.Temperature.maybe(),
		FeelsLike:     rd.Weather.FeelsLike.maybe(),
		Humidity:      rd.Weather.Humidity.maybe(),
		Pressure:      b.pressure(data),
		Precipitation: rd.Weather.Rain.maybe(),
		WindSpeed:     rd.Wind.Speed.maybe(),
		WindBearing:   rd.Wind.Degree.maybe(),
		WindDirection: text(rd.Wind.Direct),
		WindPower:     text(rd.Wind.Power),
		Alert:         text(rd.Warn.Alert),
	}
	if !c.WindBearing.IsValid() {
		c.WindBearing = WindBearing(c.WindDirection)
	}
	if data.Air != nil {
		if data.Air.AQI.valid {
			c.AQI = maybe.Some(int(data.Air.AQI.value))
		}
		c.AQIText = text(data.Air.Text)
	}
	return c
}

// pressure falls back on the latest observation in the passed chart when
// the real time reading is missing.
func (b snapshotBuilder) pressure(data *weatherData) maybe.Maybe[float64] {
	if p := data.Real.Weather.AirPressure; p.valid {
		if v, ok := convert.PressureHPa(p.value); ok {
			return maybe.Some(v)
		}
	}

	var latest time.Time
	fallback := maybe.None[float64]()
	for _, e := range data.PassedChart {
		if !e.Pressure.valid {
			continue
		}
		v, ok := convert.PressureHPa(e.Pressure.value)
		if !ok {
			continue
		}
		t, err := hours.ParseMinute(e.Time)
		if err != nil {
			continue
		}
		if !fallback.IsValid() || t.After(latest) {
			latest = t
			fallback = maybe.Some(v)
		}
	}
	if !fallback.IsValid() {
		b.logger.Debug("no air pressure available")
	}
	return fallback
}

func (b snapshotBuilder) daily(data *weatherData) []DailyForecast {
	today := hours.Today(b.now)

	charts := make(map[string]tempChartEntry, len(data.TempChart))
	for _, e := range data.TempChart {
		charts[strings.ReplaceAll(e.Time, "/", "-")] = e
	}

	result := make([]DailyForecast, 0, len(data.Predict.Detail))
	for _, d := range data.Predict.Detail {
		date, err := hours.ParseDate(d.Date)
		if err != nil {
			b.logger.Warn("forecast entry with unparsable date", slog.String("date", d.Date))
			continue
		}
		if date.Before(today) {
			continue
		}

		dayText := text(d.Day.Weather.Info)
		nightText := text(d.Night.Weather.Info)
		mainText := dayText
		if mainText == "" {
			mainText = nightText
		}

		fc := DailyForecast{
			Date:               date,
			Condition:          b.condition(mainText),
			ConditionText:      mainText,
			NightCondition:     b.condition(nightText),
			NightConditionText: nightText,
			Precipitation:      d.Precipitation.maybe(),
			WindDirection:      text(d.Day.Wind.Direct),
			WindPower:          text(d.Day.Wind.Power),
		}
		if fc.WindDirection == "" {
			fc.WindDirection = text(d.Night.Wind.Direct)
			fc.WindPower = text(d.Night.Wind.Power)
		}
		fc.WindBearing = WindBearing(fc.WindDirection)

		fc.TempHigh, fc.TempLow = highLow(d.Day.Weather.Temperature, d.Night.Weather.Temperature)
		if !fc.TempHigh.IsValid() {
			if chart, ok := charts[d.Date]; ok {
				fc.TempHigh = chart.MaxTemp.maybe()
				fc.TempLow = chart.MinTemp.maybe()
			}
		}

		result = append(result, fc)
	}

	return result
}

// highLow returns the max and min of the day and night period readings. A
// single reading is both high and low.
func highLow(day, night reading) (maybe.Maybe[float64], maybe.Maybe[float64]) {
	var values []float64
	for _, r := range []reading{day, night} {
		if r.valid {
			values = append(values, r.value)
		}
	}
	if len(values) == 0 {
		return maybe.None[float64](), maybe.None[float64]()
	}
	return maybe.Some(slices.Max(values)), maybe.Some(slices.Min(values))
}
