package nmc

import (
	"bytes"
	"strings"

	"github.com/angas/nmcweather-go/convert"
	"github.com/angas/nmcweather-go/types/maybe"
)

// reading is a number that www.nmc.cn sends either as JSON number or as
// string, with 9999 meaning absent. It never fails to decode.
type reading struct {
	value float64
	valid bool
}

func (r *reading) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if s == "null" {
		*r = reading{}
		return nil
	}
	v, ok := convert.ParseReading(s)
	*r = reading{value: v, valid: ok}
	return nil
}

func (r reading) maybe() maybe.Maybe[float64] {
	if !r.valid {
		return maybe.None[float64]()
	}
	return maybe.Some(r.value)
}

// text treats the 9999 placeholder as an empty string.
func text(s string) string {
	s = strings.TrimSpace(s)
	if s == "9999" {
		return ""
	}
	return s
}

type weatherResponse struct {
	Msg  string       `json:"msg"`
	Code int          `json:"code"`
	Data *weatherData `json:"data"`
}

type weatherData struct {
	Real        *realData          `json:"real"`
	Predict     *predictData       `json:"predict"`
	Air         *airData           `json:"air"`
	TempChart   []tempChartEntry   `json:"tempchart"`
	PassedChart []passedChartEntry `json:"passedchart"`
}

type stationData struct {
	Code     string `json:"code"`
	Province string `json:"province"`
	City     string `json:"city"`
	URL      string `json:"url"`
}

type realData struct {
	Station     stationData `json:"station"`
	PublishTime string      `json:"publish_time"`
	Weather     struct {
		Temperature reading `json:"temperature"`
		AirPressure reading `json:"airpressure"`
		Humidity    reading `json:"humidity"`
		Rain        reading `json:"rain"`
		Info        string  `json:"info"`
		Img         string  `json:"img"`
		FeelsLike   reading `json:"feelst"`
	} `json:"weather"`
	Wind struct {
		Direct string  `json:"direct"`
		Degree reading `json:"degree"`
		Power  string  `json:"power"`
		Speed  reading `json:"speed"`
	} `json:"wind"`
	Warn struct {
		Alert       string `json:"alert"`
		SignalType  string `json:"signaltype"`
		SignalLevel string `json:"signallevel"`
		URL         string `json:"url"`
	} `json:"warn"`
}

type predictData struct {
	Station     stationData     `json:"station"`
	PublishTime string          `json:"publish_time"`
	Detail      []predictDetail `json:"detail"`
}

type predictDetail struct {
	Date          string     `json:"date"`
	Day           periodData `json:"day"`
	Night         periodData `json:"night"`
	Precipitation reading    `json:"precipitation"`
}

type periodData struct {
	Weather struct {
		Info        string  `json:"info"`
		Img         string  `json:"img"`
		Temperature reading `json:"temperature"`
	} `json:"weather"`
	Wind struct {
		Direct string `json:"direct"`
		Power  string `json:"power"`
	} `json:"wind"`
}

type airData struct {
	ForecastTime string  `json:"forecasttime"`
	AQI          reading `json:"aqi"`
	Text         string  `json:"text"`
}

type tempChartEntry struct {
	Time      string  `json:"time"`
	MaxTemp   reading `json:"max_temp"`
	MinTemp   reading `json:"min_temp"`
	DayText   string  `json:"day_text"`
	NightText string  `json:"night_text"`
}

type passedChartEntry struct {
	Time        string  `json:"time"`
	Pressure    reading `json:"pressure"`
	Temperature reading `json:"temperature"`
	Humidity    reading `json:"humidity"`
	Rain1h      reading `json:"rain1h"`
}
