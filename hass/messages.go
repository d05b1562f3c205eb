package hass

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/nmc"
	"github.com/angas/nmcweather-go/types/maybe"
)

type message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

type topics struct {
	discoveryPrefix string
	topicPrefix     string
}

func (t topics) base(code string) string {
	return fmt.Sprintf("%s/%s", t.topicPrefix, code)
}

func (t topics) state(code string) string {
	return t.base(code) + "/state"
}

func (t topics) availability(code string) string {
	return t.base(code) + "/availability"
}

func (t topics) image(code string, kind nmc.ImageKind) string {
	return fmt.Sprintf("%s/image/%s", t.base(code), kind)
}

func (t topics) config(component, code, key string) string {
	return fmt.Sprintf("%s/%s/nmc_%s/%s/config", t.discoveryPrefix, component, code, key)
}

type sensor struct {
	Key         string
	Name        string
	Unit        string
	DeviceClass string
	StateClass  string
	Icon        string
}

var sensors = []sensor{
	{"temperature", "Temperature", "°C", "temperature", "measurement", ""},
	{"humidity", "Humidity", "%", "humidity", "measurement", ""},
	{"pressure", "Pressure", "hPa", "atmospheric_pressure", "measurement", ""},
	{"wind_speed", "Wind speed", "m/s", "wind_speed", "measurement", ""},
	{"wind_bearing", "Wind bearing", "°", "", "", "mdi:compass-outline"},
	{"condition", "Condition", "", "", "", "mdi:weather-partly-cloudy"},
	{"alert", "Alert", "", "", "", "mdi:alert-outline"},
	{"aqi", "Air quality index", "", "aqi", "measurement", ""},
}

type device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

type sensorConfig struct {
	Name                   string `json:"name"`
	UniqueID               string `json:"unique_id"`
	StateTopic             string `json:"state_topic"`
	ValueTemplate          string `json:"value_template"`
	AvailabilityTopic      string `json:"availability_topic"`
	JSONAttributesTopic    string `json:"json_attributes_topic"`
	JSONAttributesTemplate string `json:"json_attributes_template"`
	Unit                   string `json:"unit_of_measurement,omitempty"`
	DeviceClass            string `json:"device_class,omitempty"`
	StateClass             string `json:"state_class,omitempty"`
	Icon                   string `json:"icon,omitempty"`
	Device                 device `json:"device"`
}

type imageConfig struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	URLTopic          string `json:"url_topic"`
	AvailabilityTopic string `json:"availability_topic"`
	Device            device `json:"device"`
}

type dailyState struct {
	Date          string               `json:"datetime"`
	Condition     nmc.Condition        `json:"condition"`
	TempHigh      maybe.Maybe[float64] `json:"temperature"`
	TempLow       maybe.Maybe[float64] `json:"templow"`
	Precipitation maybe.Maybe[float64] `json:"precipitation"`
	WindBearing   maybe.Maybe[float64] `json:"wind_bearing"`
}

type state struct {
	Condition     nmc.Condition        `json:"condition"`
	ConditionText string               `json:"condition_text"`
	Temperature   maybe.Maybe[float64] `json:"temperature"`
	FeelsLike     maybe.Maybe[float64] `json:"feels_like"`
	Humidity      maybe.Maybe[float64] `json:"humidity"`
	Pressure      maybe.Maybe[float64] `json:"pressure"`
	WindSpeed     maybe.Maybe[float64] `json:"wind_speed"`
	WindBearing   maybe.Maybe[float64] `json:"wind_bearing"`
	WindDirection string               `json:"wind_direction"`
	Alert         string               `json:"alert"`
	AQI           maybe.Maybe[int]     `json:"aqi"`
	AQIText       string               `json:"aqi_text"`
	Forecast      []dailyState         `json:"forecast"`
	FetchedAt     time.Time            `json:"fetched_at"`
	PublishedAt   time.Time            `json:"published_at"`
	Attribution   string               `json:"attribution"`
}

// discoveryMessages announces every sensor plus one image entity per kind.
func (t topics) discoveryMessages(s *nmc.Snapshot, name string, kinds []nmc.ImageKind) ([]message, error) {
	code := s.Station.Code
	if name == "" {
		name = s.Station.DisplayName()
	}
	dev := device{
		Identifiers:  []string{"nmc_" + code},
		Name:         name,
		Manufacturer: "www.nmc.cn",
		Model:        code,
	}

	msgs := make([]message, 0, len(sensors)+len(kinds))
	for _, sn := range sensors {
		payload, err := json.Marshal(sensorConfig{
			Name:                   sn.Name,
			UniqueID:               fmt.Sprintf("nmc_%s_%s", code, sn.Key),
			StateTopic:             t.state(code),
			ValueTemplate:          fmt.Sprintf("{{ value_json.%s }}", sn.Key),
			AvailabilityTopic:      t.availability(code),
			JSONAttributesTopic:    t.state(code),
			JSONAttributesTemplate: "{{ {'attribution': value_json.attribution} | tojson }}",
			Unit:                   sn.Unit,
			DeviceClass:            sn.DeviceClass,
			StateClass:             sn.StateClass,
			Icon:                   sn.Icon,
			Device:                 dev,
		})
		if err != nil {
			return nil, fmt.Errorf("marshalling %s sensor config: %w", sn.Key, err)
		}
		msgs = append(msgs, message{Topic: t.config("sensor", code, sn.Key), Payload: payload, Retained: true})
	}

	for _, kind := range kinds {
		feed, ok := nmc.FeedByKind(kind)
		if !ok {
			continue
		}
		payload, err := json.Marshal(imageConfig{
			Name:              feed.Name,
			UniqueID:          fmt.Sprintf("nmc_%s_image_%s", code, kind),
			URLTopic:          t.image(code, kind),
			AvailabilityTopic: t.availability(code),
			Device:            dev,
		})
		if err != nil {
			return nil, fmt.Errorf("marshalling %s image config: %w", kind, err)
		}
		msgs = append(msgs, message{Topic: t.config("image", code, string(kind)), Payload: payload, Retained: true})
	}

	return msgs, nil
}

func (t topics) stateMessage(s *nmc.Snapshot) (message, error) {
	c := s.Current
	st := state{
		Condition:     c.Condition,
		ConditionText: c.ConditionText,
		Temperature:   c.Temperature,
		FeelsLike:     c.FeelsLike,
		Humidity:      c.Humidity,
		Pressure:      c.Pressure,
		WindSpeed:     c.WindSpeed,
		WindBearing:   c.WindBearing,
		WindDirection: c.WindDirection,
		Alert:         c.Alert,
		AQI:           c.AQI,
		AQIText:       c.AQIText,
		Forecast:      make([]dailyState, len(s.Daily)),
		FetchedAt:     s.FetchedAt,
		PublishedAt:   s.PublishedAt,
		Attribution:   nmc.Attribution,
	}
	for i, d := range s.Daily {
		st.Forecast[i] = dailyState{
			Date:          d.Date.Format("2006-01-02"),
			Condition:     d.Condition,
			TempHigh:      d.TempHigh,
			TempLow:       d.TempLow,
			Precipitation: d.Precipitation,
			WindBearing:   d.WindBearing,
		}
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return message{}, fmt.Errorf("marshalling state: %w", err)
	}
	return message{Topic: t.state(s.Station.Code), Payload: payload, Retained: true}, nil
}

// imageMessages returns the url topics of changed images, or of all images
// present in the snapshot when force is set.
func (t topics) imageMessages(u coordinator.Update, kinds []nmc.ImageKind, force bool) []message {
	var msgs []message
	for _, kind := range kinds {
		img, ok := u.Current.Image(kind)
		if !ok {
			continue
		}
		if !force && !u.ImageChanged(kind) {
			continue
		}
		msgs = append(msgs, message{Topic: t.image(u.Current.Station.Code, kind), Payload: []byte(img.URL), Retained: true})
	}
	return msgs
}
