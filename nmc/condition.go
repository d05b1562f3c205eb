package nmc

import (
	"strings"
)

type Condition string

const (
	Sunny          Condition = "sunny"
	Cloudy         Condition = "cloudy"
	PartlyCloudy   Condition = "partlycloudy"
	Fog            Condition = "fog"
	Rainy          Condition = "rainy"
	Pouring        Condition = "pouring"
	Snowy          Condition = "snowy"
	SnowyRainy     Condition = "snowy-rainy"
	LightningRainy Condition = "lightning-rainy"
	Hail           Condition = "hail"
	Windy          Condition = "windy"
	Exceptional    Condition = "exceptional"
)

var conditionTable = map[string]Condition{
	"晴":    Sunny,
	"多云":   Cloudy,
	"局部多云": PartlyCloudy,
	"阴":    Cloudy,
	"雾":    Fog,
	"中雾":   Fog,
	"大雾":   Fog,
	"薄雾":   Fog,
	"小雨":   Rainy,
	"中雨":   Rainy,
	"大雨":   Pouring,
	"暴雨":   Pouring,
	"小雪":   Snowy,
	"中雪":   Snowy,
	"大雪":   Snowy,
	"暴雪":   Snowy,
	"扬沙":   Fog,
	"沙尘":   Fog,
	"雷阵雨":  LightningRainy,
	"冰雹":   Hail,
	"雨夹雪":  SnowyRainy,
	"大风":   Windy,
	"雨":    Rainy,
	"雪":    Snowy,
	"9999": Exceptional,
}

type conditionRule struct {
	substrings []string
	condition  Condition
}

// Evaluated in order, first match wins.
var conditionRules = []conditionRule{
	{[]string{"中雨"}, Rainy},
	{[]string{"暴雨", "大雨"}, Pouring},
	{[]string{"雨"}, Rainy},
	{[]string{"雪"}, Snowy},
	{[]string{"沙", "尘"}, Fog},
	{[]string{"云"}, Cloudy},
	{[]string{"雾", "霾"}, Fog},
}

func (r conditionRule) matches(s string) bool {
	for _, sub := range r.substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// NormalizeCondition maps an upstream weather description to a condition
// code. The second return value is false when neither the table nor any
// rule recognised the text, the condition is then Exceptional.
func NormalizeCondition(s string) (Condition, bool) {
	s = strings.TrimSpace(s)
	if c, ok := conditionTable[s]; ok {
		return c, true
	}
	for _, r := range conditionRules {
		if r.matches(s) {
			return r.condition, true
		}
	}
	return Exceptional, false
}

// Icon returns a Material Design icon name, as used by Home Assistant.
func (c Condition) Icon() string {
	switch c {
	case Sunny:
		return "mdi:weather-sunny"
	case Cloudy:
		return "mdi:weather-cloudy"
	case PartlyCloudy:
		return "mdi:weather-partly-cloudy"
	case Fog:
		return "mdi:weather-fog"
	case Rainy:
		return "mdi:weather-rainy"
	case Pouring:
		return "mdi:weather-pouring"
	case Snowy:
		return "mdi:weather-snowy"
	case SnowyRainy:
		return "mdi:weather-snowy-rainy"
	case LightningRainy:
		return "mdi:weather-lightning-rainy"
	case Hail:
		return "mdi:weather-hail"
	case Windy:
		return "mdi:weather-windy"
	default:
		return "mdi:alert-circle-outline"
	}
}
