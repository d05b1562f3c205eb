package nmc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var unknownConditions = promauto.NewCounter(prometheus.CounterOpts{
	Name: "nmcweather_unknown_conditions_total",
	Help: "Weather descriptions that no condition rule recognised",
})
