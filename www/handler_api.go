package www

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/nmcweather-go/coordinator"
)

func writeJSON(logger *slog.Logger, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("writing json response", slog.Any("error", err))
	}
}

func NewSnapshotApiHandler(logger *slog.Logger, coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		s := coord.Current()
		if s == nil {
			http.Error(w, "no weather data yet", http.StatusServiceUnavailable)
			return
		}

		// The raw station page is only of use to /api/hourly.
		out := *s
		out.HourlyMarkup = ""
		writeJSON(logger, w, out)
	}
}

func NewHourlyApiHandler(logger *slog.Logger, coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		s := coord.Current()
		if s == nil {
			http.Error(w, "no weather data yet", http.StatusServiceUnavailable)
			return
		}

		hf, err := s.Hourly(time.Now())
		if err != nil {
			logger.Error("parsing hourly forecast", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, hf)
	}
}
