package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/nmc"
)

type hourlyView struct {
	Station nmc.StationInfo
	Hours   []nmc.HourlyForecast
}

func NewHourlyHandler(logger *slog.Logger, coord *coordinator.Coordinator, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var view hourlyView
		if s := coord.Current(); s != nil {
			hf, err := s.Hourly(time.Now())
			if err != nil {
				logger.Error("parsing hourly forecast", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			view = hourlyView{Station: s.Station, Hours: hf}
		}

		w.Header().Set("Content-Type", "text/html")
		if err := tm.ExecuteToWriter("hourly.html", view, &w); err != nil {
			logger.Error("handling hourly request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
