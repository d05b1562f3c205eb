package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/nmc"
)

type StatusInfo struct {
	Version     string
	StartedAt   time.Time
	StationName string
}

type statusView struct {
	StatusInfo
	Station nmc.StationInfo
	Status  coordinator.Status
	Healthy bool
}

func NewStatusHandler(logger *slog.Logger, coord *coordinator.Coordinator, tm *TemplateManager, info StatusInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := statusView{StatusInfo: info, Status: coord.Status()}
		view.Healthy = view.Status.Healthy()
		if s := coord.Current(); s != nil {
			view.Station = s.Station
			if view.StationName == "" {
				view.StationName = s.Station.DisplayName()
			}
		}

		w.Header().Set("Content-Type", "text/html")
		if err := tm.ExecuteToWriter("status.html", view, &w); err != nil {
			logger.Error("handling status request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
