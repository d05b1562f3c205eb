package www

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/hours"
	"github.com/angas/nmcweather-go/nmc"
)

type imageView struct {
	Kind      nmc.ImageKind
	Name      string
	Src       string
	UpdatedAt time.Time
}

type weatherView struct {
	StationName string
	Snapshot    *nmc.Snapshot
	Daily       []nmc.DailyForecast
	Images      []imageView
	Attribution string
}

// newWeatherView prefers the configured station name over the one published
// by nmc.
func newWeatherView(s *nmc.Snapshot, stationName string, now time.Time) weatherView {
	v := weatherView{StationName: stationName, Snapshot: s, Attribution: nmc.Attribution}
	if s == nil {
		return v
	}
	if v.StationName == "" {
		v.StationName = s.Station.DisplayName()
	}

	today := hours.Today(now)
	for _, d := range s.Daily {
		if !d.Date.Before(today) {
			v.Daily = append(v.Daily, d)
		}
	}

	for _, img := range s.Images {
		name := string(img.Kind)
		if feed, ok := nmc.FeedByKind(img.Kind); ok {
			name = feed.Name
		}
		v.Images = append(v.Images, imageView{
			Kind: img.Kind,
			Name: name,
			// The upstream url in the query busts browser caches when the image changes.
			Src:       "/image/" + string(img.Kind) + "?u=" + url.QueryEscape(img.URL),
			UpdatedAt: img.UpdatedAt,
		})
	}
	return v
}

func NewWeatherHandler(logger *slog.Logger, coord *coordinator.Coordinator, tm *TemplateManager, stationName string, task func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "text/html")
			if err := tm.ExecuteToWriter("weather.html", newWeatherView(coord.Current(), stationName, time.Now()), &w); err != nil {
				logger.Error("handling weather get request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

		case http.MethodPost:
			go task()
			w.WriteHeader(http.StatusAccepted)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
