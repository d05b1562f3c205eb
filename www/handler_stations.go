package www

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/angas/nmcweather-go/nmc"
)

type StationDirectory interface {
	Provinces(ctx context.Context) ([]nmc.Province, error)
	Stations(ctx context.Context, provinceCode string) ([]nmc.StationInfo, error)
}

// NewStationsHandler lists provinces, or the stations of ?province=XX.
func NewStationsHandler(logger *slog.Logger, dir StationDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var (
			res any
			err error
		)
		if province := r.URL.Query().Get("province"); province != "" {
			res, err = dir.Stations(r.Context(), province)
		} else {
			res, err = dir.Provinces(r.Context())
		}
		if err != nil {
			logger.Error("handling stations request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(logger, w, res)
	}
}
