package www

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/angas/nmcweather-go/config"
	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/database"
	"github.com/angas/nmcweather-go/nmc"
	"github.com/angas/nmcweather-go/task"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	logger  *slog.Logger
	config  config.AppConfigApi
	station string
	coord   *coordinator.Coordinator
	hub     *Hub
	tm      *TemplateManager
	mux     *http.ServeMux
	updates chan struct{}
}

//go:embed static
var embeddedStaticDir embed.FS

func NewServer(
	db *database.Database,
	tasks *task.Tasks,
	coord *coordinator.Coordinator,
	client *nmc.Client,
	cnfg *config.AppConfig,
	version string,
) (*Server, error) {
	logger := slog.Default().With("module", "www")
	tm, err := NewTemplateManager(logger, cnfg.Api.WwwDir)
	if err != nil {
		return nil, fmt.Errorf("template manager initialization error: %w", err)
	}

	s := &Server{
		logger:  logger,
		config:  cnfg.Api,
		station: cnfg.Station.Name,
		coord:   coord,
		hub:     NewHub(logger),
		tm:      tm,
		mux:     http.NewServeMux(),
		updates: make(chan struct{}, 1),
	}

	// Rendering happens in Run, the listener must not block the refresh.
	coord.OnUpdate(func(u coordinator.Update) {
		select {
		case s.updates <- struct{}{}:
		default:
		}
	})

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("/", staticFilesHandler(cnfg.Api.WwwDir))

	s.mux.Handle("/weather", logReqMW(NewWeatherHandler(
		logger.With(slog.String("handler", "weather")),
		coord,
		tm,
		cnfg.Station.Name,
		tasks.WeatherTask)))

	s.mux.Handle("/hourly", logReqMW(NewHourlyHandler(
		logger.With(slog.String("handler", "hourly")),
		coord,
		tm)))

	s.mux.Handle("/api/snapshot", logReqMW(NewSnapshotApiHandler(
		logger.With(slog.String("handler", "api_snapshot")),
		coord)))

	s.mux.Handle("/api/hourly", logReqMW(NewHourlyApiHandler(
		logger.With(slog.String("handler", "api_hourly")),
		coord)))

	s.mux.Handle("GET /image/{kind}", logReqMW(NewImageHandler(
		logger.With(slog.String("handler", "image")),
		coord,
		client)))

	s.mux.Handle("/stations", logReqMW(NewStationsHandler(
		logger.With(slog.String("handler", "stations")),
		client)))

	s.mux.Handle("/status", logReqMW(NewStatusHandler(
		logger.With(slog.String("handler", "status")),
		coord,
		tm,
		StatusInfo{Version: version, StartedAt: time.Now(), StationName: cnfg.Station.Name})))

	s.mux.Handle("/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		db,
		tm)))

	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		select {
		case s.hub.Register <- client:
			go client.WritePump()
		case <-r.Context().Done():
			client.conn.Close()
		}
	})

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Run(ctx context.Context) {
	go s.hub.Run(ctx)

	s.logger.Info("starting server...", "address", s.config.Address, "port", s.config.Port)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	for {
		select {
		case err := <-srvErrors:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("server error", slog.Any("error", err))
			}
			return

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			if err != nil {
				s.logger.Error("server shutdown failed", slog.Any("error", err))
			}
			return

		case <-s.updates:
			buf, err := s.tm.Execute("weather.html", newWeatherView(s.coord.Current(), s.station, time.Now()))
			if err != nil {
				s.logger.Error("template execution failed", slog.Any("error", err))
				continue
			}
			select {
			case s.hub.Broadcast <- buf.Bytes():
			case <-ctx.Done():
			}
		}
	}
}

func staticFilesHandler(extDir *string) http.Handler {
	if extDir != nil && *extDir != "" {
		staticDir := path.Join(*extDir, "static")
		if _, err := os.Stat(staticDir); err == nil {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		log.Panic(err)
	}
	return http.FileServer(http.FS(fsys))
}
