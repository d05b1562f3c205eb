package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/nmcweather-go/database"
	"github.com/angas/nmcweather-go/logging"
)

// NewLogHandler renders the log page, or with ?page=N a page of entries at
// or above ?level= (default DEBUG).
func NewLogHandler(logger *slog.Logger, db *database.Database, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html")

		if page := intOrDefault(r.URL, "page", 0); page > 0 {
			pageSize := intOrDefault(r.URL, "pageSize", 25)
			level := slog.LevelDebug
			if l := r.URL.Query().Get("level"); l != "" {
				level = logging.LevelFromString(&l)
			}

			e, err := db.GetLogEntries(r.Context(), database.LogQuery{MinLevel: level, Page: page, PageSize: pageSize})
			if err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			data := struct {
				Page     int
				PageSize int
				Level    string
				Entries  []database.LogEntryRow
			}{
				Page:     page + 1,
				PageSize: pageSize,
				Level:    level.String(),
				Entries:  e,
			}

			if err := tm.ExecuteToWriter("log_entries.html", data, &w); err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		} else {
			if err := tm.ExecuteToWriter("log.html", nil, &w); err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}
