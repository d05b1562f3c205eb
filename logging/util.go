package logging

import (
	"log/slog"
	"strings"
)

// LevelFromString accepts the slog level names in any case, also with
// offsets such as "WARN+2". Anything else is INFO.
func LevelFromString(str *string) slog.Level {
	if str == nil {
		return slog.LevelInfo
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(*str))); err != nil {
		return slog.LevelInfo
	}
	return l
}
