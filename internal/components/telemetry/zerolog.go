package telemetry

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologAPI implements API using zerolog.
type ZerologAPI struct {
	logger zerolog.Logger
}

type LogConfig struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

// NewZerologAPI creates a ZerologAPI writing to out. An unknown level falls back to info.
func NewZerologAPI(out io.Writer, cfg LogConfig) ZerologAPI {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}
	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
	return ZerologAPI{logger: logger}
}

func (ZerologAPI) formatParams(ev *zerolog.Event, params []any) *zerolog.Event {
	for i, p := range params {
		key := fmt.Sprintf("params.%d", i)
		if err, ok := p.(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, p)
	}
	return ev
}

func (z ZerologAPI) ReportBroken(id string, params ...any) {
	z.formatParams(z.logger.Error().Str("id", id), params).Msg("broken component")
}

func (z ZerologAPI) ReportWarning(id string, params ...any) {
	z.formatParams(z.logger.Warn().Str("id", id), params).Msg("warning")
}

func (z ZerologAPI) ReportDebug(message string, params ...any) {
	z.formatParams(z.logger.Debug(), params).Msg(message)
}

func (z ZerologAPI) ReportCount(id string, count int64) {
	z.logger.Info().Str("id", id).Int64("n", count).Msg("count")
}
