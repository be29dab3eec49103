package log

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

type defaultLogger struct {
	zerolog.Logger
}

// NewLogger returns a logger that writes human-readable key-value output
// to w. Keyvals passed to the logging methods must come in pairs.
func NewLogger(w io.Writer) Logger {
	return defaultLogger{
		Logger: zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger(),
	}
}

// NewJSONLogger returns a logger that writes one JSON object per line to w.
func NewJSONLogger(w io.Writer) Logger {
	return defaultLogger{
		Logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

func (l defaultLogger) Debug(msg string, keyvals ...interface{}) {
	l.Logger.Debug().Fields(keyvals).Msg(msg)
}

func (l defaultLogger) Info(msg string, keyvals ...interface{}) {
	l.Logger.Info().Fields(keyvals).Msg(msg)
}

func (l defaultLogger) Error(msg string, keyvals ...interface{}) {
	l.Logger.Error().Fields(keyvals).Msg(msg)
}

func (l defaultLogger) With(keyvals ...interface{}) Logger {
	return defaultLogger{Logger: l.Logger.With().Fields(keyvals).Logger()}
}
