package logger

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// New is built before the config, which logs while loading, so it reads
// LOG_LEVEL from .env and the environment on its own.
func New() zerolog.Logger {
	_ = godotenv.Load()
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return WithLevel(os.Stdout, level)
}

func WithLevel(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(level)
}
