package main

import (
	"fmt"
	"io"
	"log/slog"
)

// slogAdapter exposes an slog.Logger through the client's Logger interface.
type slogAdapter struct {
	logger *slog.Logger
}

func newLogger(w io.Writer) slogAdapter {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slogAdapter{logger: slog.New(handler)}
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.logger.Error(fmt.Sprintf(format, args...))
}
