package observe

import (
	"log/slog"

	"github.com/vango-dev/stateart/pkg/stateart"
)

// Logging logs every dispatch at debug level and failed dispatches at warn.
type Logging struct {
	logger *slog.Logger
}

var _ stateart.Observer = (*Logging)(nil)

// NewLogging creates a logging observer. A nil logger uses slog.Default().
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger}
}

// BeginDispatch implements stateart.Observer.
func (l *Logging) BeginDispatch(stateart.DispatchEvent) func(stateart.DispatchEvent) {
	return func(ev stateart.DispatchEvent) {
		attrs := []any{
			"store", ev.Store,
			"action", ev.Action,
			"id", ev.ID,
			"duration", ev.Duration,
		}
		if ev.Phase != "" {
			attrs = append(attrs, "phase", ev.Phase)
		}
		if ev.Err != nil {
			l.logger.Warn("dispatch failed", append(attrs, "error", ev.Err)...)
			return
		}
		l.logger.Debug("dispatch", append(attrs, "subscribers", ev.Subscribers)...)
	}
}

// Rerender implements stateart.Observer.
func (l *Logging) Rerender(store string) {
	l.logger.Debug("rerender requested", "store", store)
}
