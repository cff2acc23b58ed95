package host

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dshills/bridgelet/internal/logging"
)

// shutdownGrace is how long a signal-initiated shutdown may run before
// the process is forcibly terminated.
const shutdownGrace = 5 * time.Second

// SignalHandler turns the first SIGINT or SIGTERM into one graceful
// shutdown attempt with a hard exit deadline. Signals after the first
// are ignored; the forced exit is unconditional once armed.
type SignalHandler struct {
	log      *logging.Logger
	shutdown func()
	exit     func(code int)
	grace    time.Duration
	handled  atomic.Bool
	signals  chan os.Signal
}

// NewSignalHandler wires shutdown to run on the first terminating
// signal. exit defaults to os.Exit and grace to five seconds; both are
// settable for tests.
func NewSignalHandler(log *logging.Logger, shutdown func()) *SignalHandler {
	if log == nil {
		log = logging.Null
	}
	return &SignalHandler{
		log:      log,
		shutdown: shutdown,
		exit:     os.Exit,
		grace:    shutdownGrace,
	}
}

// Listen subscribes to SIGINT and SIGTERM and dispatches in a goroutine.
func (h *SignalHandler) Listen() {
	h.signals = make(chan os.Signal, 1)
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for sig := range h.signals {
			h.Handle(sig)
		}
	}()
}

// Stop unsubscribes from signal delivery.
func (h *SignalHandler) Stop() {
	if h.signals != nil {
		signal.Stop(h.signals)
	}
}

// Handle processes one delivered signal. Only the first signal acts:
// it logs, runs the shutdown in the calling goroutine, and arms a
// forced exit with code 128+signum that fires after the grace period
// whether or not the shutdown returned.
func (h *SignalHandler) Handle(sig os.Signal) {
	if h.handled.Swap(true) {
		return
	}

	code := 128
	if s, ok := sig.(syscall.Signal); ok {
		code += int(s)
	}

	h.log.Info("received %s, shutting down", sig)

	go func() {
		time.Sleep(h.grace)
		h.log.Warn("shutdown deadline exceeded, forcing exit")
		h.exit(code)
	}()

	h.shutdown()
	h.exit(code)
}
