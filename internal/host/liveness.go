package host

import (
	"os"
	"time"

	"github.com/dshills/bridgelet/internal/logging"
)

// ExitCodeOrphaned is the distinct exit code for self-termination after
// losing the parent channel, so the parent's reaper (or an init system)
// can tell an orphan exit from a crash.
const ExitCodeOrphaned = 3

// livenessInterval is how often the parent channel is checked.
const livenessInterval = 5 * time.Second

// LivenessMonitor periodically verifies the parent channel is still
// connected. A child whose parent is gone has no way to receive a
// shutdown request, so it exits immediately, bypassing graceful
// teardown.
type LivenessMonitor struct {
	log       *logging.Logger
	connected func() bool
	exit      func(code int)
	interval  time.Duration
	stop      chan struct{}
}

// NewLivenessMonitor builds a monitor over a connection predicate,
// typically the channel's Connected method. exit defaults to os.Exit
// and interval to five seconds; both are settable for tests.
func NewLivenessMonitor(log *logging.Logger, connected func() bool) *LivenessMonitor {
	if log == nil {
		log = logging.Null
	}
	return &LivenessMonitor{
		log:       log,
		connected: connected,
		exit:      os.Exit,
		interval:  livenessInterval,
		stop:      make(chan struct{}),
	}
}

// Start begins ticking in a goroutine.
func (m *LivenessMonitor) Start() {
	go m.run()
}

// Stop ends monitoring. It does not wait for the goroutine.
func (m *LivenessMonitor) Stop() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
}

func (m *LivenessMonitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if !m.connected() {
				m.log.Error("parent channel lost, terminating")
				m.exit(ExitCodeOrphaned)
				return
			}
		}
	}
}
