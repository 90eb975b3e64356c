package broadcast

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/pipeline"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Default event names.
const (
	EventMessage  = "pipeline_message"
	EventStepDone = "pipeline_step"
	EventRunDone  = "pipeline_result"
)

// Options configures Dial.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout bounds the initial handshake. Zero means 15 seconds.
	ConnectTimeout time.Duration
}

// emitter is the part of a socket.io connection the broadcaster needs.
type emitter interface {
	Emit(ev string, args ...any) error
	Close()
}

type socketConn struct {
	io *socket.Socket
}

func (c socketConn) Emit(ev string, args ...any) error { return c.io.Emit(ev, args...) }

func (c socketConn) Close() { c.io.Disconnect() }

// Broadcaster is a pipeline observer that emits every message it sees.
type Broadcaster struct {
	conn   emitter
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	failed bool
}

var (
	_ step.Observer = (*Broadcaster)(nil)
	_ pipeline.Hook = (*Broadcaster)(nil)
)

// Dial connects to the socket.io endpoint at opts.URL and waits for the
// connect event.
func Dial(ctx context.Context, opts Options) (*Broadcaster, error) {
	logger := ctxlog.FromContext(ctx).With("component", "broadcast", "url", opts.URL)

	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("progress URL %q must be absolute", opts.URL)
	}

	sopts := socket.DefaultOptions()
	if parsed.Path != "" {
		sopts.SetPath(parsed.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), sopts)
	io := manager.Socket(opts.Namespace, sopts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Progress broadcaster connected", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.Connect()

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
	return newBroadcaster(socketConn{io: io}, logger), nil
}

func newBroadcaster(conn emitter, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{conn: conn, logger: logger}
}

// StepSummary is the payload of EventStepDone.
type StepSummary struct {
	Phase     string  `json:"phase"`
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	OK        bool    `json:"ok"`
	Code      int     `json:"code,omitempty"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// RunSummary is the payload of EventRunDone.
type RunSummary struct {
	Phase       string  `json:"phase"`
	State       string  `json:"state"`
	Completed   int     `json:"completed"`
	FailedIndex int     `json:"failed_index"`
	FailedLabel string  `json:"failed_label,omitempty"`
	Code        int     `json:"code,omitempty"`
	Error       string  `json:"error,omitempty"`
	DurationMS  float64 `json:"duration_ms"`
}

func (b *Broadcaster) OnMessage(m step.Message) {
	b.emit(EventMessage, m)
}

func (b *Broadcaster) OnStepDone(phase step.Phase, s step.Step, res step.Result, elapsed time.Duration) {
	b.emit(EventStepDone, StepSummary{
		Phase:     phase.String(),
		Type:      s.Type(),
		Label:     s.Label(),
		OK:        res.Ok(),
		Code:      res.Status.Code,
		ElapsedMS: float64(elapsed.Microseconds()) / 1000,
	})
}

func (b *Broadcaster) OnRunDone(r pipeline.Result) {
	sum := RunSummary{
		Phase:       r.Phase.String(),
		State:       r.State.String(),
		Completed:   r.Completed,
		FailedIndex: r.FailedIndex,
		FailedLabel: r.FailedLabel,
		Code:        r.Code(),
		DurationMS:  float64(r.Duration.Microseconds()) / 1000,
	}
	if r.Err != nil {
		sum.Error = r.Err.Error()
	}
	b.emit(EventRunDone, sum)
}

// emit sends one event. The first failure is logged; later ones are dropped
// silently so a lost dashboard never slows the pipeline down.
func (b *Broadcaster) emit(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if err := b.conn.Emit(event, payload); err != nil && !b.failed {
		b.failed = true
		b.logger.Warn("Progress broadcast failed.", "event", event, "error", err)
	}
}

// Close disconnects. Events emitted afterwards are dropped.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.conn.Close()
}
