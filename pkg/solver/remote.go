package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/req"

	// Register all transports (tcp, ipc, inproc, ...)
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/metrics"
)

// ErrRemote wraps an error reported by the serving optimizer.
var ErrRemote = errors.New("remote optimizer failed")

// DefaultTimeout bounds one remote call when the context has no earlier deadline.
const DefaultTimeout = 30 * time.Second

// Remote is an Optimizer that forwards instances over a REQ socket. REQ is
// lockstep, so calls are serialized.
type Remote struct {
	sock    mangos.Socket
	timeout time.Duration
	logger  logging.Logger
	metrics *metrics.Registry

	mu sync.Mutex
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) { r.timeout = d }
}

// WithRemoteLogger sets the logger.
func WithRemoteLogger(logger logging.Logger) RemoteOption {
	return func(r *Remote) { r.logger = logging.OrNop(logger) }
}

// WithRemoteMetrics records request counts and frame sizes.
func WithRemoteMetrics(m *metrics.Registry) RemoteOption {
	return func(r *Remote) { r.metrics = m }
}

// Dial opens a REQ socket to addr, e.g. "tcp://127.0.0.1:7400".
func Dial(addr string, opts ...RemoteOption) (*Remote, error) {
	sock, err := req.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create REQ socket: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial optimizer at %s: %w", addr, err)
	}
	return NewRemote(sock, opts...), nil
}

// NewRemote wraps an existing REQ socket.
func NewRemote(sock mangos.Socket, opts ...RemoteOption) *Remote {
	r := &Remote{
		sock:    sock,
		timeout: DefaultTimeout,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logging.Component("solver.remote"))
	return r
}

// Solve sends inst to the serving optimizer and waits for its answer until the
// earlier of the context deadline and the configured timeout.
func (r *Remote) Solve(ctx context.Context, inst *instance.Instance) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := encodeFrame(solveRequest{Instance: inst.ToDocument()})
	if err != nil {
		return nil, err
	}

	timeout := r.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	reply, err := r.roundTrip(frame, timeout)
	if err != nil {
		r.metrics.RecordRemoteRequest("client", "error", time.Since(start), len(frame), 0)
		r.logger.Warn("remote solve failed", logging.InstanceID(inst.ID), logging.Error(err))
		if errors.Is(err, mangos.ErrRecvTimeout) || errors.Is(err, mangos.ErrSendTimeout) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("remote solve %s: %w: %w", inst.ID, context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("remote solve %s: %w", inst.ID, err)
	}

	var resp solveResponse
	if err := decodeFrame(reply, &resp); err != nil {
		r.metrics.RecordRemoteRequest("client", "error", time.Since(start), len(frame), len(reply))
		return nil, fmt.Errorf("remote solve %s: %w", inst.ID, err)
	}
	if resp.Error != "" {
		r.metrics.RecordRemoteRequest("client", "error", time.Since(start), len(frame), len(reply))
		return nil, fmt.Errorf("remote solve %s: %w: %s", inst.ID, ErrRemote, resp.Error)
	}

	status := "solved"
	if !resp.Solved {
		status = "none"
	}
	r.metrics.RecordRemoteRequest("client", status, time.Since(start), len(frame), len(reply))
	r.logger.Debug("remote solve",
		logging.InstanceID(inst.ID),
		logging.Bool("solved", resp.Solved),
		logging.Latency(time.Since(start)))

	if !resp.Solved {
		return nil, nil
	}
	return resp.Solution, nil
}

func (r *Remote) roundTrip(frame []byte, timeout time.Duration) ([]byte, error) {
	if err := r.sock.SetOption(mangos.OptionSendDeadline, timeout); err != nil {
		return nil, err
	}
	if err := r.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return nil, err
	}
	if err := r.sock.Send(frame); err != nil {
		return nil, err
	}
	return r.sock.Recv()
}

// Close closes the socket.
func (r *Remote) Close() error {
	return r.sock.Close()
}
