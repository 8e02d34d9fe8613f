package solver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/rep"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/metrics"
)

// pollInterval bounds how long Serve blocks in Recv before checking ctx.
const pollInterval = 250 * time.Millisecond

// Listen opens a REP socket bound to addr.
func Listen(addr string) (mangos.Socket, error) {
	sock, err := rep.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return sock, nil
}

// Server answers solve requests on a REP socket with an Optimizer.
type Server struct {
	Optimizer Optimizer
	Logger    logging.Logger
	Metrics   *metrics.Registry

	serving atomic.Bool
}

// Serving reports whether Serve is currently running.
func (s *Server) Serving() bool { return s.serving.Load() }

// Serve handles requests until ctx is done or sock is closed. Malformed
// requests and optimizer errors are answered with an error response; the loop
// keeps running.
func (s *Server) Serve(ctx context.Context, sock mangos.Socket) error {
	logger := logging.OrNop(s.Logger).With(logging.Component("solver.serve"))
	if err := sock.SetOption(mangos.OptionRecvDeadline, pollInterval); err != nil {
		return fmt.Errorf("set recv deadline: %w", err)
	}
	s.serving.Store(true)
	defer s.serving.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := sock.Recv()
		if err != nil {
			switch {
			case errors.Is(err, mangos.ErrRecvTimeout):
				continue
			case errors.Is(err, mangos.ErrClosed):
				return nil
			}
			return fmt.Errorf("recv: %w", err)
		}

		start := time.Now()
		resp := s.handle(ctx, frame)
		out, err := encodeFrame(resp)
		if err != nil {
			out, _ = encodeFrame(solveResponse{Error: err.Error()})
		}

		status := "none"
		switch {
		case resp.Error != "":
			status = "error"
			logger.Warn("solve request failed", logging.String("error", resp.Error))
		case resp.Solved:
			status = "solved"
		}
		s.Metrics.RecordRemoteRequest("server", status, time.Since(start), len(out), len(frame))

		if err := sock.Send(out); err != nil {
			if errors.Is(err, mangos.ErrClosed) {
				return nil
			}
			logger.Error("failed to send response", logging.Error(err))
		}
	}
}

func (s *Server) handle(ctx context.Context, frame []byte) solveResponse {
	var req solveRequest
	if err := decodeFrame(frame, &req); err != nil {
		return solveResponse{Error: err.Error()}
	}
	if req.Instance == nil {
		return solveResponse{Error: "request has no instance"}
	}
	inst, err := instance.FromWire(req.Instance)
	if err != nil {
		return solveResponse{Error: err.Error()}
	}

	sol, err := s.Optimizer.Solve(ctx, inst)
	if err != nil {
		return solveResponse{Error: err.Error()}
	}
	if sol == nil {
		return solveResponse{}
	}
	return solveResponse{Solved: true, Solution: sol}
}

// Serve runs a Server for optimizer on sock.
func Serve(ctx context.Context, sock mangos.Socket, optimizer Optimizer, logger logging.Logger) error {
	s := &Server{Optimizer: optimizer, Logger: logger}
	return s.Serve(ctx, sock)
}
