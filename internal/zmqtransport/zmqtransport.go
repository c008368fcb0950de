// Package zmqtransport implements the Solver transport component
// (spec §4.6): a ZMQ REP socket that conducts a strict request/reply
// protocol with the Predicer subprocess, grounded on
// event_loop/optimization_job.rs's optimization_task/send_predicer_batches/
// receive_predicer_results/abort_julia_process and the older arrow_zmq.rs
// prototype that fixed the command-string framing.
package zmqtransport

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pebbe/zmq4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hertta/internal/arrowbatch"
)

// Transport owns one job's ZMQ context and REP socket; no sockets are
// shared between jobs, per spec §5 "Shared state".
type Transport struct {
	ctx    *zmq4.Context
	socket *zmq4.Socket
	port   uint16
}

// Bind opens a REP socket on configuredPort. When configuredPort is 0, an
// ephemeral port is chosen by binding a throwaway TCP listener on
// 127.0.0.1:0, reading the assigned port, and closing it before binding
// the ZMQ socket -- racy in principle, acceptable in single-user
// deployments, per spec §9.
func Bind(configuredPort uint16) (*Transport, error) {
	port := configuredPort
	if port == 0 {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, eris.Wrap(err, "failed to probe an ephemeral port")
		}
		port = uint16(ln.Addr().(*net.TCPAddr).Port)
		if err := ln.Close(); err != nil {
			return nil, eris.Wrap(err, "failed to close ephemeral port probe")
		}
	}

	zctx, err := zmq4.NewContext()
	if err != nil {
		return nil, eris.Wrap(err, "failed to create zmq context")
	}
	sock, err := zctx.NewSocket(zmq4.REP)
	if err != nil {
		zctx.Term()
		return nil, eris.Wrap(err, "failed to create zmq REP socket")
	}
	if err := sock.Bind(fmt.Sprintf("tcp://127.0.0.1:%d", port)); err != nil {
		sock.Close()
		zctx.Term()
		return nil, eris.Wrapf(err, "failed to bind zmq REP socket to port %d", port)
	}
	return &Transport{ctx: zctx, socket: sock, port: port}, nil
}

// Port returns the TCP port the REP socket is bound to, to be passed as the
// solver runner's zmq_port argument.
func (t *Transport) Port() uint16 {
	return t.port
}

// Close releases the socket and context.
func (t *Transport) Close() error {
	err := t.socket.Close()
	t.ctx.Term()
	return err
}

// Run conducts the full Hello/send_batches/Ready-to-receive?/recv_results
// state machine described in spec §4.6, blocking until the solver either
// finishes or reports failure.
func (t *Transport) Run(batches []arrowbatch.Batch) (map[string]arrow.Record, error) {
	hello, err := t.socket.Recv(0)
	if err != nil {
		return nil, eris.Wrap(err, "failed to receive Hello from solver")
	}
	if hello != "Hello" {
		return nil, eris.Errorf("expected Hello from solver, got %q", hello)
	}

	if err := t.sendBatches(batches); err != nil {
		return nil, err
	}

	reply, err := t.socket.Recv(0)
	if err != nil {
		return nil, eris.Wrap(err, "failed to receive post-batches reply from solver")
	}
	switch reply {
	case "Ready to receive?":
		if _, err := t.socket.Send("Ok", 0); err != nil {
			return nil, eris.Wrap(err, "failed to acknowledge Ready to receive?")
		}
		return t.recvResults()
	case "Failed":
		return nil, eris.New("solver reported failure before results were ready")
	default:
		return nil, eris.Errorf("unexpected message from solver: %q", reply)
	}
}

// Abort performs the single defensive recv/reply described in spec §5
// "Cancellation": if the upstream channel closes before data is ready,
// Hertta still receives whatever the solver sent next and replies "Abort"
// so the REQ side does not deadlock.
func (t *Transport) Abort() error {
	if _, err := t.socket.Recv(0); err != nil {
		return eris.Wrap(err, "failed to receive before aborting solver")
	}
	if _, err := t.socket.Send("Abort", 0); err != nil {
		return eris.Wrap(err, "failed to send Abort to solver")
	}
	return nil
}

func (t *Transport) sendBatches(batches []arrowbatch.Batch) error {
	for _, b := range batches {
		if _, err := t.socket.Send(fmt.Sprintf("Receive %s", b.Key), 0); err != nil {
			return eris.Wrapf(err, "failed to send Receive %s", b.Key)
		}
		if err := t.expectOk(); err != nil {
			return err
		}
		data, err := arrowbatch.SerializeStream(b.Record)
		if err != nil {
			return eris.Wrapf(err, "failed to serialize batch %s", b.Key)
		}
		if _, err := t.socket.SendBytes(data, 0); err != nil {
			return eris.Wrapf(err, "failed to send batch bytes for %s", b.Key)
		}
		if err := t.expectOk(); err != nil {
			return err
		}
	}
	if _, err := t.socket.Send("End", 0); err != nil {
		return eris.Wrap(err, "failed to send End")
	}
	return nil
}

func (t *Transport) expectOk() error {
	reply, err := t.socket.Recv(0)
	if err != nil {
		return eris.Wrap(err, "failed to receive Ok from solver")
	}
	if reply != "Ok" {
		return eris.Errorf("expected Ok from solver, got %q", reply)
	}
	return nil
}

func (t *Transport) recvResults() (map[string]arrow.Record, error) {
	table := make(map[string]arrow.Record)
	for {
		req, err := t.socket.Recv(0)
		if err != nil {
			return nil, eris.Wrap(err, "failed to receive request from solver")
		}
		switch {
		case req == "End":
			if _, err := t.socket.Send("Ok", 0); err != nil {
				return nil, eris.Wrap(err, "failed to acknowledge End")
			}
			return table, nil
		case strings.HasPrefix(req, "Receive "):
			key := strings.TrimPrefix(req, "Receive ")
			if _, err := t.socket.Send("Ok", 0); err != nil {
				return nil, eris.Wrapf(err, "failed to acknowledge Receive %s", key)
			}
			data, err := t.socket.RecvBytes(0)
			if err != nil {
				return nil, eris.Wrapf(err, "failed to receive bytes for %s", key)
			}
			if _, err := t.socket.Send("Ok", 0); err != nil {
				return nil, eris.Wrapf(err, "failed to acknowledge bytes for %s", key)
			}
			rec, err := arrowbatch.DeserializeStreamSingle(data)
			if err != nil {
				return nil, eris.Wrapf(err, "failed to decode batch %s", key)
			}
			table[key] = rec
		default:
			return nil, eris.Errorf("unknown request from solver: %q", req)
		}
	}
}

// RunCancellable runs Run in a goroutine so the caller can race it against
// ctx cancellation; on cancellation it performs the Abort handshake and
// returns ctx.Err(), matching spec §5's downstream-channel-closed rule.
func RunCancellable(ctx context.Context, t *Transport, batches []arrowbatch.Batch) (map[string]arrow.Record, error) {
	type result struct {
		table map[string]arrow.Record
		err   error
	}
	done := make(chan result, 1)
	go func() {
		table, err := t.Run(batches)
		done <- result{table, err}
	}()

	select {
	case <-ctx.Done():
		if err := t.Abort(); err != nil {
			zap.L().Warn("failed to abort solver after downstream cancellation", zap.Error(err))
		}
		return nil, eris.Wrap(ctx.Err(), "downstream channel closed before results were ready")
	case r := <-done:
		return r.table, r.err
	}
}
