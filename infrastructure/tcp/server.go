package tcp

import (
	"chat-relay/contract"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

var _ contract.Worker = (*Server)(nil)

// Server owns the listener and the capacity gate. Each accepted connection
// is handed to a supervised SessionWorker; a connection beyond capacity is
// REJECTED with a single notice and closed, it is never queued. Queueing
// would leave the client hanging at a silent prompt with no feedback.
type Server struct {
	log          *slog.Logger
	listener     net.Listener
	supervisor   contract.ISupervisor
	registry     contract.IRegistry
	router       *runtime.Router
	slots        chan struct{}
	bufferSize   int
	writeTimeout time.Duration
}

// NewServer binds the listener immediately so that Addr is valid before
// Run starts accepting. maxClients sizes the session slot pool.
func NewServer(
	log *slog.Logger,
	address string,
	maxClients, bufferSize int,
	writeTimeout time.Duration,
	supervisor contract.ISupervisor,
	registry contract.IRegistry,
	router *runtime.Router) (*Server, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return &Server{
		log:          log,
		listener:     listener,
		supervisor:   supervisor,
		registry:     registry,
		router:       router,
		slots:        make(chan struct{}, maxClients),
		bufferSize:   bufferSize,
		writeTimeout: writeTimeout,
	}, nil
}

// Addr returns the bound listen address, useful when the port was 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Run accepts connections until the context is canceled. A transient accept
// failure is returned so the supervisor restarts the loop on the still-open
// listener after its usual delay; cancellation closes the listener and ends
// the loop cleanly while in-flight sessions drain under the supervisor.
func (s *Server) Run(ctx context.Context) error {
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.listener.Close()
		case <-watchDone:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || goerrors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		select {
		case s.slots <- struct{}{}:
		default:
			s.reject(conn)
			continue
		}

		transport := NewLineConn(conn, s.writeTimeout)
		worker := workers.NewSessionWorker(s.log, transport, s.registry, s.router, s.bufferSize)
		s.supervisor.Start(ctx, &gatedSession{inner: worker, slots: s.slots})
	}
}

// reject applies the over-capacity policy: one notice, then close.
func (s *Server) reject(conn net.Conn) {
	s.log.Warn("Rejecting connection, server is full", "remote", conn.RemoteAddr())
	_ = NewLineConn(conn, s.writeTimeout).WriteLine("Server is full, try again later.")
	_ = conn.Close()
}

// gatedSession returns its capacity slot when the session ends. The release
// is guarded so a supervisor restart after a panic cannot free the slot twice.
type gatedSession struct {
	inner   contract.Worker
	slots   chan struct{}
	release sync.Once
}

func (g *gatedSession) Run(ctx context.Context) error {
	defer g.release.Do(func() { <-g.slots })
	return g.inner.Run(ctx)
}
