package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
	"chat-relay/sink"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Ensure *SessionWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*SessionWorker)(nil)

var welcomeBanner = []string{
	"Welcome to the chat relay!",
	"Commands:",
	"  /users            - List online users",
	"  /dm <user> <msg>  - Direct message",
	"  /quit             - Disconnect",
	"Enter your username:",
}

// SessionWorker drives one connection from handshake to disconnect:
// greet, read the name, register, pump the read-dispatch loop, tear down.
// Whatever ends the loop, teardown runs exactly once and never escalates.
type SessionWorker struct {
	transport  contract.LineTransport
	registry   contract.IRegistry
	router     *runtime.Router
	log        *slog.Logger
	bufferSize int
}

func NewSessionWorker(
	log *slog.Logger,
	transport contract.LineTransport,
	registry contract.IRegistry,
	router *runtime.Router,
	bufferSize int) *SessionWorker {
	return &SessionWorker{
		transport:  transport,
		registry:   registry,
		router:     router,
		log:        log,
		bufferSize: bufferSize,
	}
}

func (w *SessionWorker) Run(ctx context.Context) error {
	outbound := sink.NewLineSink(w.bufferSize)
	defer outbound.Close()

	// On shutdown the read loop is blocked inside ReadLine; closing the
	// transport is the only way to unwind it.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = w.transport.Close()
		case <-watchDone:
		}
	}()

	// The pump owns all writes to this client. It stops with the sink.
	go func() {
		_ = outbound.Pump(ctx, w.transport)
	}()

	session, ok := w.handshake(outbound)
	if !ok {
		_ = w.transport.Close()
		return nil
	}
	defer w.teardown(session)

	w.router.Broadcast(fmt.Sprintf("%s has joined the chat!", session.DisplayName))
	_ = outbound.Deliver(fmt.Sprintf("You joined as: %s", session.DisplayName))

	for {
		line, err := w.transport.ReadLine()
		if err != nil {
			// Stream closed or transport failure: the disconnect path
			// handles both, other sessions are unaffected.
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		w.log.Info(fmt.Sprintf("[%s]: %s", session.DisplayName, line))

		if w.router.Dispatch(session, line) == runtime.ActionQuit {
			return nil
		}
	}
}

// handshake greets the client and fixes its display name. A blank or absent
// answer is replaced by a generated placeholder so a silent client cannot
// stall the session. The session is live in the registry when ok is true.
func (w *SessionWorker) handshake(outbound *sink.LineSink) (*domain.Session, bool) {
	for _, line := range welcomeBanner {
		_ = outbound.Deliver(line)
	}

	raw, err := w.transport.ReadLine()
	if err != nil {
		raw = ""
	}
	name := domain.NormalizeDisplayName(raw)
	if name == "" {
		name = domain.PlaceholderName()
	}

	session := domain.NewSession(name, outbound)
	if err := w.registry.Add(session); err != nil {
		w.log.Error("Registry rejected session",
			"name", name, "id", session.ID, "error", err)
		return nil, false
	}
	w.log.Info("Client connected", "name", name, "remote", w.transport.RemoteAddr())
	return session, true
}

// teardown unconditionally removes the session, announces the departure to
// the remaining participants and closes the transport. Closure errors are
// swallowed, cleanup is best effort.
func (w *SessionWorker) teardown(session *domain.Session) {
	w.registry.Remove(session)
	w.router.Broadcast(fmt.Sprintf("%s has left the chat.", session.DisplayName))
	_ = w.transport.Close()
	w.log.Info("Client disconnected",
		"name", session.DisplayName, "active", w.registry.Count())
}
