package workers

import (
	"chat-relay/domain"
	"chat-relay/runtime"
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport scripts the client side of a connection: lines pushed into
// incoming are read one by one, writes are recorded, Close unblocks reads.
type fakeTransport struct {
	incoming chan string
	done     chan struct{}
	once     sync.Once

	mu      sync.Mutex
	written []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		incoming: make(chan string, 16),
		done:     make(chan struct{}),
	}
}

func (t *fakeTransport) ReadLine() (string, error) {
	select {
	case <-t.done:
		return "", io.EOF
	case line := <-t.incoming:
		return line, nil
	}
}

func (t *fakeTransport) WriteLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = append(t.written, line)
	return nil
}

func (t *fakeTransport) RemoteAddr() string { return "fake:0" }

func (t *fakeTransport) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}

func (t *fakeTransport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.written...)
}

type observerSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *observerSink) Deliver(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	return nil
}

func (s *observerSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *observerSink) count(substr string) int {
	n := 0
	for _, l := range s.Lines() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

type sessionFixture struct {
	registry *runtime.Registry
	router   *runtime.Router
	log      *slog.Logger
}

func newSessionFixture() sessionFixture {
	registry := runtime.NewRegistry()
	log := slog.New(slog.DiscardHandler)
	return sessionFixture{
		registry: registry,
		router:   runtime.NewRouter(log, registry, nil),
		log:      log,
	}
}

func (f sessionFixture) startWorker(transport *fakeTransport) chan struct{} {
	worker := NewSessionWorker(f.log, transport, f.registry, f.router, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(context.Background())
	}()
	return done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session worker did not finish")
	}
}

func TestSessionWorker_Handshake_Normalizes_The_Name(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture()
	transport := newFakeTransport()
	transport.incoming <- "  John   Smith  "

	done := f.startWorker(transport)

	// Then the session is registered under the collapsed name
	req.Eventually(func() bool {
		_, ok := f.registry.FindByName("John_Smith")
		return ok
	}, time.Second, 5*time.Millisecond)

	// And the private confirmation went to the client
	req.Eventually(func() bool {
		for _, l := range transport.Written() {
			if l == "You joined as: John_Smith" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	_ = transport.Close()
	waitDone(t, done)
	req.Zero(f.registry.Count())
}

func TestSessionWorker_Blank_Name_Gets_A_Placeholder(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture()
	transport := newFakeTransport()
	transport.incoming <- "   "

	done := f.startWorker(transport)

	placeholder := regexp.MustCompile(`^User\d{4}$`)
	req.Eventually(func() bool {
		for _, s := range f.registry.Snapshot() {
			if placeholder.MatchString(s.DisplayName) {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	transport.incoming <- "/quit"
	waitDone(t, done)
}

func TestSessionWorker_Join_Is_Broadcast_Including_The_New_Session(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture()
	observer := &observerSink{}
	req.NoError(f.registry.Add(domain.NewSession("bob", observer)))

	transport := newFakeTransport()
	transport.incoming <- "alice"
	done := f.startWorker(transport)

	// Then the resident session hears the announcement
	req.Eventually(func() bool {
		return observer.count("alice has joined the chat!") == 1
	}, time.Second, 5*time.Millisecond)

	// And the newcomer hears its own join announcement too
	req.Eventually(func() bool {
		for _, l := range transport.Written() {
			if strings.Contains(l, "alice has joined the chat!") {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	transport.incoming <- "/quit"
	waitDone(t, done)
}

func TestSessionWorker_Quit_Removes_Session_And_Announces_Departure_Once(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture()
	observer := &observerSink{}
	req.NoError(f.registry.Add(domain.NewSession("bob", observer)))

	transport := newFakeTransport()
	transport.incoming <- "alice"
	transport.incoming <- "/quit"
	done := f.startWorker(transport)
	waitDone(t, done)

	// Then alice is gone from the registry
	_, ok := f.registry.FindByName("alice")
	req.False(ok)
	req.Equal(1, f.registry.Count())

	// And exactly one departure notice reached the remaining session
	req.Equal(1, observer.count("alice has left the chat."))
}

func TestSessionWorker_Stream_Closure_Triggers_The_Same_Teardown(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture()
	observer := &observerSink{}
	req.NoError(f.registry.Add(domain.NewSession("bob", observer)))

	transport := newFakeTransport()
	transport.incoming <- "alice"
	done := f.startWorker(transport)

	req.Eventually(func() bool {
		_, ok := f.registry.FindByName("alice")
		return ok
	}, time.Second, 5*time.Millisecond)

	// When the transport dies instead of a polite /quit
	_ = transport.Close()
	waitDone(t, done)

	req.Equal(1, f.registry.Count())
	req.Equal(1, observer.count("alice has left the chat."))
}

func TestSessionWorker_Empty_Lines_Are_Silently_Skipped(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture()
	observer := &observerSink{}
	req.NoError(f.registry.Add(domain.NewSession("bob", observer)))

	transport := newFakeTransport()
	transport.incoming <- "alice"
	transport.incoming <- ""
	transport.incoming <- "   "
	transport.incoming <- "hello"
	transport.incoming <- "/quit"
	done := f.startWorker(transport)
	waitDone(t, done)

	// Then only the real message was broadcast
	req.Equal(1, observer.count("alice: hello"))
	broadcasts := 0
	for _, l := range observer.Lines() {
		if strings.Contains(l, "alice:") {
			broadcasts++
		}
	}
	req.Equal(1, broadcasts)
}

func TestSessionWorker_Shutdown_Forces_The_Read_Loop_To_Unwind(t *testing.T) {
	req := require.New(t)
	f := newSessionFixture()
	transport := newFakeTransport()
	transport.incoming <- "alice"

	worker := NewSessionWorker(f.log, transport, f.registry, f.router, 64)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	req.Eventually(func() bool {
		_, ok := f.registry.FindByName("alice")
		return ok
	}, time.Second, 5*time.Millisecond)

	// When the server shuts down
	cancel()
	waitDone(t, done)

	req.Zero(f.registry.Count())
}
