//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Sink is the outbound capability of one connected participant.
// Deliver must never block on a slow or stalled transport: it either
// queues the line or reports a delivery failure immediately.
type Sink interface {
	Deliver(line string) error
}

type IRegistry interface {
	Add(session *domain.Session) error
	Remove(session *domain.Session)
	Snapshot() []*domain.Session
	FindByName(name string) (*domain.Session, bool)
	Count() int
}

// LineTransport is the line-framing boundary around one client stream.
// ReadLine blocks until the next newline-terminated line or a stream error.
type LineTransport interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	RemoteAddr() string
	Close() error
}
