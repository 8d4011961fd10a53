// Package domain contains core concepts of the chat system.
// This file defines the Session entity and its invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"github.com/google/uuid"
)

// Deliverer is the outbound capability attached to a Session.
// It mirrors contract.Sink without importing it, keeping the domain
// package free of runtime concerns.
type Deliverer interface {
	Deliver(line string) error
}

// Session represents one connected, named participant.
// ID and DisplayName are immutable after creation; a reconnecting
// client always gets a fresh Session.
type Session struct {
	ID          uuid.UUID
	DisplayName string
	Outbound    Deliverer
}

func NewSession(displayName string, outbound Deliverer) *Session {
	return &Session{
		ID:          uuid.New(),
		DisplayName: displayName,
		Outbound:    outbound,
	}
}
