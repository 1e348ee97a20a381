// Package mock is an in-memory stand-in for the KSeF interactive API. It
// exposes the same operation surface as the real gateway without any
// network calls, for development without certificates.
package mock

import (
	"sync"
	"time"
)

type SessionStatus string

const (
	SessionActive     SessionStatus = "active"
	SessionTerminated SessionStatus = "terminated"
)

type InvoiceStatus string

const (
	InvoiceProcessing InvoiceStatus = "processing"
	InvoiceAccepted   InvoiceStatus = "accepted"
)

type Session struct {
	Token           string
	ReferenceNumber string
	Identifier      string
	Status          SessionStatus
	CreatedAt       time.Time
}

type Invoice struct {
	ElementReferenceNumber string
	KsefReferenceNumber    string
	SessionToken           string
	InvoiceNumber          string
	Status                 InvoiceStatus
	CreatedAt              time.Time
}

// Store holds all simulator state: token → session and element reference
// number → invoice. It is injected into the Simulator so tests get isolated
// state. Entries live until process restart, there is no eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	invoices map[string]*Invoice
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		invoices: make(map[string]*Invoice),
	}
}

func (s *Store) PutSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
}

func (s *Store) Session(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// DeleteSession removes the session if present. Removing an unknown token
// is not an error, termination is idempotent.
func (s *Store) DeleteSession(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *Store) PutInvoice(inv *Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ElementReferenceNumber] = inv
}

func (s *Store) Invoice(elementReferenceNumber string) (Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[elementReferenceNumber]
	if !ok {
		return Invoice{}, false
	}
	return *inv, true
}

// InvoiceByKsefReference looks an invoice up by its KSeF number. Linear
// scan, the store is small and development only.
func (s *Store) InvoiceByKsefReference(ksefReferenceNumber string) (Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invoices {
		if inv.KsefReferenceNumber == ksefReferenceNumber {
			return *inv, true
		}
	}
	return Invoice{}, false
}

// AcceptInvoice flips the invoice to accepted. The transition is a ratchet,
// it never reverses.
func (s *Store) AcceptInvoice(elementReferenceNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.invoices[elementReferenceNumber]; ok {
		inv.Status = InvoiceAccepted
	}
}

// Counts reports live sessions and invoices for the health surface.
func (s *Store) Counts() (sessions, invoices int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), len(s.invoices)
}
