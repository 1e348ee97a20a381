package mock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSessionLifecycle(t *testing.T) {

	store := NewStore()

	_, ok := store.Session("missing")
	assert.False(t, ok)

	store.PutSession(&Session{Token: "t1", ReferenceNumber: "r1", Status: SessionActive})

	sess, ok := store.Session("t1")
	require.True(t, ok)
	assert.Equal(t, "r1", sess.ReferenceNumber)

	// the returned value is a copy, mutating it does not touch the store
	sess.Status = SessionTerminated
	again, ok := store.Session("t1")
	require.True(t, ok)
	assert.Equal(t, SessionActive, again.Status)

	store.DeleteSession("t1")
	_, ok = store.Session("t1")
	assert.False(t, ok)

	// deleting again is a no-op
	store.DeleteSession("t1")
}

func TestStoreAcceptInvoiceRatchet(t *testing.T) {

	store := NewStore()
	store.PutInvoice(&Invoice{
		ElementReferenceNumber: "e1",
		KsefReferenceNumber:    "k1",
		Status:                 InvoiceProcessing,
		CreatedAt:              time.Now(),
	})

	store.AcceptInvoice("e1")
	inv, ok := store.Invoice("e1")
	require.True(t, ok)
	assert.Equal(t, InvoiceAccepted, inv.Status)

	// accepting twice stays accepted
	store.AcceptInvoice("e1")
	inv, _ = store.Invoice("e1")
	assert.Equal(t, InvoiceAccepted, inv.Status)

	// unknown element is a no-op
	store.AcceptInvoice("missing")
}

func TestStoreInvoiceByKsefReference(t *testing.T) {

	store := NewStore()
	store.PutInvoice(&Invoice{ElementReferenceNumber: "e1", KsefReferenceNumber: "k1"})
	store.PutInvoice(&Invoice{ElementReferenceNumber: "e2", KsefReferenceNumber: "k2"})

	inv, ok := store.InvoiceByKsefReference("k2")
	require.True(t, ok)
	assert.Equal(t, "e2", inv.ElementReferenceNumber)

	_, ok = store.InvoiceByKsefReference("k3")
	assert.False(t, ok)
}

func TestStoreCounts(t *testing.T) {

	store := NewStore()
	store.PutSession(&Session{Token: "t1"})
	store.PutInvoice(&Invoice{ElementReferenceNumber: "e1"})
	store.PutInvoice(&Invoice{ElementReferenceNumber: "e2"})

	sessions, invoices := store.Counts()
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 2, invoices)
}
