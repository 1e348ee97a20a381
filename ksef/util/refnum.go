package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reference number categories used on the wire.
const (
	CategoryChallenge = "CR"
	CategorySession   = "SE"
	CategoryElement   = "EV"
)

// ReferenceNumber builds a KSeF style reference number, for example
// 20221105-SE-841F12C904-BCAD0DC824-40. Hex segments are always uppercase.
func ReferenceNumber(category string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		now.Format("20060102"), category, hexUpper(5), hexUpper(5), hexUpper(1))
}

// KsefReferenceNumber builds an invoice KSeF number derived from the subject
// NIP, for example 3896717236-20221105-CC6837-2E0114-2C.
func KsefReferenceNumber(nip string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		nip, now.Format("20060102"), hexUpper(3), hexUpper(3), hexUpper(1))
}

// SessionTokenValue generates an opaque high entropy session token,
// 64 lowercase hex characters like the real service issues.
func SessionTokenValue() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand does not fail on supported platforms
	}
	return hex.EncodeToString(b)
}

// CredentialTokenValue generates an authorisation token in the UUID form
// used by KSeF credential management.
func CredentialTokenValue() string {
	return fmt.Sprintf("%s-%s", uuid.NewString(), hexUpper(6))
}

// ServiceCode generates the opaque service code embedded in exception
// envelopes.
func ServiceCode() string {
	return hexUpper(10)
}

// RandomHexUpper returns n random bytes as uppercase hex.
func RandomHexUpper(n int) string {
	return hexUpper(n)
}

func hexUpper(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return strings.ToUpper(hex.EncodeToString(b))
}
