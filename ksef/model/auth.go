package model

type IdentifierType string

const (
	ONIP   IdentifierType = "onip"
	NIP    IdentifierType = "nip"
	PESEL  IdentifierType = "pesel"
	OPESEL IdentifierType = "opesel"
)

// Person reports whether the identifier denotes a natural person, which
// selects the person variant of the subject identifier in session XML.
func (t IdentifierType) Person() bool {
	return t == PESEL || t == OPESEL
}

type ContextIdentifier struct {
	Type       IdentifierType `json:"type"`
	Identifier string         `json:"identifier"`
}

type AuthorisationChallengeRequest struct {
	ContextIdentifier ContextIdentifier `json:"contextIdentifier"`
}

type AuthorisationChallengeResponse struct {
	Timestamp string `json:"timestamp"`
	Challenge string `json:"challenge"`
}

type SessionToken struct {
	Token string `json:"token"`
}

// InitSessionResponse is returned by both InitSigned and InitToken.
type InitSessionResponse struct {
	Timestamp       string       `json:"timestamp"`
	ReferenceNumber string       `json:"referenceNumber"`
	SessionToken    SessionToken `json:"sessionToken"`
}

// GenerateTokenResponse carries a freshly generated credential
// authorisation token.
type GenerateTokenResponse struct {
	Timestamp              string `json:"timestamp"`
	ReferenceNumber        string `json:"referenceNumber"`
	ElementReferenceNumber string `json:"elementReferenceNumber"`
	ProcessingCode         int    `json:"processingCode"`
	ProcessingDescription  string `json:"processingDescription"`
	AuthorisationToken     string `json:"authorisationToken"`
}
