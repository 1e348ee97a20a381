package api

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/alapierre/go-ksef-proxy/ksef"
	"github.com/alapierre/go-ksef-proxy/ksef/cipher"
	"github.com/alapierre/go-ksef-proxy/ksef/model"
	"github.com/alapierre/go-ksef-proxy/ksef/tpl"
)

var logger = log.WithField("component", "ksef.api")

type SessionService interface {
	AuthorisationChallenge(identifier string, identifierType model.IdentifierType) (*model.AuthorisationChallengeResponse, error)
	BuildSignableDocument(challenge string, identifierType model.IdentifierType, identifier string) ([]byte, error)
	InitSessionWithSignedDocument(signed []byte, compressed bool) (*model.InitSessionResponse, error)
	InitSessionWithToken(nip, authToken string) (*model.InitSessionResponse, error)
	Status(pageSize, offset int, token string) (*model.SessionStatusResponse, error)
	Terminate(token string) (*model.TerminateSessionResponse, error)
}

type session struct {
	client    Client
	baseURL   string
	encryptor *cipher.EncryptionService
}

// NewSessionService prepares the session gateway against one deployment.
// The encryptor is used only by the token based init flow.
func NewSessionService(client Client, baseURL string, encryptor *cipher.EncryptionService) SessionService {
	return &session{client: client, baseURL: baseURL, encryptor: encryptor}
}

// AuthorisationChallenge calls KSeF for an authorization challenge
func (s *session) AuthorisationChallenge(identifier string, identifierType model.IdentifierType) (*model.AuthorisationChallengeResponse, error) {

	logger.Debug("Authorisation challenge")

	if identifier == "" || identifierType == "" {
		return nil, ksef.Validation("contextIdentifier type and identifier are required")
	}

	res := &model.AuthorisationChallengeResponse{}

	err := s.client.PostJSONNoAuth(
		"/online/Session/AuthorisationChallenge",
		model.AuthorisationChallengeRequest{
			ContextIdentifier: model.ContextIdentifier{
				Type:       identifierType,
				Identifier: identifier,
			}}, res)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// BuildSignableDocument renders the InitSessionSignedRequest document the
// caller signs externally. No state is retained between this call and the
// later init call.
func (s *session) BuildSignableDocument(challenge string, identifierType model.IdentifierType, identifier string) ([]byte, error) {

	if challenge == "" || identifier == "" {
		return nil, ksef.Validation("challenge and identifier are required")
	}

	return tpl.InitSessionRequest(tpl.Signed, challenge, identifierType, identifier, "")
}

// InitSessionWithSignedDocument forwards the caller supplied signed XML
// verbatim to the session init endpoint. When compressed is set the payload
// is gunzipped first.
func (s *session) InitSessionWithSignedDocument(signed []byte, compressed bool) (*model.InitSessionResponse, error) {

	logger.Debug("Init session with signed document")

	if len(signed) == 0 {
		return nil, ksef.Validation("signed document is empty")
	}

	if compressed {
		gz, err := gzip.NewReader(bytes.NewReader(signed))
		if err != nil {
			return nil, ksef.Validation("payload flagged as compressed is not valid gzip: %v", err)
		}
		decompressed, err := io.ReadAll(gz)
		if err != nil {
			return nil, ksef.Validation("cannot decompress payload: %v", err)
		}
		signed = decompressed
	}

	response := &model.InitSessionResponse{}
	err := s.client.PostXMLFromBytes("/online/Session/InitSigned", signed, response)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// InitSessionWithToken opens an interactive session with a KSeF auth token:
// challenge, public key fetch, RSA encryption of `timestamp|token`, token
// XML render, init call. The first failing step aborts the whole flow.
func (s *session) InitSessionWithToken(nip, authToken string) (*model.InitSessionResponse, error) {

	logger.Debug("Init session by token")

	if nip == "" || authToken == "" {
		return nil, ksef.Validation("nip and authToken are required")
	}

	challenge, err := s.AuthorisationChallenge(nip, model.ONIP)
	if err != nil {
		return nil, err
	}

	encryptedToken, err := s.encryptor.EncryptSessionToken(s.baseURL, challenge.Timestamp, authToken)
	if err != nil {
		return nil, err
	}

	request, err := tpl.InitSessionRequest(tpl.Token, challenge.Challenge, model.ONIP, nip, encryptedToken)
	if err != nil {
		return nil, err
	}

	response := &model.InitSessionResponse{}
	err = s.client.PostXMLFromBytes("/online/Session/InitToken", request, response)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// Status gets current session status
func (s *session) Status(pageSize, offset int, token string) (*model.SessionStatusResponse, error) {

	logger.Debug("Current session status")

	if token == "" {
		return nil, ksef.Validation("session token is required")
	}

	response := &model.SessionStatusResponse{}
	endpoint := fmt.Sprintf("/online/Session/Status?PageSize=%d&PageOffset=%d", pageSize, offset)
	err := s.client.GetJSON(endpoint, token, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Terminate closes the current interactive session
func (s *session) Terminate(token string) (*model.TerminateSessionResponse, error) {

	logger.Debug("Terminate current session")

	if token == "" {
		return nil, ksef.Validation("session token is required")
	}

	response := &model.TerminateSessionResponse{}
	err := s.client.GetJSON("/online/Session/Terminate", token, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
