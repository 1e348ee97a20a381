package api

import (
	"bytes"
	"compress/gzip"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alapierre/go-ksef-proxy/ksef"
	"github.com/alapierre/go-ksef-proxy/ksef/cipher"
	"github.com/alapierre/go-ksef-proxy/ksef/model"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestAuthorisationChallenge(t *testing.T) {

	var gotBody model.AuthorisationChallengeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/online/Session/AuthorisationChallenge", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		writeJSON(t, w, http.StatusCreated, model.AuthorisationChallengeResponse{
			Timestamp: "2022-10-23T17:53:52.560Z",
			Challenge: "20221023-CR-0123456789-ABCDEF0123-AB",
		})
	}))
	defer srv.Close()

	session := NewSessionService(New(srv.URL), srv.URL, nil)

	challenge, err := session.AuthorisationChallenge("1111111111", model.ONIP)
	require.NoError(t, err)

	assert.Equal(t, "20221023-CR-0123456789-ABCDEF0123-AB", challenge.Challenge)
	assert.Equal(t, model.ONIP, gotBody.ContextIdentifier.Type)
	assert.Equal(t, "1111111111", gotBody.ContextIdentifier.Identifier)
}

func TestAuthorisationChallengeValidation(t *testing.T) {

	session := NewSessionService(New("http://unused"), "http://unused", nil)

	_, err := session.AuthorisationChallenge("", model.ONIP)

	var ve *ksef.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAuthorisationChallengeUpstreamError(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"exception":{"serviceCode":"x"}}`))
	}))
	defer srv.Close()

	session := NewSessionService(New(srv.URL), srv.URL, nil)

	_, err := session.AuthorisationChallenge("1111111111", model.ONIP)

	var ue *ksef.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.StatusCode)
	assert.Contains(t, ue.Body, "serviceCode")
	assert.NotNil(t, ue.Details["exception"])
}

func TestBuildSignableDocument(t *testing.T) {

	session := NewSessionService(New("http://unused"), "http://unused", nil)

	doc, err := session.BuildSignableDocument("20221023-CR-0123456789-ABCDEF0123-AB", model.ONIP, "1111111111")
	require.NoError(t, err)

	assert.Contains(t, string(doc), "InitSessionSignedRequest")
	assert.Contains(t, string(doc), "20221023-CR-0123456789-ABCDEF0123-AB")

	// deterministic render
	again, err := session.BuildSignableDocument("20221023-CR-0123456789-ABCDEF0123-AB", model.ONIP, "1111111111")
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestInitSessionWithSignedDocument(t *testing.T) {

	var gotBody []byte
	var gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/online/Session/InitSigned", r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")

		writeJSON(t, w, http.StatusCreated, model.InitSessionResponse{
			Timestamp:       "2022-10-23T17:53:52.560Z",
			ReferenceNumber: "20221023-SE-0123456789-ABCDEF0123-AB",
			SessionToken:    model.SessionToken{Token: "sess-token"},
		})
	}))
	defer srv.Close()

	session := NewSessionService(New(srv.URL), srv.URL, nil)

	signed := []byte(`<signed>doc</signed>`)
	res, err := session.InitSessionWithSignedDocument(signed, false)
	require.NoError(t, err)

	assert.Equal(t, "sess-token", res.SessionToken.Token)
	assert.Equal(t, signed, gotBody)
	assert.Equal(t, "application/octet-stream; charset=utf-8", gotContentType)
}

func TestInitSessionWithSignedDocumentGzip(t *testing.T) {

	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		writeJSON(t, w, http.StatusCreated, model.InitSessionResponse{})
	}))
	defer srv.Close()

	session := NewSessionService(New(srv.URL), srv.URL, nil)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`<signed>doc</signed>`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	_, err = session.InitSessionWithSignedDocument(buf.Bytes(), true)
	require.NoError(t, err)

	// upstream must receive the decompressed document
	assert.Equal(t, []byte(`<signed>doc</signed>`), gotBody)
}

func TestInitSessionWithSignedDocumentBadGzip(t *testing.T) {

	session := NewSessionService(New("http://unused"), "http://unused", nil)

	_, err := session.InitSessionWithSignedDocument([]byte("plainly not gzip"), true)

	var ve *ksef.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestInitSessionWithToken(t *testing.T) {

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	certTmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &certTmpl, &certTmpl, &key.PublicKey, key)
	require.NoError(t, err)

	challengeTime := time.Date(2022, 10, 23, 17, 53, 52, 560_000_000, time.UTC)
	var initTokenBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc("/online/Session/AuthorisationChallenge", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusCreated, model.AuthorisationChallengeResponse{
			Timestamp: challengeTime.Format(model.TimestampLayout),
			Challenge: "20221023-CR-0123456789-ABCDEF0123-AB",
		})
	})
	mux.HandleFunc("/security/public-key-certificates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []model.PublicKeyCertificate{{
			Certificate: base64.StdEncoding.EncodeToString(der),
			ValidFrom:   time.Now().Add(-time.Hour).Format(time.RFC3339),
			ValidTo:     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
			Usage:       []string{model.UsageKsefTokenEncryption},
		}})
	})
	mux.HandleFunc("/online/Session/InitToken", func(w http.ResponseWriter, r *http.Request) {
		initTokenBody, _ = io.ReadAll(r.Body)
		writeJSON(t, w, http.StatusCreated, model.InitSessionResponse{
			Timestamp:       challengeTime.Format(model.TimestampLayout),
			ReferenceNumber: "20221023-SE-0123456789-ABCDEF0123-AB",
			SessionToken:    model.SessionToken{Token: "sess-token"},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := NewSessionService(New(srv.URL), srv.URL, cipher.NewEncryptionService())

	res, err := session.InitSessionWithToken("1111111111", "my-auth-token")
	require.NoError(t, err)
	assert.Equal(t, "sess-token", res.SessionToken.Token)

	// the posted XML must embed the challenge and the encrypted token
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(initTokenBody))
	assert.Equal(t, "InitSessionTokenRequest", doc.Root().Tag)
	assert.Equal(t, "20221023-CR-0123456789-ABCDEF0123-AB", doc.FindElement("//Context/Challenge").Text())

	tokenB64 := doc.FindElement("//Context/Token").Text()
	ciphertext, err := base64.StdEncoding.DecodeString(tokenB64)
	require.NoError(t, err)

	plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, key, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d|my-auth-token", challengeTime.UnixMilli()), string(plaintext))
}

func TestInitSessionWithTokenAbortsOnChallengeFailure(t *testing.T) {

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	session := NewSessionService(New(srv.URL), srv.URL, cipher.NewEncryptionService())

	_, err := session.InitSessionWithToken("1111111111", "token")

	var ue *ksef.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusServiceUnavailable, ue.StatusCode)
	// the first failing step aborts the flow
	assert.Equal(t, 1, calls)
}

func TestTerminateRequiresToken(t *testing.T) {

	session := NewSessionService(New("http://unused"), "http://unused", nil)

	_, err := session.Terminate("")

	var ve *ksef.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestStatusSendsSessionTokenHeader(t *testing.T) {

	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("SessionToken")
		writeJSON(t, w, http.StatusOK, model.SessionStatusResponse{ReferenceNumber: "ref"})
	}))
	defer srv.Close()

	session := NewSessionService(New(srv.URL), srv.URL, nil)

	res, err := session.Status(10, 0, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", gotToken)
	assert.Equal(t, "ref", res.ReferenceNumber)
}
