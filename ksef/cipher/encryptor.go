package cipher

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/alapierre/go-ksef-proxy/ksef"
	"github.com/alapierre/go-ksef-proxy/ksef/model"
)

const publicKeyEndpoint = "/security/public-key-certificates"

// EncryptionService fetches the KSeF public key for an environment and
// encrypts session tokens with it. Parsed keys are cached per base URL and
// refreshed shortly before their certificate expires.
type EncryptionService struct {
	rest *resty.Client

	mu   sync.RWMutex
	keys map[string]*cachedKey

	// refresh the key this long before the certificate expires
	refreshSkew time.Duration
}

type cachedKey struct {
	pub     *rsa.PublicKey
	validTo time.Time
}

type Option func(*EncryptionService)

func WithRefreshSkew(d time.Duration) Option {
	return func(s *EncryptionService) { s.refreshSkew = d }
}

func NewEncryptionService(opts ...Option) *EncryptionService {
	s := &EncryptionService{
		rest:        resty.New().SetTimeout(30 * time.Second),
		keys:        make(map[string]*cachedKey),
		refreshSkew: 2 * time.Minute,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EncryptSessionToken builds the `timestamp|token` string from the challenge
// timestamp and the caller supplied KSeF auth token, encrypts it with the
// upstream public key and returns the base64 of the ciphertext.
func (s *EncryptionService) EncryptSessionToken(baseURL, challengeTimestamp, authToken string) (string, error) {

	ts, err := time.Parse(model.TimestampLayout, challengeTimestamp)
	if err != nil {
		// upstream sometimes answers with nanosecond precision
		ts, err = time.Parse(time.RFC3339Nano, challengeTimestamp)
	}
	if err != nil {
		return "", &ksef.CryptoError{Op: "parse challenge timestamp", Err: err}
	}

	pub, err := s.publicKey(baseURL)
	if err != nil {
		return "", &ksef.CryptoError{Op: "fetch public key", Err: err}
	}

	message := fmt.Sprintf("%d|%s", ts.UnixMilli(), authToken)
	encrypted, err := RsaEncrypt([]byte(message), pub)
	if err != nil {
		return "", &ksef.CryptoError{Op: "rsa encrypt", Err: err}
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

func (s *EncryptionService) publicKey(baseURL string) (*rsa.PublicKey, error) {

	// fast path: a still valid cached key
	s.mu.RLock()
	entry := s.keys[baseURL]
	s.mu.RUnlock()

	if entry != nil && time.Until(entry.validTo) > s.refreshSkew {
		return entry.pub, nil
	}

	return s.fetchAndSelect(baseURL)
}

func (s *EncryptionService) fetchAndSelect(baseURL string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// somebody may have refreshed in the meantime
	if entry := s.keys[baseURL]; entry != nil && time.Until(entry.validTo) > s.refreshSkew {
		return entry.pub, nil
	}

	log.WithField("component", "ksef.cipher").Debugf("fetching public key certificates from %s", baseURL)

	var certs []model.PublicKeyCertificate
	resp, err := s.rest.R().
		SetResult(&certs).
		Get(baseURL + publicKeyEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "get public key certificates")
	}
	if resp.IsError() {
		return nil, fmt.Errorf("public key endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}

	now := time.Now()
	var chosen *model.PublicKeyCertificate
	var chosenFrom time.Time

	for i := range certs {
		c := certs[i]
		from, err1 := time.Parse(time.RFC3339, c.ValidFrom)
		to, err2 := time.Parse(time.RFC3339, c.ValidTo)
		if err1 != nil || err2 != nil {
			continue
		}
		if now.Before(from) || now.After(to) {
			continue
		}
		usageOK := false
		for _, u := range c.Usage {
			if u == model.UsageKsefTokenEncryption {
				usageOK = true
				break
			}
		}
		if !usageOK {
			continue
		}
		if chosen == nil || from.After(chosenFrom) {
			chosen = &certs[i]
			chosenFrom = from
		}
	}
	if chosen == nil {
		return nil, errors.New("no valid RSA certificate with Usage=KsefTokenEncryption")
	}

	pub, err := ParseRSAPubFromB64Cert(chosen.Certificate)
	if err != nil {
		return nil, err
	}

	validTo, _ := time.Parse(time.RFC3339, chosen.ValidTo)
	s.keys[baseURL] = &cachedKey{pub: pub, validTo: validTo}
	return pub, nil
}
