package cipher

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func testCertB64(t *testing.T, key *rsa.PrivateKey, notBefore, notAfter time.Time) string {
	t.Helper()
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    notBefore,
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(der)
}

func TestRsaEncryptRoundTrip(t *testing.T) {

	key := testKey(t)
	message := []byte("1666547632560|aaa-bbb-ccc")

	encrypted, err := RsaEncrypt(message, &key.PublicKey)
	require.NoError(t, err)

	decrypted, err := rsa.DecryptPKCS1v15(rand.Reader, key, encrypted)
	require.NoError(t, err)
	assert.Equal(t, message, decrypted)
}

func TestParseRSAPublicKeyPEM(t *testing.T) {

	key := testKey(t)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	pub, err := ParseRSAPublicKeyPEM(pemBytes)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, pub.N)

	_, err = ParseRSAPublicKeyPEM([]byte("not pem at all"))
	assert.Error(t, err)
}

func TestParseRSAPubFromB64Cert(t *testing.T) {

	key := testKey(t)
	certB64 := testCertB64(t, key, time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour))

	pub, err := ParseRSAPubFromB64Cert(certB64)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, pub.N)

	_, err = ParseRSAPubFromB64Cert("!!!")
	assert.Error(t, err)
}
