package cipher

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// RsaEncrypt encrypts message with RSA PKCS#1 v1.5, the padding scheme the
// KSeF token init endpoint requires.
func RsaEncrypt(message []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, publicKey, message)
	if err != nil {
		return nil, fmt.Errorf("cannot encrypt given message with public key: %w", err)
	}
	return encrypted, nil
}

// ParseRSAPublicKeyPEM parses a PKIX public key from a PEM block.
func ParseRSAPublicKeyPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in public key data")
	}
	parsedKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cannot parse public key: %w", err)
	}
	publicKey, ok := parsedKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA (type: %T)", parsedKey)
	}
	return publicKey, nil
}

// ParseRSAPubFromB64Cert extracts the RSA public key from a base64 encoded
// DER certificate, as served by the upstream certificate listing.
func ParseRSAPubFromB64Cert(certB64 string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(certB64)
	if err != nil {
		return nil, fmt.Errorf("decode cert: %w", err)
	}
	xc, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse x509: %w", err)
	}
	rsaPub, ok := xc.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("cert does not contain an RSA key (type: %T)", xc.PublicKey)
	}
	return rsaPub, nil
}
