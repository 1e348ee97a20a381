// Package qr builds invoice verification links and renders them as QR
// codes, so the frontend can print them on invoice documents.
package qr

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/alapierre/go-ksef-proxy/ksef"
)

var nipPattern = regexp.MustCompile(`^\d{10}$`)

// GenerateVerificationLink builds a link in the format:
// https://{qr-host}/client-app/invoice/{NIP}/{DD-MM-YYYY}/{Base64URL(SHA256(xml)) no padding}
func GenerateVerificationLink(env ksef.Environment, nip string, issueDate time.Time, invoiceXML []byte) (string, error) {
	baseQR, err := QRBaseURL(env.BaseURL())
	if err != nil {
		return "", err
	}

	normalizedNip, err := normalizeAndValidateNip(nip)
	if err != nil {
		return "", err
	}

	date := issueDate.Format("02-01-2006")
	hash := base64.RawURLEncoding.EncodeToString(sha256sum(invoiceXML))

	return fmt.Sprintf("%s/client-app/invoice/%s/%s/%s",
		strings.TrimSuffix(baseQR, "/"), normalizedNip, date, hash), nil
}

// Png renders the given content as a QR code PNG.
func Png(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 300)
}

// QRBaseURL maps a KSeF base URL onto the verification host, dropping the
// API path.
func QRBaseURL(base string) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("base URL is empty")
	}

	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL must include scheme and host, got: %q", base)
	}

	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func normalizeAndValidateNip(nip string) (string, error) {
	n := strings.ReplaceAll(strings.TrimSpace(nip), "-", "")
	if !nipPattern.MatchString(n) {
		return "", fmt.Errorf("invalid NIP: %q", nip)
	}
	return n, nil
}

func sha256sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}
