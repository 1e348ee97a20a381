package util

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refPattern = regexp.MustCompile(`^\d{8}-(CR|SE|EV)-[0-9A-F]{10}-[0-9A-F]{10}-[0-9A-F]{2}$`)

func TestReferenceNumberFormat(t *testing.T) {

	now := time.Date(2022, 11, 5, 12, 0, 0, 0, time.UTC)

	for _, category := range []string{CategoryChallenge, CategorySession, CategoryElement} {
		ref := ReferenceNumber(category, now)
		assert.Regexp(t, refPattern, ref)
		assert.Contains(t, ref, "20221105-"+category+"-")
	}
}

func TestReferenceNumberIsFresh(t *testing.T) {

	now := time.Now()
	assert.NotEqual(t, ReferenceNumber(CategorySession, now), ReferenceNumber(CategorySession, now))
}

func TestKsefReferenceNumberFormat(t *testing.T) {

	now := time.Date(2022, 11, 5, 12, 0, 0, 0, time.UTC)
	ref := KsefReferenceNumber("3896717236", now)

	assert.Regexp(t, `^3896717236-20221105-[0-9A-F]{6}-[0-9A-F]{6}-[0-9A-F]{2}$`, ref)
}

func TestSessionTokenValue(t *testing.T) {

	token := SessionTokenValue()
	assert.Regexp(t, `^[0-9a-f]{64}$`, token)
	assert.NotEqual(t, token, SessionTokenValue())
}

func TestCredentialTokenValue(t *testing.T) {
	assert.NotEqual(t, CredentialTokenValue(), CredentialTokenValue())
}
