package ksef

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEnvironment(t *testing.T) {

	assert.Equal(t, Test, ResolveEnvironment("test", Prod))
	assert.Equal(t, Demo, ResolveEnvironment("DEMO", Test))
	assert.Equal(t, Prod, ResolveEnvironment("prod", Test))
	assert.Equal(t, Prod, ResolveEnvironment("production", Test))

	// unknown or empty names fall back
	assert.Equal(t, Test, ResolveEnvironment("", Test))
	assert.Equal(t, Demo, ResolveEnvironment("staging", Demo))
}

func TestResolveBaseURL(t *testing.T) {

	assert.Equal(t, "https://ksef-demo.mf.gov.pl/api", ResolveBaseURL("demo", ""))
	assert.Equal(t, "https://ksef.mf.gov.pl/api", ResolveBaseURL("prod", ""))

	// fallback defaults to the test deployment
	assert.Equal(t, "https://ksef-test.mf.gov.pl/api", ResolveBaseURL("", ""))
	assert.Equal(t, "http://localhost:9999", ResolveBaseURL("nope", "http://localhost:9999"))
}

func TestEnvironmentUnmarshalText(t *testing.T) {

	var e Environment
	assert.NoError(t, e.UnmarshalText([]byte(" Prod ")))
	assert.Equal(t, Prod, e)

	assert.Error(t, e.UnmarshalText([]byte("invalid")))
}
