package ksef

import (
	"fmt"
	"strings"
)

// Environment selects one of the official KSeF deployments.
type Environment int

const (
	Test Environment = iota
	Demo
	Prod
)

func (e Environment) BaseURL() string {
	switch e {
	case Prod:
		return "https://ksef.mf.gov.pl/api"
	case Test:
		return "https://ksef-test.mf.gov.pl/api"
	case Demo:
		return "https://ksef-demo.mf.gov.pl/api"
	}
	panic("Invalid environment")
}

func (e Environment) Name() string {
	switch e {
	case Prod:
		return "prod"
	case Test:
		return "test"
	case Demo:
		return "demo"
	}
	panic("Invalid environment")
}

func (e *Environment) UnmarshalText(text []byte) error {
	val := strings.ToLower(strings.TrimSpace(string(text)))

	switch val {
	case "prod", "production":
		*e = Prod
	case "demo":
		*e = Demo
	case "test":
		*e = Test
	default:
		return fmt.Errorf("invalid KSeF environment: %q (allowed: prod, demo, test)", val)
	}
	return nil
}

// ResolveEnvironment maps a requested environment name onto one of the
// official deployments. Unknown or empty names fall back to the given
// default.
func ResolveEnvironment(name string, fallback Environment) Environment {
	var e Environment
	if err := e.UnmarshalText([]byte(name)); err != nil {
		return fallback
	}
	return e
}

// ResolveBaseURL resolves the upstream base URL for a requested environment
// name. Empty fallbackURL means the test deployment.
func ResolveBaseURL(name, fallbackURL string) string {
	if fallbackURL == "" {
		fallbackURL = Test.BaseURL()
	}
	var e Environment
	if err := e.UnmarshalText([]byte(name)); err != nil {
		return fallbackURL
	}
	return e.BaseURL()
}
