package proxy

import (
	"strings"

	"github.com/alapierre/go-ksef-proxy/ksef"
	"github.com/alapierre/go-ksef-proxy/ksef/util"
)

// Environment variables consumed by the mode switch.
const (
	EnvUseMock = "KSEF_USE_MOCK"
	EnvKsefEnv = "KSEF_ENV"
	EnvBaseURL = "KSEF_PROXY_BASE_URL"
	EnvPort    = "KSEF_PROXY_PORT"
)

const DefaultPort = "8160"

// Mode is the per-request backend decision: mock simulator or the real
// KSeF gateway, plus the externally visible base URL of each.
type Mode struct {
	UseMock     bool
	Environment ksef.Environment
	MockBaseURL string
	RealBaseURL string
}

// ResolveMode reads the environment variables on every call, not once at
// startup, so variable changes in a long-running process take effect.
// Mock is the default; real mode requires an explicit override.
func ResolveMode() Mode {
	env := ksef.ResolveEnvironment(util.GetEnvOrDefault(EnvKsefEnv, "test"), ksef.Test)
	advertised := util.GetEnvOrDefault(EnvBaseURL, "http://localhost:"+Port())

	return Mode{
		UseMock:     util.GetEnvBool(EnvUseMock, true),
		Environment: env,
		MockBaseURL: strings.TrimSuffix(advertised, "/") + "/mock/api",
		RealBaseURL: env.BaseURL(),
	}
}

// Port returns the configured listen port.
func Port() string {
	return util.GetEnvOrDefault(EnvPort, DefaultPort)
}
