package utils

import "strings"

// Environment distinguishes deployment stages where behavior differs
// (HTTP server mode, log verbosity defaults).
type Environment string

const (
	PRODUCTION  Environment = "production"
	DEVELOPMENT Environment = "development"
)

func (e Environment) Get() string {
	return string(e)
}

func (e Environment) IsProduction() bool {
	return e == PRODUCTION
}

// FromEnvironmentStr maps a free-form environment string to a known stage,
// defaulting to DEVELOPMENT for anything unrecognized.
func FromEnvironmentStr(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return PRODUCTION
	default:
		return DEVELOPMENT
	}
}
