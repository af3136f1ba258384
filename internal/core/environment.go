package core

import "strings"

// Environment identifies where the agent is running. It selects log output
// format and verbosity at startup.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment is production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// IsDevelopment reports whether the environment is development. Unrecognised
// environments count as development since ParseEnvironment maps them there.
func (e Environment) IsDevelopment() bool {
	return e == Development
}

// ParseEnvironment maps a raw APP_ENV value to a known Environment.
// Matching is case-insensitive and common short forms are accepted.
// Anything unrecognised falls back to Development.
func ParseEnvironment(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
