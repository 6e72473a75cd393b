package config

import "fmt"

// ValidationIssue describes a single configuration problem.
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationResult collects errors and warnings from Validate.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// IsValid returns true when no hard errors were found.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validate checks a configuration for problems. Errors prevent
// startup; warnings are logged and startup continues.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	rcon := cfg.GetRCON()
	if rcon.Host == "" {
		result.Errors = append(result.Errors, ValidationIssue{
			Field:   "rcon.host",
			Message: "rcon host must be set",
		})
	}
	if rcon.Port < 1 || rcon.Port > 65535 {
		result.Errors = append(result.Errors, ValidationIssue{
			Field:   "rcon.port",
			Message: fmt.Sprintf("rcon port %d is out of range", rcon.Port),
		})
	}
	if rcon.Password == "" {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Field:   "rcon.password",
			Message: "rcon password is empty; authentication will fail unless the server runs without one",
		})
	}
	if rcon.ConnectTimeoutSec <= 0 {
		result.Errors = append(result.Errors, ValidationIssue{
			Field:   "rcon.connect_timeout_sec",
			Message: "connect timeout must be positive",
		})
	}
	if rcon.CommandTimeoutSec <= 0 {
		result.Errors = append(result.Errors, ValidationIssue{
			Field:   "rcon.command_timeout_sec",
			Message: "command timeout must be positive",
		})
	}

	if cfg.APIPort < 1 || cfg.APIPort > 65535 {
		result.Errors = append(result.Errors, ValidationIssue{
			Field:   "api_port",
			Message: fmt.Sprintf("api port %d is out of range", cfg.APIPort),
		})
	}

	build := cfg.GetBuild()
	if build.CommandDelayMs < 0 {
		result.Errors = append(result.Errors, ValidationIssue{
			Field:   "build.command_delay_ms",
			Message: "command delay cannot be negative",
		})
	}
	if build.StructurePauseMs < 0 {
		result.Errors = append(result.Errors, ValidationIssue{
			Field:   "build.structure_pause_ms",
			Message: "structure pause cannot be negative",
		})
	}

	if !cfg.Security.AuthDisabled && cfg.Security.APIToken == "" {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Field:   "security.api_token",
			Message: "auth is enabled but no api token is set; all requests will be rejected",
		})
	}

	if cfg.MQTT.Enabled && cfg.MQTT.BrokerURL == "" {
		result.Errors = append(result.Errors, ValidationIssue{
			Field:   "mqtt.broker_url",
			Message: "mqtt is enabled but no broker url is set",
		})
	}

	return result
}
