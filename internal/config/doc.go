// Package config loads and validates the application configuration.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//	1. Built-in defaults (Default)
//	2. A YAML file (--config, or dilatometry.yaml / configs/dilatometry.yaml)
//	3. Environment variables prefixed with DILATOMETRY_
//	4. Command line flags, applied by the CLI
//
// # Environment Variables
//
// Nested fields join their names with underscores:
//
//	DILATOMETRY_PROCESSING_REF_THICKNESS=42.5
//	DILATOMETRY_PROCESSING_STRATEGY=polynomial
//	DILATOMETRY_BATCH_WORKERS=4
//	DILATOMETRY_LOGGING_LEVEL=debug
//
// # Validation
//
// Field constraints are declared with validate struct tags and checked by
// go-playground/validator. Violations are reported as value errors naming
// the YAML key.
package config
