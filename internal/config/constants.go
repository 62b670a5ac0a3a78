package config

// Application constants
const (
	AppName   = "Dilatometry Analyst"
	EnvPrefix = "DILATOMETRY"

	// Config file names searched when no --config is given
	ConfigFileName = "dilatometry.yaml"

	// Processing defaults
	DefaultRefThickness       = 1.0
	DefaultStrategy           = "spline"
	DefaultDisplacementColumn = "Analog IN 1/V"
	DefaultPolynomialDegree   = 3
	DefaultMaxIterations      = 100
	DefaultTolerance          = 1e-3
	DefaultMinContributors    = 1

	// Batch defaults
	DefaultFilePattern = "*.txt"

	// Export defaults
	DefaultOutputDir    = "results"
	DefaultExportFormat = "xlsx"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/dilatometry.log"

	// Telemetry defaults
	DefaultServiceName = "dilatometry"
)
