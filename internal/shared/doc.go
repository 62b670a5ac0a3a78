// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides synthetic instrument exports (Ramp,
// MeasurementText, WriteMeasurement) and a buffered slog handler for
// asserting log output in tests.
package shared
