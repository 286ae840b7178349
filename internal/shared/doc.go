// Package shared holds helpers used by more than one package of walkcli.
//
// testutil builds raw HealthKit databases the way the conversion tool lays
// them out and captures slog output for assertions. Nothing here is
// imported by production code.
package shared
