// Package common holds enumerations shared by configuration and command line
// processing.
package common

//go:generate go run github.com/abice/go-enum@v0.9.2 --marshal --names

// Format of produced coverage report.
// ENUM(lcov, json)
type ReportFormat int

// Ext returns customary file extension for the report format.
func (f ReportFormat) Ext() string {
	switch f {
	case ReportFormatLcov:
		return ".lcov"
	case ReportFormatJson:
		return ".json"
	default:
		// this should never happen
		panic("unsupported report format requested")
	}
}
