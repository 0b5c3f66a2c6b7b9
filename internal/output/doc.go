// Package output formats review views for display or machine consumption.
//
// Two formats are supported:
//   - text — human-readable item cards for the terminal (default)
//   - json — structured JSON for scripting
//
// Use [GetWriter] to obtain a [Writer] for a given format string.
package output
