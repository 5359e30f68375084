// Package printing contains the print job model and the pure parts of the
// pipeline: printer resolution, printer classification, page geometry and
// native status interpretation.
package printing
