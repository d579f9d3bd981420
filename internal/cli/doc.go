// Package cli turns command-line arguments into an app.Config, owning
// usage text, flag validation, and exit codes.
package cli
