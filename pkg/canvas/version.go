// Package canvas holds build-level constants shared by the canvas binaries.
package canvas

// Version is the canvas release version.
const Version = "0.1.0"
