// Package magetasks implements the Magefile targets for building, testing
// and linting structra.
//
// Targets are grouped into namespaces in magefile.go; this package holds
// their implementation so it can be tested without the mage build tag.
package magetasks
