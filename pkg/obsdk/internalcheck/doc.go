// Package internalcheck holds source-level policy tests for the obsdk
// packages.
//
// # Internal Use Only
//
// The package exports nothing. Its tests load the module's packages and fail
// when code crosses one of the binding's boundaries: cgo outside
// internal/native, console printing from library code, or finalizers that
// capture their own object.
package internalcheck
