// Package obsdk is a Go binding for the Orbbec depth-camera SDK.
//
// Every SDK object is owned by exactly one wrapper through a NativeHandle,
// which runs the SDK deleter once when its last reference goes away. Native
// failures surface as *NativeError values that match one of the category
// sentinels with errors.Is. Callbacks registered with the SDK are routed
// through a per-Library token registry; once a wrapper's Close returns, none
// of its callbacks run again, and resources the SDK hands to a callback that
// has no listener are released on the spot.
//
// Wrappers are safe for concurrent use. Close is idempotent. Objects that are
// never closed are torn down by a finalizer, with failures reported through
// Config.OnFault.
//
// Builds without the cgo and orbbecsdk tags compile against a stub; use
// OpenWithNative with an alternative native implementation in that case.
package obsdk
