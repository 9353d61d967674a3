// Package native is the foreign-call boundary to the Orbbec SDK C library.
//
// # Design Principles
//
// 1. Isolation: ALL cgo code lives in this package. No other package should
//    import "C". The rest of the module talks to the SDK through the API
//    interface, which is also implemented by an in-memory fake for tests.
//
// 2. Flat Surface: every entry point has the shape
//
//	Op(args..., e *ErrorRef) result
//
//    mirroring the C calls one to one. The error slot is always the last
//    parameter. A non-zero *e after the call means failure and the result
//    must be ignored.
//
// 3. Ownership: a Handle returned by an entry point belongs to the caller and
//    must be passed to the matching Delete* function exactly once. Handles
//    handed to trampolines (frames, device lists) follow the same rule.
//
// 4. Callbacks: the SDK invokes trampolines on its own threads. Each
//    trampoline receives the Token supplied at registration time; the token
//    is never dereferenced on the native side. The token table is shared by
//    the whole process, and ReleaseToken drops an entry once its
//    registration is gone.
//
// # Build Tags
//
// The real implementation needs the SDK headers and library and is compiled
// only with `cgo && orbbecsdk`. Every other build gets a stub whose Load
// returns ErrNotBuilt.
package native
