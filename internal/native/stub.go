//go:build !cgo || !orbbecsdk

package native

// Load returns the SDK-backed API. Builds without cgo or without the
// orbbecsdk tag carry no SDK and always fail with ErrNotBuilt.
func Load() (API, error) {
	return nil, ErrNotBuilt
}
