package obsdk

var (
	Version     = "v0.0.0-in-progress"
	UpstreamSDK = "OrbbecSDK v2"
)

// WrapperVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func WrapperVersion() string {
	return Version
}

// Version returns the version reported by the linked SDK.
func (l *Library) Version() SDKVersion {
	return l.api.Version()
}
