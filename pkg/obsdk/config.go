package obsdk

import (
	"github.com/orbbec/obsdk-go/pkg/obsdk/logging"
	"github.com/orbbec/obsdk-go/pkg/obsdk/metrics"
)

// Config expresses the knobs applied when a Library is opened. The zero value
// is usable.
type Config struct {
	// Logger receives binding diagnostics. Nil binds to slog.Default().
	Logger logging.Logger

	// Metrics receives handle and callback metrics. Nil registers the
	// collectors with a private registry, reachable through Library.Metrics.
	Metrics *metrics.BindingMetrics

	// OnFault receives failures that cannot be returned to a caller. Nil logs
	// them at error level.
	OnFault FaultHandler

	// SDKLog configures the SDK's own logger at Open. Nil leaves the SDK
	// defaults in place.
	SDKLog *SDKLogConfig
}

// SDKLogConfig configures the logger inside the native SDK.
type SDKLogConfig struct {
	Severity LogSeverity

	// Directory enables SDK file logging when set.
	Directory string

	// Console enables SDK console logging.
	Console bool
}
