// Package logging provides a minimal logging facade for the obsdk binding.
//
// Logger is a small context-aware interface over log/slog. The binding calls
// it from SDK callback threads and finalizers, so implementations must be safe
// for concurrent use and must not block.
//
// # Default Implementation
//
// New wraps any slog.Logger; nil means slog.Default(). Discard drops
// everything and is convenient in tests.
//
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	customLogger := logging.New(slog.New(handler))
//
// # Console and File Output
//
// NewWithOptions builds a logger that writes to the console, to a size-rotated
// file, or to both:
//
//	logger, closer, err := logging.NewWithOptions(logging.Options{
//	    Level:      slog.LevelInfo,
//	    Output:     logging.OutputAll,
//	    FilePath:   "logs/obsdk.log",
//	    MaxSizeMB:  10,
//	    MaxBackups: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//
// MaxBackups is capped at 10.
//
// # Binary Payloads
//
// Firmware images, calibration blobs and preset payloads can be large or
// proprietary. Log their size and checksum, not their content:
//
//	logger.Info(ctx, "raw data sent", logging.Payload("data", data))
//	// Logs: data.bytes=4096 data.crc32=1c291ca3
package logging
