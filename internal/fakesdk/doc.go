// Package fakesdk is an in-memory implementation of the native SDK surface.
//
// It simulates devices described by a YAML scenario, streams synthetic frames
// from its own goroutines the way the SDK streams from its worker threads,
// and keeps every object it hands out in a table so tests can assert that
// nothing leaks. Failures can be injected per native function with FailNext.
//
// Recordings are zstd-compressed files with a YAML header followed by frame
// records; Playback reads the same format back.
package fakesdk
