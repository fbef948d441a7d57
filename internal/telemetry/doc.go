// Package telemetry sets up logging and the metrics registry for the deferred binary.
package telemetry
