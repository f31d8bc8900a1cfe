// Package otel publishes goAdmin client metrics through OpenTelemetry
// observable instruments.
//
// Each counter becomes an Int64ObservableCounter and each histogram bucket an
// Int64ObservableGauge. One callback reads the client snapshot per collection.
// The caller owns the MeterProvider.
package otel
