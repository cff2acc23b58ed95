// Package bridge implements the published runtime object that aggregates
// accessories for one loaded extension.
//
// A Bridge collects accessory records, persists them to a durable cache
// under the configured storage path, and once published exposes an HTTP
// surface with the accessory snapshot, liveness/readiness endpoints, and
// Prometheus metrics. Teardown is idempotent and never propagates errors;
// it runs from a signal context racing a hard exit deadline.
package bridge
