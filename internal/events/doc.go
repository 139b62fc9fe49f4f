// Package events fans placed orders out to listeners.
//
// Dispatcher delivers each OrderPlaced event to every listener on its own
// goroutine with a per-listener timeout. Listener errors and panics are
// logged and never reach the publisher. Close stops intake and waits for
// deliveries in flight.
//
// Two listeners are provided: AuditListener writes a structured log record,
// and KafkaListener publishes a JSON Envelope keyed by order id.
package events
