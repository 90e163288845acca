// Package intake feeds inbound chat events into a flow engine.
//
// Processor is the per-event pipeline: acknowledge button clicks, sanitize
// the text, route and persist through the engine, then deliver the resulting
// actions. Poller drives a Processor from a pull transport, retrying
// transient failures with exponential backoff until its context is cancelled.
package intake
