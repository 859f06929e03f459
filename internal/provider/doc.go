// Package provider wraps the supported LLM vendors behind one Adapter
// contract.
//
// Each adapter issues a single bounded HTTP request per Invoke and converts
// every transport or HTTP-level problem into a classified *Failure before it
// reaches the orchestrator. Callers never see raw transport errors; the only
// unclassified error that escapes is context.Canceled, which signals the
// caller's own cancellation.
package provider
