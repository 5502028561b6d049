// Package pipeline orchestrates a derivative run end to end.
//
// A run scans the input root (or takes an explicit list of sources), and for
// every source reads its header, plans the derivatives, renders each one,
// optionally publishes it, and merges the resulting locators into the
// manifest. Sources fan out across a bounded worker pool; the derivatives of
// one source fan out across a second, nested pool. Failures are isolated to
// the source or derivative that produced them and are logged with an
// event_type so a skip summary can be derived from logs. The manifest is
// written once, after every source has finished, and never on cancellation.
package pipeline
