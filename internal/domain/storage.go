package domain

import "time"

// Observer receives instrumentation from the client, ledger and catalog.
type Observer interface {
	// OnRequest records one remote call by endpoint name and HTTP status (0 = transport failure)
	OnRequest(endpoint string, status int, elapsed time.Duration)

	// OnToggle records a toggle outcome: "activated", "deactivated", "rejected", "failed"
	OnToggle(kind Kind, outcome string)

	// OnLedgerSize reports the number of records held for a kind
	OnLedgerSize(kind Kind, size int)

	// OnCache records a detail cache lookup
	OnCache(hit bool)
}

// NoOpObserver discards instrumentation (for testing/disabled metrics).
type NoOpObserver struct{}

func (NoOpObserver) OnRequest(string, int, time.Duration) {}
func (NoOpObserver) OnToggle(Kind, string)                {}
func (NoOpObserver) OnLedgerSize(Kind, int)               {}
func (NoOpObserver) OnCache(bool)                         {}
