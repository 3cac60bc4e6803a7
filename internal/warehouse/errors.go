package warehouse

import "fmt"

// LoadError is a batch-level staging or merge failure. The batch it covers
// was not applied at all.
type LoadError struct {
	Batch int // records in the failed batch
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("warehouse load (%d records): %v", e.Batch, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// AnalyticsError is a failure regenerating the denormalized analytics table.
type AnalyticsError struct {
	Err error
}

func (e *AnalyticsError) Error() string {
	return fmt.Sprintf("analytics rebuild: %v", e.Err)
}

func (e *AnalyticsError) Unwrap() error {
	return e.Err
}
