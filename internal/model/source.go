package model

import "context"

// RecordSource yields the complete set of raw flow records for one finished
// run. A source is one-shot: Collect returns only after the collaborator has
// produced its full snapshot, and the returned slice is never amended.
type RecordSource interface {
	Collect(ctx context.Context) ([]*RawFlowRecord, error)
}
