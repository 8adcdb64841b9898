// Package record reads newline delimited JSON records.
//
// Each non-blank line of the input holds one JSON object. Records remember the
// byte offset just past their line so a consumer can checkpoint progress and
// resume later with [Position].
//
// # Usage
//
// Read a finite stream:
//
//	for rec, err := range record.Read(f, record.Position{}) {
//	    if err != nil {
//	        return err
//	    }
//	    // Use rec.Fields...
//	}
//
// Follow a growing file until ctx is cancelled:
//
//	for rec, err := range record.Tail(ctx, "orders.ndjson", record.TailOptions{}) {
//	    ...
//	}
package record
