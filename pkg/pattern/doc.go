// Package pattern provides the same-pattern batching policy.
//
// The policy groups consecutive entries whose derived pattern is equal. A new
// batch starts every time the pattern changes, and the batch being built is
// pushed at that moment. The last batch is flushed when the input ends.
//
//	orders := pattern.ByProp("order_id")(records)
//	for b, err := range orders {
//	    // b.Pattern points at the shared order_id, b.Items holds the records.
//	}
//
// Patterns are compared with a caller supplied equality that must be an
// equivalence relation. Grouping is undefined otherwise.
package pattern
