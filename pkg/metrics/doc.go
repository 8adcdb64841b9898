// Package metrics exposes prometheus instruments for batching runs.
//
// Instrument wraps any batch.Control and counts what flows through it
// without changing its results:
//
//	m, err := metrics.New(prometheus.DefaultRegisterer)
//	if err != nil {
//		return err
//	}
//	control := metrics.Instrument(pattern.SameProperty[record.Record]("order_id"), m)
//	for b, err := range batch.By(control)(entries) {
//		...
//	}
package metrics
