// Package sink delivers finalized batches.
//
// Every batch is wrapped in an [Envelope] carrying a unique ID, its sequence
// number within the run and the input offset just past its last item. Sinks
// are written to sequentially by a single run.
//
// # Usage
//
// Write JSON lines to stdout:
//
//	s := sink.NewJSONLines(os.Stdout, false)
//
// POST each batch to an ingestion service with retries:
//
//	s := sink.NewHTTPSink(http.DefaultClient, sink.HTTPOptions{
//	    URL:     "https://ingest.example.com",
//	    AuthKey: "api-key",
//	})
//
// Combine several sinks with [Multi].
package sink
