// Package inspect serves a live view of a running App over HTTP.
//
// Routes:
//
//	GET  /healthz            liveness
//	GET  /events             WebSocket stream of flush, phase and signal events
//	GET  /metrics            Prometheus metrics (WithGatherer)
//	GET  /scope              root binding context as YAML
//	POST /eval               evaluate a JSON expression tree against the root scope
//	POST /signals/{name}     dispatch a signal
//	GET  /snapshots          list stored snapshots (WithStore)
//	POST /snapshots?name=n   store the root binding context (WithStore)
//
// Every handler that touches binding state runs it through App.Do, so the
// inspector is safe to use while the App's loop is running.
package inspect
