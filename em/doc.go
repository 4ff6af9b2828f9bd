// Package em provides a generic Expectation-Maximization iteration engine.
//
// An algorithm family plugs in through the Estimator interface, parameterized
// by its parameter type P and its statistics type S. The Engine owns the loop
// and keeps all iteration state local to Run, so one Engine value may run
// concurrently on independent estimators without synchronization.
//
// # Loop
//
//	param := Initialize()
//	for iteration := 1; iteration <= MaxIterations; iteration++ {
//	    stats := Expectation(param)         // none: stop, keep param (Stalled)
//	    estimated := Maximization(stats)    // none: stop, keep param (Stalled)
//	    if Terminated(estimated, param, previous) {
//	        return estimated                // Converged
//	    }
//	    previous, param = param, estimated
//	}
//	return param                            // MaxIterations
//
// Between iterations the engine consults its Controller (pause, resume, stop)
// and the context. A stopped or cancelled run returns the last complete
// parameter with state Cancelled.
//
// # Observability
//
// Every iteration is reported to the registered observers and the configured
// MetricsCollector. The engine logs each iteration at debug level and a
// rate-limited progress record at info level through log/slog.
package em
