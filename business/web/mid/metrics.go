package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/ardanlabs/utxoledger/foundation/web"
)

// Set of metrics published through the debug/vars endpoint.
var (
	metricsGoroutines = expvar.NewInt("goroutines")
	metricsRequests   = expvar.NewInt("requests")
	metricsErrors     = expvar.NewInt("errors")
	metricsPanics     = expvar.NewInt("panics")
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and goroutines counter.
			metricsRequests.Add(1)

			// Update the count for the number of active goroutines every 100 requests.
			if metricsRequests.Value()%100 == 0 {
				metricsGoroutines.Set(int64(runtime.NumGoroutine()))
			}

			// Increment if there is an error flowing through the request.
			if err != nil {
				metricsErrors.Add(1)
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
