// Package health reports the operational state of the service and its
// downstream providers.
//
// A Checker reports one component's health as Healthy, Degraded, or
// Unhealthy. The Aggregator fans a request out to every registered
// checker in parallel and rolls the results up to the worst status seen.
//
// Two checkers cover this service's dependencies. BreakerChecker inspects
// a circuit breaker registry: any open circuit marks the service degraded
// and names the affected provider in the details. HTTPChecker probes a
// downstream endpoint with a GET request.
//
//	agg := health.NewAggregator()
//	agg.Register("circuits", health.NewBreakerChecker(registry))
//	agg.Register("openai", health.NewHTTPChecker("openai", health.HTTPCheckerConfig{
//	    URL: "https://api.openai.com/v1/models",
//	}))
//
// The HTTP handlers expose the usual probe surface (/healthz, /readyz,
// /health) plus the circuit endpoints: GET /health/circuits for breaker
// statuses and POST /health/circuits/reset?name=openai for an operator
// reset. Handlers are plain net/http; routing stays with the caller.
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//	health.RegisterCircuitHandlers(mux, registry)
package health
