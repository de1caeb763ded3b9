// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes circuit breaker utilities used by the fetch transport to decide
// when an origin's direct path is not worth probing anymore.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.DirectProbeConfig("api.example.com"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return probeOrigin()
//	})
package resilience
