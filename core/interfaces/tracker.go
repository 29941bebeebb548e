// ABOUTME: Error tracking interface for the job that drives reference counting
// ABOUTME: Lets a caller accumulate transport failure counts across batches

package interfaces

// ErrorTracker receives the number of revisions a failed batch could not
// service. Typically implemented by the update job that owns the client.
type ErrorTracker interface {
	IncrementErrorCount(n int)
}
