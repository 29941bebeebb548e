// Package core contains the business logic for counting references in
// wiki revisions through the references counter API. It does not depend
// on any particular HTTP client, cache or logging backend.
//
// The core package is organized into several sub-packages:
//
// - domain: Projects, revision ids, reference counts and the ordered result mapping
// - refcount: The fetch service and the reporter for failure events
// - errors: Custom error types and transport failure classification
// - interfaces: Contracts for external dependencies (cache, HTTP, logger, error tracker)
//
// # Usage Example
//
//	import (
//	    "refcounter-api/core/domain"
//	    "refcounter-api/core/interfaces"
//	    "refcounter-api/core/refcount"
//	)
//
//	deps := interfaces.Dependencies{
//	    HTTPClient: myHTTPClient, // implements interfaces.HTTPClient
//	    Logger:     myLogger,     // implements interfaces.Logger
//	}
//
//	service, err := refcount.NewService(domain.NewProject("wiktionary", "es"), deps, refcount.DefaultSettings())
//	if err != nil {
//	    // wikidata is rejected here
//	}
//
//	results := service.FetchInts(ctx, []int64{5006940, 5006942, 5006946})
//	// {"5006940":{"num_ref":10},"5006942":{"num_ref":4},"5006946":{"num_ref":2}}
package core
