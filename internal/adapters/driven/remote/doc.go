// Package remote is an HTTP client for a remote annotation server.
//
// Client implements driving.AnnotationService, so front ends can switch
// between the local store and a server without change. Requests carry a
// bearer token, are throttled by a token bucket and are never retried.
// Failures are classified onto the domain sentinels by HTTP status; a
// request that never reaches the server is domain.ErrTransport.
package remote
