// Package api exposes the gallery over HTTP. Handlers translate requests
// into presenter and poller calls and map their errors to status codes;
// response and request plumbing lives in the shared subpackage and request
// tracing in middleware.
package api
