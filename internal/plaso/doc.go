package plaso

// Package plaso talks to the learning platform's HTTP API: token validation,
// course packages and chapter directories. Transient faults are retried with
// backoff; auth refusals and platform error codes surface as typed errors.
