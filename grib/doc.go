// Package grib is the public surface for decoding GRIB messages: handles
// over raw message buffers, typed key access with coercion, key iteration,
// and the Context carrying decode configuration.
//
// A Handle pairs one message buffer with the field list decoded from it.
// Buffers are either owned (copied at construction, released on Close) or
// borrowed (a view over caller bytes; sets mutate the caller's slice).
// Key access follows the last-one-wins rule when a name repeats, and get
// operations coerce between long, double and string forms on demand.
package grib
