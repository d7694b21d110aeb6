// Package types defines the public value model and error surface shared by
// every gribkit package: the tagged Value union carried by decoded message
// fields, the attribute flags used to filter key iteration, and the typed
// errors callers branch on.
package types
