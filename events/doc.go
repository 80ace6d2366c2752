// Package events holds the typed webhook event model and the classifier that
// builds it from decoded JSON.
//
// Every union level (event kind, message type, content provider, source) is
// resolved through its own constructor table. A discriminant missing from a
// table is an error, never a default.
package events
