// Package codec turns host lifecycle events into the versioned JSON payloads
// handed to the native engine, and back again for tests and diagnostics.
//
// Payload shape:
//
//	{"version":1,"kind":"query_completed","event":{...}}
//
// Date/time values are fixed-format UTC strings (types.TimestampLayout),
// durations are ISO-8601 strings, and unknown values are omitted rather than
// encoded as null. Encoding is deterministic: struct fields keep declaration
// order and map keys are sorted.
package codec
