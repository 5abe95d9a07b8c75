// Package msgs defines the protobuf messages published by the telemetry
// bridge.
//
// Every message travels in a Typed envelope carrying its type ID, so a
// subscriber can decode a topic without knowing what is published there.
package msgs
