// Package command provides the binary command record exchanged between
// the operator console, the Home station and the Away station.
package command

// A command is a fixed 6-byte record:
//
//   target(1) | type(1) | params[0..4](4)
//
// It is carried unframed over the radio (the physical layer gives packet
// boundaries) and wrapped with SOP/EOP on the serial link.
//
// Decode never validates target/type values. Unknown values are passed
// through and rejected by the dispatcher, so stations running different
// firmware revisions keep working with each other.
