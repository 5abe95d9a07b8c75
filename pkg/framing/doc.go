// Package framing provides SOP/EOP framing for the operator serial link.
package framing

// A serial frame carries a fixed-length payload between two sentinel bytes:
//
//   SOP(0xFF) | payload(N) | EOP(0xFE)
//
// The payload length is implied by the payload type (6 bytes for commands,
// 17 bytes for telemetry samples forwarded to the console). No escaping is
// done, so payload bytes may equal SOP or EOP. The fixed length makes this
// unambiguous for well-formed frames. After a corrupted frame the parser
// may resynchronize on a payload byte equal to SOP and lose the following
// frame as well.
