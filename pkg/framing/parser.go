package framing

// Sentinel bytes
const (
	SOP byte = 0xFF
	EOP byte = 0xFE
)

// Overhead is the number of framing bytes around a payload.
const Overhead = 2

// State is the state of the frame parser.
type State int

const (
	// StateWaitingForStart discards bytes until SOP.
	StateWaitingForStart State = iota
	// StateReadingPayload accumulates payload bytes.
	StateReadingPayload
	// StateAwaitingEnd expects EOP after a full payload.
	StateAwaitingEnd
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateWaitingForStart:
		return "waiting-for-start"
	case StateReadingPayload:
		return "reading-payload"
	case StateAwaitingEnd:
		return "awaiting-end"
	}
	return "unknown"
}

// ParseResult is the result after one parsing step.
type ParseResult struct {
	State State
	// Frame is the payload of a complete frame.
	// It is owned by the caller.
	Frame []byte
	// Err is a framing error. The frame was discarded.
	Err error
}

// Parser parses frames with a fixed payload length, one byte at a time.
type Parser struct {
	state State
	buf   []byte
	n     int
}

// NewParser creates a Parser for payloads of payloadLen bytes.
func NewParser(payloadLen int) *Parser {
	if payloadLen <= 0 {
		panic("framing: payload length must be positive")
	}
	return &Parser{buf: make([]byte, payloadLen)}
}

// PayloadLen gets the expected payload length.
func (p *Parser) PayloadLen() int {
	return len(p.buf)
}

// State gets the current state.
func (p *Parser) State() State {
	return p.state
}

// Reset drops any partial frame.
func (p *Parser) Reset() {
	p.state, p.n = StateWaitingForStart, 0
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Frame, pr.Err = p.parseByte(b)
	pr.State = p.state
	return
}

func (p *Parser) parseByte(b byte) ([]byte, error) {
	switch p.state {
	case StateWaitingForStart:
		if b == SOP {
			p.state, p.n = StateReadingPayload, 0
		}
	case StateReadingPayload:
		p.buf[p.n] = b
		if p.n++; p.n >= len(p.buf) {
			p.state = StateAwaitingEnd
		}
	case StateAwaitingEnd:
		if b == EOP {
			frame := make([]byte, len(p.buf))
			copy(frame, p.buf)
			p.Reset()
			return frame, nil
		}
		err := &FrameError{Got: b}
		p.Reset()
		if b == SOP {
			// back-to-back frame after a lost EOP.
			p.state = StateReadingPayload
			err.Restarted = true
		}
		return nil, err
	}
	return nil, nil
}

// Encode wraps a payload in a frame.
func Encode(payload []byte) []byte {
	b := make([]byte, len(payload)+Overhead)
	b[0] = SOP
	copy(b[1:], payload)
	b[len(b)-1] = EOP
	return b
}
