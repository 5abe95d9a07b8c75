package command

// Size is the encoded length of a Command.
const Size = 2 + NumParams

// Bytes returns the encoded command.
func (c Command) Bytes() []byte {
	b := make([]byte, Size)
	c.Put(b)
	return b
}

// Put encodes the command into b which must be at least Size bytes.
func (c Command) Put(b []byte) {
	_ = b[Size-1]
	b[0], b[1] = byte(c.Target), byte(c.Type)
	copy(b[2:Size], c.Params[:])
}

// Encode encodes a command.
func Encode(c Command) []byte {
	return c.Bytes()
}

// Decode decodes a command from the first Size bytes of b.
// Trailing bytes are ignored.
func Decode(b []byte) (c Command, err error) {
	if len(b) < Size {
		return c, &DecodeError{Reason: ErrTooShort, Len: len(b)}
	}
	c.Target, c.Type = Target(b[0]), Type(b[1])
	copy(c.Params[:], b[2:Size])
	return c, nil
}
