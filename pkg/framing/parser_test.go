package framing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/teststand/pkg/command"
)

type parserFeed struct {
	frames [][]byte
	errs   []error
	state  State
}

func feed(p *Parser, in ...byte) (r parserFeed) {
	for _, b := range in {
		pr := p.Parse(b)
		if pr.Frame != nil {
			r.frames = append(r.frames, pr.Frame)
		}
		if pr.Err != nil {
			r.errs = append(r.errs, pr.Err)
		}
		r.state = pr.State
	}
	return
}

func cat(parts ...[]byte) (out []byte) {
	for _, p := range parts {
		out = append(out, p...)
	}
	return
}

func TestParser(t *testing.T) {
	openAll := []byte{0x00, 0x01, 0xff, 0x00, 0x00, 0x00}
	ignite := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00}
	setPos := []byte{0x00, 0x02, 0x03, 0x32, 0x00, 0x00}

	testCases := []struct {
		name   string
		in     []byte
		frames [][]byte
		errs   int
		state  State
	}{
		{
			name:   "single frame",
			in:     Encode(openAll),
			frames: [][]byte{openAll},
		},
		{
			name:   "payload containing sentinels",
			in:     Encode([]byte{0xff, 0xfe, 0xff, 0xfe, 0xff, 0xfe}),
			frames: [][]byte{{0xff, 0xfe, 0xff, 0xfe, 0xff, 0xfe}},
		},
		{
			name:   "garbage frame garbage frame",
			in:     cat([]byte{0x01, 0x02, 0xfe, 0x00, 0x7f}, Encode(openAll), []byte{0x10, 0xfe, 0x00}, Encode(ignite)),
			frames: [][]byte{openAll, ignite},
		},
		{
			name:   "back to back",
			in:     cat(Encode(openAll), Encode(setPos), Encode(ignite)),
			frames: [][]byte{openAll, setPos, ignite},
		},
		{
			name:   "bad eop discards frame",
			in:     cat([]byte{SOP}, openAll, []byte{0x00}, Encode(ignite)),
			frames: [][]byte{ignite},
			errs:   1,
		},
		{
			name:   "sop in eop position starts new frame",
			in:     cat([]byte{SOP}, openAll, Encode(ignite)),
			frames: [][]byte{ignite},
			errs:   1,
		},
		{
			name:  "partial frame",
			in:    []byte{SOP, 0x00, 0x01},
			state: StateReadingPayload,
		},
		{
			name:  "awaiting end",
			in:    cat([]byte{SOP}, setPos),
			state: StateAwaitingEnd,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := feed(NewParser(command.Size), tc.in...)
			require.Equal(t, tc.frames, r.frames)
			require.Len(t, r.errs, tc.errs)
			for _, err := range r.errs {
				require.True(t, errors.Is(err, ErrBadEOP))
			}
			require.Equal(t, tc.state, r.state)
		})
	}
}

func TestParserRestartedError(t *testing.T) {
	p := NewParser(command.Size)
	r := feed(p, SOP, 1, 2, 3, 4, 5, 6)
	require.Empty(t, r.errs)
	require.Equal(t, StateAwaitingEnd, r.state)

	pr := p.Parse(SOP)
	require.Nil(t, pr.Frame)
	var frameErr *FrameError
	require.True(t, errors.As(pr.Err, &frameErr))
	require.True(t, frameErr.Restarted)
	require.Equal(t, SOP, frameErr.Got)
	require.Equal(t, StateReadingPayload, pr.State)

	pr = p.Parse(0x00)
	require.Equal(t, StateReadingPayload, pr.State)
	var plain *FrameError
	p2 := NewParser(command.Size)
	feed(p2, SOP, 1, 2, 3, 4, 5, 6)
	require.True(t, errors.As(p2.Parse(0x42).Err, &plain))
	require.False(t, plain.Restarted)
	require.Equal(t, StateWaitingForStart, p2.State())
}

func TestParserFrameOwnership(t *testing.T) {
	p := NewParser(2)
	first := feed(p, SOP, 1, 2, EOP).frames[0]
	feed(p, SOP, 3, 4, EOP)
	require.Equal(t, []byte{1, 2}, first)
}

func TestEndToEndCommand(t *testing.T) {
	r := feed(NewParser(command.Size), SOP, 0x00, 0x01, 0xFF, 0x00, 0x00, 0x00, EOP)
	require.Len(t, r.frames, 1)
	cmd, err := command.Decode(r.frames[0])
	require.NoError(t, err)
	require.Equal(t, command.Command{
		Target: command.TargetServo,
		Type:   command.ServoOpen,
		Params: [4]byte{0xFF, 0, 0, 0},
	}, cmd)
}

func TestEncode(t *testing.T) {
	require.Equal(t, []byte{SOP, 1, 2, 3, EOP}, Encode([]byte{1, 2, 3}))
	require.Len(t, Encode(command.Ignite().Bytes()), 8)
}
