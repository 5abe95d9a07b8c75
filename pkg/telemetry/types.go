// Package telemetry carries sensor samples from Away to Home.
//
// Samples are packed into batches sized to fit one radio payload:
//
//	count(1) | timestamp(4) | count * sample(17)
//
// where a sample is
//
//	pt[6](2 each) | load(1) | timestamp(4)
//
// All multi-byte fields are little endian.
package telemetry

import (
	"time"

	"github.com/robotalks/teststand/pkg/radio"
)

// Wire sizes.
const (
	HeaderSize         = 5
	SampleSize         = 17
	MaxSamplesPerBatch = (radio.MaxPayloadSize - HeaderSize) / SampleSize
)

// NumPT is the number of pressure transducer channels.
const NumPT = 6

// SensorSample is one reading of all sensors.
type SensorSample struct {
	PT        [NumPT]uint16
	LoadCell  uint8
	Timestamp uint32 // ms
}

// Batch is the telemetry payload of one radio packet.
type Batch struct {
	Timestamp uint32 // ms, when the batch was started
	Samples   []SensorSample
}

// Len gets the sample count.
func (b *Batch) Len() int {
	return len(b.Samples)
}

// Full tells whether no more samples fit.
func (b *Batch) Full() bool {
	return len(b.Samples) >= MaxSamplesPerBatch
}

// Size gets the encoded size.
func (b *Batch) Size() int {
	return HeaderSize + len(b.Samples)*SampleSize
}

// Clock gets the current timestamp in ms.
type Clock func() uint32

// MonotonicClock counts ms from the time it's created.
func MonotonicClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}
