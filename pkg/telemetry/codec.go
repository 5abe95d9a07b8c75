package telemetry

import (
	"encoding/binary"
	"fmt"
)

// PutSample encodes s into b, which must hold SampleSize bytes.
func PutSample(b []byte, s SensorSample) {
	_ = b[SampleSize-1]
	for i, v := range s.PT {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	b[NumPT*2] = s.LoadCell
	binary.LittleEndian.PutUint32(b[NumPT*2+1:], s.Timestamp)
}

// EncodeSample encodes a single sample.
func EncodeSample(s SensorSample) []byte {
	b := make([]byte, SampleSize)
	PutSample(b, s)
	return b
}

// DecodeSample decodes a single sample from exactly SampleSize bytes.
func DecodeSample(b []byte) (s SensorSample, err error) {
	if len(b) != SampleSize {
		return s, &SizeMismatchError{Count: 1, Expected: SampleSize, Actual: len(b)}
	}
	readSample(b, &s)
	return s, nil
}

func readSample(b []byte, s *SensorSample) {
	for i := range s.PT {
		s.PT[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	s.LoadCell = b[NumPT*2]
	s.Timestamp = binary.LittleEndian.Uint32(b[NumPT*2+1:])
}

// EncodeBatch encodes a batch into a radio payload.
func EncodeBatch(batch Batch) ([]byte, error) {
	if batch.Len() > MaxSamplesPerBatch {
		return nil, fmt.Errorf("%w: %d, max %d", ErrTooManySamples, batch.Len(), MaxSamplesPerBatch)
	}
	b := make([]byte, batch.Size())
	b[0] = byte(batch.Len())
	binary.LittleEndian.PutUint32(b[1:], batch.Timestamp)
	for i, s := range batch.Samples {
		PutSample(b[HeaderSize+i*SampleSize:], s)
	}
	return b, nil
}

// DecodeBatch decodes a radio payload. The payload length must match the
// sample count exactly, otherwise nothing is decoded.
func DecodeBatch(b []byte) (batch Batch, err error) {
	if len(b) < HeaderSize {
		return batch, &SizeMismatchError{Count: -1, Expected: HeaderSize, Actual: len(b)}
	}
	count := int(b[0])
	if expected := HeaderSize + count*SampleSize; len(b) != expected {
		return batch, &SizeMismatchError{Count: count, Expected: expected, Actual: len(b)}
	}
	batch.Timestamp = binary.LittleEndian.Uint32(b[1:])
	batch.Samples = make([]SensorSample, count)
	for i := range batch.Samples {
		readSample(b[HeaderSize+i*SampleSize:], &batch.Samples[i])
	}
	return batch, nil
}
