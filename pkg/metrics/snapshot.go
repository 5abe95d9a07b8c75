package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// LinkStats is a point in time view of the receive side of the link.
type LinkStats struct {
	PacketsReceived  uint64
	PacketsLost      uint64
	SamplesForwarded uint64
	SizeMismatches   uint64
	RSSI             int
	SNR              int
}

// Link reads the link counters. A nil *Metrics gives zero stats.
func (m *Metrics) Link() (s LinkStats) {
	if m == nil {
		return
	}
	s.PacketsReceived = uint64(value(m.PacketsReceived))
	s.PacketsLost = uint64(value(m.PacketsLost))
	s.SamplesForwarded = uint64(value(m.SamplesForwarded))
	s.SizeMismatches = uint64(value(m.SizeMismatches))
	s.RSSI = int(value(m.RSSI))
	s.SNR = int(value(m.SNR))
	return
}

func value(c prometheus.Metric) float64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	switch {
	case pb.Counter != nil:
		return pb.Counter.GetValue()
	case pb.Gauge != nil:
		return pb.Gauge.GetValue()
	}
	return 0
}
