// Package metrics exposes the link and protocol counters of a station.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters of a station.
// All recording methods are safe on a nil *Metrics and do nothing.
type Metrics struct {
	FramesDecoded      prometheus.Counter
	FramingErrors      prometheus.Counter
	DecodeErrors       prometheus.Counter
	SizeMismatches     prometheus.Counter
	PacketsSent        prometheus.Counter
	SendFailures       prometheus.Counter
	PacketsReceived    prometheus.Counter
	PacketsLost        prometheus.Gauge
	SamplesBatched     prometheus.Counter
	BatchesSent        prometheus.Counter
	SamplesForwarded   prometheus.Counter
	CommandsDispatched *prometheus.CounterVec
	UnknownCommands    prometheus.Counter
	QueueDrops         *prometheus.CounterVec
	RSSI               prometheus.Gauge
	SNR                prometheus.Gauge

	gatherer prometheus.Gatherer
}

const namespace = "teststand"

// New creates Metrics registered with reg.
// If reg is also a prometheus.Gatherer, Serve exposes it.
func New(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	m := &Metrics{
		FramesDecoded:    counter("serial_frames_total", "Serial frames decoded."),
		FramingErrors:    counter("serial_framing_errors_total", "Serial frames discarded on a bad end marker."),
		DecodeErrors:     counter("decode_errors_total", "Payloads too short to hold a command."),
		SizeMismatches:   counter("telemetry_size_mismatch_total", "Telemetry payloads whose length disagrees with the sample count."),
		PacketsSent:      counter("radio_packets_sent_total", "Radio payloads sent."),
		SendFailures:     counter("radio_send_failures_total", "Radio sends reported as failed."),
		PacketsReceived:  counter("radio_packets_received_total", "Radio payloads received."),
		PacketsLost:      gauge("radio_packets_lost", "Lost packet count reported by the radio."),
		SamplesBatched:   counter("telemetry_samples_batched_total", "Sensor samples packed into batches."),
		BatchesSent:      counter("telemetry_batches_sent_total", "Telemetry batches handed to the radio."),
		SamplesForwarded: counter("telemetry_samples_forwarded_total", "Received sensor samples forwarded downstream."),
		CommandsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dispatched_total",
			Help:      "Commands executed by the dispatcher.",
		}, []string{"target", "type"}),
		UnknownCommands: counter("commands_unknown_total", "Commands ignored as unknown."),
		QueueDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_dropped_total",
			Help:      "Items dropped by queue overflow policies.",
		}, []string{"queue"}),
		RSSI: gauge("radio_rssi_dbm", "RSSI of the last received packet."),
		SNR:  gauge("radio_snr_db", "SNR of the last received packet."),
	}
	if reg != nil {
		reg.MustRegister(
			m.FramesDecoded, m.FramingErrors, m.DecodeErrors, m.SizeMismatches,
			m.PacketsSent, m.SendFailures, m.PacketsReceived, m.PacketsLost,
			m.SamplesBatched, m.BatchesSent, m.SamplesForwarded,
			m.CommandsDispatched, m.UnknownCommands, m.QueueDrops,
			m.RSSI, m.SNR,
		)
		if g, ok := reg.(prometheus.Gatherer); ok {
			m.gatherer = g
		}
	}
	return m
}

// NewUnregistered creates Metrics not registered anywhere, mostly for tests.
func NewUnregistered() *Metrics {
	return New(nil)
}

// FrameDecoded records a serial frame.
func (m *Metrics) FrameDecoded() {
	if m != nil {
		m.FramesDecoded.Inc()
	}
}

// FramingError records a discarded serial frame.
func (m *Metrics) FramingError() {
	if m != nil {
		m.FramingErrors.Inc()
	}
}

// DecodeError records a payload which could not be decoded.
func (m *Metrics) DecodeError() {
	if m != nil {
		m.DecodeErrors.Inc()
	}
}

// SizeMismatch records a discarded telemetry payload.
func (m *Metrics) SizeMismatch() {
	if m != nil {
		m.SizeMismatches.Inc()
	}
}

// Sent records the result of a radio send.
func (m *Metrics) Sent(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SendFailures.Inc()
	} else {
		m.PacketsSent.Inc()
	}
}

// Received records a received radio packet with its link quality.
func (m *Metrics) Received(rssi, snr int) {
	if m != nil {
		m.PacketsReceived.Inc()
		m.RSSI.Set(float64(rssi))
		m.SNR.Set(float64(snr))
	}
}

// Lost records the lost packet count reported by the radio.
func (m *Metrics) Lost(n int) {
	if m != nil {
		m.PacketsLost.Set(float64(n))
	}
}

// Batched records a sent batch of n samples.
func (m *Metrics) Batched(n int) {
	if m != nil {
		m.SamplesBatched.Add(float64(n))
		m.BatchesSent.Inc()
	}
}

// Forwarded records a received sample forwarded downstream.
func (m *Metrics) Forwarded() {
	if m != nil {
		m.SamplesForwarded.Inc()
	}
}

// Dispatched records an executed command.
func (m *Metrics) Dispatched(target, typ string) {
	if m != nil {
		m.CommandsDispatched.WithLabelValues(target, typ).Inc()
	}
}

// UnknownCommand records an ignored command.
func (m *Metrics) UnknownCommand() {
	if m != nil {
		m.UnknownCommands.Inc()
	}
}

// QueueDropped returns a callback which records drops on the named queue.
func (m *Metrics) QueueDropped(queue string) func() {
	if m == nil {
		return nil
	}
	c := m.QueueDrops.WithLabelValues(queue)
	return c.Inc
}

// Serve exposes the metrics over HTTP until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	return Serve(ctx, addr, m.gatherer)
}

// Serve exposes g on /metrics until ctx is done.
// prometheus.DefaultGatherer is used if g is nil.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		glog.Infof("metrics listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
