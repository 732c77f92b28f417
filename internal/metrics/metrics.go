// Package metrics counts codec traffic with Prometheus collectors.
//
// A Collector implements protocol.Observer, so it can be attached to a
// protocol.Reader or protocol.Writer with protocol.WithObserver.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/muurk/nsqwire/internal/protocol"
)

const namespace = "nsqwire"

// Collector records frames and bytes seen by the codec
type Collector struct {
	registry *prometheus.Registry

	framesDecoded *prometheus.CounterVec
	framesEncoded *prometheus.CounterVec
	bytesDecoded  prometheus.Counter
	bytesEncoded  prometheus.Counter
	decodeErrors  *prometheus.CounterVec
	frameSize     *prometheus.HistogramVec
}

var _ protocol.Observer = (*Collector)(nil)

// NewCollector creates a Collector registered on its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		framesDecoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decoder",
				Name:      "frames_total",
				Help:      "Frames decoded, by value type.",
			},
			[]string{"type"},
		),
		framesEncoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "encoder",
				Name:      "commands_total",
				Help:      "Commands encoded, by value type.",
			},
			[]string{"type"},
		),
		bytesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "bytes_total",
			Help:      "Bytes consumed by successful decodes.",
		}),
		bytesEncoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "encoder",
			Name:      "bytes_total",
			Help:      "Bytes written by the encoder.",
		}),
		decodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decoder",
				Name:      "errors_total",
				Help:      "Decode failures, by error kind.",
			},
			[]string{"kind"},
		),
		frameSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "frame_size_bytes",
				Help:      "Wire size of frames and commands.",
				Buckets:   prometheus.ExponentialBuckets(8, 4, 10),
			},
			[]string{"direction"},
		),
	}

	c.registry.MustRegister(
		c.framesDecoded,
		c.framesEncoded,
		c.bytesDecoded,
		c.bytesEncoded,
		c.decodeErrors,
		c.frameSize,
	)
	return c
}

// Registry exposes the registry, for serving or gathering
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) FrameDecoded(v protocol.Value, n int) {
	c.framesDecoded.WithLabelValues(v.Type().String()).Inc()
	c.bytesDecoded.Add(float64(n))
	c.frameSize.WithLabelValues("recv").Observe(float64(n))
}

func (c *Collector) FrameEncoded(v protocol.Value, n int) {
	c.framesEncoded.WithLabelValues(v.Type().String()).Inc()
	c.bytesEncoded.Add(float64(n))
	c.frameSize.WithLabelValues("send").Observe(float64(n))
}

func (c *Collector) DecodeFailed(err error) {
	kind := "other"
	if k := protocol.KindOf(err); k != 0 {
		kind = k.String()
	}
	c.decodeErrors.WithLabelValues(kind).Inc()
}

// WriteText writes every metric in the Prometheus text exposition format
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
