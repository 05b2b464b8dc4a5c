// Package metrics holds the Prometheus counters both pipelines update and an
// optional /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Metrics struct {
	FramesEncoded    prometheus.Counter
	FramesDecoded    prometheus.Counter
	SeqDiscrepancies prometheus.Counter
	FramesLost       prometheus.Counter
	FramesConcealed  prometheus.Counter
	ShortUnits       prometheus.Counter
	CodecErrors      *prometheus.CounterVec
}

// New registers all counters on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesEncoded: f.NewCounter(prometheus.CounterOpts{
			Name: "radio_frames_encoded_total",
			Help: "Wire frames emitted by the encoder pipeline",
		}),
		FramesDecoded: f.NewCounter(prometheus.CounterOpts{
			Name: "radio_frames_decoded_total",
			Help: "Wire frames decoded into PCM",
		}),
		SeqDiscrepancies: f.NewCounter(prometheus.CounterOpts{
			Name: "radio_seq_discrepancies_total",
			Help: "Received frames out of sequence or off the expected counter",
		}),
		FramesLost: f.NewCounter(prometheus.CounterOpts{
			Name: "radio_frames_lost_total",
			Help: "Frames missing according to forward sequence gaps",
		}),
		FramesConcealed: f.NewCounter(prometheus.CounterOpts{
			Name: "radio_frames_concealed_total",
			Help: "PCM frames synthesized for lost wire frames",
		}),
		ShortUnits: f.NewCounter(prometheus.CounterOpts{
			Name: "radio_short_units_total",
			Help: "Input units shorter than a full frame",
		}),
		CodecErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radio_codec_errors_total",
			Help: "Codec failures by operation",
		}, []string{"op"}),
	}
}

// Serve exposes reg on addr until ctx is done.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
