// Package pipeline runs the two halves of the radio voice link. Encoder turns
// 20 ms PCM frames into sequenced wire frames; Decoder turns wire frames back
// into PCM and reports sequence discrepancies.
//
// Each pipeline owns its codec session, buffers and counter. Run is a blocking
// loop meant to be called from exactly one goroutine; the codec is never
// touched concurrently.
package pipeline

import (
	"errors"

	"faraday-voice/internal/audio/config"
	"faraday-voice/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrCodec       = errors.New("codec failure")
	ErrEncoderNil  = errors.New("encoder cannot be nil")
	ErrDecoderNil  = errors.New("decoder cannot be nil")
	ErrFrameLength = errors.New("unexpected frame length")
)

// State is the lifecycle of a pipeline. INIT is left once, on the first Run.
type State int

const (
	StateInit State = iota
	StateRunning
	StateTerminatedEOF
	StateTerminatedError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateTerminatedEOF:
		return "TERMINATED_EOF"
	case StateTerminatedError:
		return "TERMINATED_ERROR"
	}
	return "UNKNOWN"
}

func (s State) Terminal() bool {
	return s == StateTerminatedEOF || s == StateTerminatedError
}

type options struct {
	log        zerolog.Logger
	metrics    *metrics.Metrics
	policy     config.LossPolicy
	maxConceal int
}

type Option func(*options)

// WithLogger sets the diagnostic logger. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLossPolicy selects what the decoder does about forward sequence gaps.
// At most maxConceal frames are synthesized per gap.
func WithLossPolicy(policy config.LossPolicy, maxConceal int) Option {
	return func(o *options) {
		o.policy = policy
		o.maxConceal = maxConceal
	}
}

func newOptions(opts []Option) options {
	o := options{
		log:    log.Logger,
		policy: config.LossPolicyNone,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New(prometheus.NewRegistry())
	}
	return o
}
