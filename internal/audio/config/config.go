package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

const (
	SampleRate   = 16000 // pipeline runs at 16 kHz, not Opus' preferred 48 kHz
	Channels     = 1
	FrameSamples = 320 // 20 ms at 16 kHz
	FrameBytes   = FrameSamples * 2
	FrameMs      = 20

	Bitrate = 12000 // hard CBR, gives exactly PayloadSize bytes per 20 ms

	SeqSize       = 2
	PayloadSize   = 30
	WireFrameSize = SeqSize + PayloadSize

	FirstSeq = 1
)

type LossPolicy string

func (lp LossPolicy) String() string {
	return string(lp)
}

const (
	LossPolicyNone    LossPolicy = "none"
	LossPolicyPLC     LossPolicy = "plc"
	LossPolicySilence LossPolicy = "silence"
)

func (lp LossPolicy) IsValid() bool {
	switch lp {
	case LossPolicyNone, LossPolicyPLC, LossPolicySilence:
		return true
	}
	return false
}

// AudioConfig describes the codec session both pipelines create in INIT.
type AudioConfig struct {
	SampleRate   int
	Channels     int
	FrameSamples int
	Bitrate      int
	VBR          bool
	PayloadSize  int
}

// NewRadioConfig returns the fixed codec parameters of the radio link:
// 16 kHz mono VoIP at 12 kbps with VBR disabled.
func NewRadioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:   SampleRate,
		Channels:     Channels,
		FrameSamples: FrameSamples,
		Bitrate:      Bitrate,
		VBR:          false,
		PayloadSize:  PayloadSize,
	}
}

// RuntimeConfig holds the process-level settings read from the environment.
type RuntimeConfig struct {
	LogLevel    string     `env:"LOG_LEVEL, default=debug"`
	PCMRate     int        `env:"RADIO_PCM_RATE, default=16000"`
	LossPolicy  LossPolicy `env:"RADIO_LOSS_POLICY, default=none"`
	MaxConceal  int        `env:"RADIO_MAX_CONCEAL, default=5"`
	Link        string     `env:"RADIO_LINK"`
	MetricsAddr string     `env:"RADIO_METRICS_ADDR"`
}

func NewRuntimeConfigFromEnv(ctx context.Context) (*RuntimeConfig, error) {
	return newRuntimeConfig(ctx, envconfig.OsLookuper())
}

func newRuntimeConfig(ctx context.Context, lookuper envconfig.Lookuper) (*RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *RuntimeConfig) Validate() error {
	var errs []error
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is invalid; valid values: debug, info, warn, error", c.LogLevel))
	}
	if c.PCMRate < 8000 || c.PCMRate > 192000 {
		errs = append(errs, fmt.Errorf("RADIO_PCM_RATE %d out of range [8000, 192000]", c.PCMRate))
	}
	if !c.LossPolicy.IsValid() {
		errs = append(errs, fmt.Errorf("RADIO_LOSS_POLICY %q is invalid; valid values: none, plc, silence", c.LossPolicy))
	}
	if c.MaxConceal < 0 {
		errs = append(errs, fmt.Errorf("RADIO_MAX_CONCEAL must not be negative, got %d", c.MaxConceal))
	}
	return errors.Join(errs...)
}

// NeedsResample reports whether the PCM side runs at a rate other than the codec rate.
func (c *RuntimeConfig) NeedsResample() bool {
	return c.PCMRate != SampleRate
}
