// Command opusdec reads 32-byte sequenced Opus frames on stdin, or from
// RADIO_LINK when set, and writes 16 kHz mono s16le PCM on stdout.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"faraday-voice/internal/app"
	"faraday-voice/internal/audio/config"
	"faraday-voice/internal/audio/decoder"
	"faraday-voice/internal/audio/pipeline"
	"faraday-voice/internal/audio/resample"
	"faraday-voice/internal/link"
	"faraday-voice/internal/metrics"
	"faraday-voice/internal/wire"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	app.Exit("opusdec", run())
}

func run() (err error) {
	ctx, stop := app.SignalContext(context.Background())
	defer stop()

	cfg, err := app.Setup(ctx)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()

	var src wire.FrameReader
	if cfg.Link == "" {
		src = wire.NewReader(os.Stdin)
		app.CloseOnDone(ctx, os.Stdin)
	} else {
		addr, err := link.ParseAddr(cfg.Link)
		if err != nil {
			return err
		}
		receiver, err := link.Listen(addr)
		if err != nil {
			return err
		}
		defer receiver.Close()
		app.CloseOnDone(ctx, receiver)
		src = receiver
		log.Info().Str("addr", cfg.Link).Msg("Receiving frames over link")
	}

	var dst io.Writer = os.Stdout
	if cfg.NeedsResample() {
		w, err := resample.NewWriter(os.Stdout, cfg.PCMRate)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, w.Close())
		}()
		dst = w
		log.Info().Int("from", config.SampleRate).Int("to", cfg.PCMRate).Msg("Resampling output")
	}

	codec, err := decoder.New(config.NewRadioConfig())
	if err != nil {
		return err
	}
	p, err := pipeline.NewDecoder(src, dst, codec,
		pipeline.WithLogger(log.Logger),
		pipeline.WithMetrics(metrics.New(reg)),
		pipeline.WithLossPolicy(cfg.LossPolicy, cfg.MaxConceal),
	)
	if err != nil {
		return err
	}

	return app.Run(ctx, cfg.MetricsAddr, reg, p.Run)
}
