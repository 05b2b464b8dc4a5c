// Command opusenc reads 16 kHz mono s16le PCM on stdin and writes 32-byte
// sequenced Opus frames on stdout, or to RADIO_LINK when set.
package main

import (
	"context"
	"io"
	"os"

	"faraday-voice/internal/app"
	"faraday-voice/internal/audio/config"
	"faraday-voice/internal/audio/encoder"
	"faraday-voice/internal/audio/pipeline"
	"faraday-voice/internal/audio/resample"
	"faraday-voice/internal/link"
	"faraday-voice/internal/metrics"
	"faraday-voice/internal/wire"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	app.Exit("opusenc", run())
}

func run() error {
	ctx, stop := app.SignalContext(context.Background())
	defer stop()
	app.CloseOnDone(ctx, os.Stdin)

	cfg, err := app.Setup(ctx)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()

	var src io.Reader = os.Stdin
	if cfg.NeedsResample() {
		r, err := resample.NewReader(os.Stdin, cfg.PCMRate)
		if err != nil {
			return err
		}
		defer r.Close()
		src = r
		log.Info().Int("from", cfg.PCMRate).Int("to", config.SampleRate).Msg("Resampling input")
	}

	var dst wire.FrameWriter = wire.NewWriter(os.Stdout)
	if cfg.Link != "" {
		addr, err := link.ParseAddr(cfg.Link)
		if err != nil {
			return err
		}
		sender, err := link.Dial(addr)
		if err != nil {
			return err
		}
		defer sender.Close()
		dst = sender
		log.Info().Stringer("remote", sender.RemoteMultiaddr()).Msg("Sending frames over link")
	}

	codec, err := encoder.New(config.NewRadioConfig())
	if err != nil {
		return err
	}
	p, err := pipeline.NewEncoder(src, dst, codec,
		pipeline.WithLogger(log.Logger),
		pipeline.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		return err
	}

	return app.Run(ctx, cfg.MetricsAddr, reg, p.Run)
}
