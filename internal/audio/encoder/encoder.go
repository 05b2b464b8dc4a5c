package encoder

import (
	"fmt"

	"faraday-voice/internal/audio/config"
)

// Encoder compresses one PCM frame into out and returns the number of bytes
// written. Implementations keep codec state between calls and are not safe
// for concurrent use.
type Encoder interface {
	Encode(pcm []int16, out []byte) (int, error)
}

// New creates the encoder session described by cfg.
func New(cfg config.AudioConfig) (Encoder, error) {
	enc, err := NewOpusEncoder(cfg.SampleRate, cfg.Channels, cfg.FrameSamples)
	if err != nil {
		return nil, err
	}
	if err := enc.Configure(cfg.Bitrate, cfg.VBR); err != nil {
		return nil, fmt.Errorf("failed to configure opus encoder: %w", err)
	}
	return enc, nil
}
