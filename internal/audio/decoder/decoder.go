package decoder

import (
	"faraday-voice/internal/audio/config"
)

// Decoder expands one compressed payload into pcm and returns the number of
// samples per channel written. DecodePLC synthesizes a frame for a packet
// that never arrived. Not safe for concurrent use.
type Decoder interface {
	Decode(payload []byte, pcm []int16) (int, error)
	DecodePLC(pcm []int16) error
}

func New(cfg config.AudioConfig) (Decoder, error) {
	return NewOpusDecoder(cfg.SampleRate, cfg.Channels)
}
