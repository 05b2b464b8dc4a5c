package decoder

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

type OpusDecoder struct {
	dec        *opus.Decoder
	sampleRate int
	channels   int
}

func NewOpusDecoder(sampleRate, channels int) (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &OpusDecoder{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Decode decodes one opus packet into pcm. len(pcm) bounds the frame size.
func (d *OpusDecoder) Decode(packet []byte, pcm []int16) (int, error) {
	n, err := d.dec.Decode(packet, pcm)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// DecodePLC fills pcm with opus packet loss concealment for one missing
// packet. len(pcm) must match the frame duration of the lost packet.
func (d *OpusDecoder) DecodePLC(pcm []int16) error {
	return d.dec.DecodePLC(pcm)
}
