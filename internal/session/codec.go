// internal/session/codec.go
package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// lineCodec stores line arrays as JSON, zstd-compressed once they exceed
// threshold bytes. Encoders and decoders are pooled.
type lineCodec struct {
	threshold int

	encoders sync.Pool
	decoders sync.Pool
}

func newLineCodec(threshold int) (*lineCodec, error) {
	// Validate options once up front; pooled constructors cannot report errors.
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating test encoder: %w", err)
	}
	enc.Close()

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating test decoder: %w", err)
	}
	dec.Close()

	return &lineCodec{
		threshold: threshold,
		encoders: sync.Pool{
			New: func() interface{} {
				enc, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
				return enc
			},
		},
		decoders: sync.Pool{
			New: func() interface{} {
				dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				return dec
			},
		},
	}, nil
}

func (c *lineCodec) encode(lines []string) ([]byte, error) {
	if lines == nil {
		lines = []string{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshaling lines: %w", err)
	}
	if len(raw) < c.threshold {
		return raw, nil
	}

	enc := c.encoders.Get().(*zstd.Encoder)
	defer c.encoders.Put(enc)
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func (c *lineCodec) decode(data []byte) ([]string, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec := c.decoders.Get().(*zstd.Decoder)
		defer c.decoders.Put(dec)

		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing lines: %w", err)
		}
		data = raw
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshaling lines: %w", err)
	}
	return lines, nil
}
