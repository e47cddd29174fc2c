package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// valueCodec stores values as zstd-compressed JSON.
// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
type valueCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newValueCodec() (*valueCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &valueCodec{enc: enc, dec: dec}, nil
}

func (c *valueCodec) marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, nil), nil
}

func (c *valueCodec) unmarshal(data []byte, v interface{}) error {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("zstd decode: %w", err)
	}
	return json.Unmarshal(raw, v)
}

func (c *valueCodec) close() {
	c.enc.Close()
	c.dec.Close()
}
