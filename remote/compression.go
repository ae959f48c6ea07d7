// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package remote

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/tochemey/courier/errors"
)

// Compression is the algorithm applied to every frame written on a connection.
// Both ends must agree on it: a mismatch produces unreadable frames.
type Compression int

const (
	// NoCompression sends frames as they are. This is the default.
	NoCompression Compression = iota
	// ZstdCompression compresses frames with Zstandard
	ZstdCompression
	// BrotliCompression compresses frames with Brotli. It trades speed for ratio.
	BrotliCompression
)

// String returns the algorithm name
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case ZstdCompression:
		return "zstd"
	case BrotliCompression:
		return "brotli"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// codec compresses whole frames. maxSize bounds the decompressed output.
type codec interface {
	compress(data []byte) ([]byte, error)
	decompress(data []byte, maxSize int) ([]byte, error)
	close()
}

func newCodec(compression Compression) (codec, error) {
	switch compression {
	case NoCompression:
		return identityCodec{}, nil
	case ZstdCompression:
		return newZstdCodec()
	case BrotliCompression:
		return newBrotliCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}

type identityCodec struct{}

func (identityCodec) compress(data []byte) ([]byte, error) {
	return data, nil
}

func (identityCodec) close() {}

func (identityCodec) decompress(data []byte, maxSize int) ([]byte, error) {
	if len(data) > maxSize {
		return nil, errors.ErrFrameTooLarge
	}
	return data, nil
}

// zstdCodec shares one encoder and one decoder: EncodeAll and DecodeAll are safe for concurrent use
type zstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithLowerEncoderMem(true),
		zstd.WithZeroFrames(true))
	if err != nil {
		return nil, err
	}

	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(64<<20))
	if err != nil {
		_ = encoder.Close()
		return nil, err
	}
	return &zstdCodec{encoder: encoder, decoder: decoder}, nil
}

func (z *zstdCodec) compress(data []byte) ([]byte, error) {
	return z.encoder.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func (z *zstdCodec) close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

func (z *zstdCodec) decompress(data []byte, maxSize int) ([]byte, error) {
	out, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFrame, err)
	}
	if len(out) > maxSize {
		return nil, errors.ErrFrameTooLarge
	}
	return out, nil
}

// brotliCodec pools its writers and readers
type brotliCodec struct {
	writers sync.Pool
	readers sync.Pool
}

func newBrotliCodec() *brotliCodec {
	return &brotliCodec{
		writers: sync.Pool{New: func() any { return brotli.NewWriterLevel(nil, brotli.DefaultCompression) }},
		readers: sync.Pool{New: func() any { return brotli.NewReader(nil) }},
	}
}

func (b *brotliCodec) compress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(data)/2+64))
	writer := b.writers.Get().(*brotli.Writer)
	defer b.writers.Put(writer)

	writer.Reset(buf)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *brotliCodec) close() {}

func (b *brotliCodec) decompress(data []byte, maxSize int) ([]byte, error) {
	reader := b.readers.Get().(*brotli.Reader)
	defer b.readers.Put(reader)

	if err := reader.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFrame, err)
	}

	out, err := io.ReadAll(io.LimitReader(reader, int64(maxSize)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFrame, err)
	}
	if len(out) > maxSize {
		return nil, errors.ErrFrameTooLarge
	}
	return out, nil
}
