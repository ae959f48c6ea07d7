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
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/tochemey/courier/errors"
)

// frameHeaderSize is fingerprint(8) + correlation id(16) + payload length(4)
const frameHeaderSize = 8 + 16 + 4

// Frame is the unit exchanged over a connection.
//
// ┌─────────────┬────────────────┬─────────────┬─────────┐
// │ fingerprint │ correlation id │ payload len │ payload │
// │ u64 LE      │ 16 bytes       │ u32 LE      │ N bytes │
// └─────────────┴────────────────┴─────────────┴─────────┘
//
// Requests carry the fingerprint of their message type. Replies carry
// ReplyFingerprint and the correlation id of the request they answer.
type Frame struct {
	Fingerprint   uint64
	CorrelationID uuid.UUID
	Payload       []byte
}

// IsReply reports whether the frame answers a request
func (f *Frame) IsReply() bool {
	return f.Fingerprint == ReplyFingerprint
}

// MarshalBinary encodes the frame
func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, frameHeaderSize+len(f.Payload))
	binary.LittleEndian.PutUint64(buf[0:8], f.Fingerprint)
	copy(buf[8:24], f.CorrelationID[:])
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(f.Payload)))
	copy(buf[frameHeaderSize:], f.Payload)
	return buf, nil
}

// UnmarshalBinary decodes the frame. The payload aliases data.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < frameHeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", errors.ErrInvalidFrame, len(data))
	}

	size := binary.LittleEndian.Uint32(data[24:28])
	if int(size) != len(data)-frameHeaderSize {
		return fmt.Errorf("%w: payload length %d does not match %d remaining bytes",
			errors.ErrInvalidFrame, size, len(data)-frameHeaderSize)
	}

	f.Fingerprint = binary.LittleEndian.Uint64(data[0:8])
	copy(f.CorrelationID[:], data[8:24])
	f.Payload = data[frameHeaderSize:]
	return nil
}
