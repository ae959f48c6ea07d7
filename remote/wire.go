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
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tochemey/courier/errors"
)

// compressed frames may outgrow their raw size by a few bytes
const readLimitSlack = 1024

// wire reads and writes frames on a websocket connection.
// Reads happen on a single goroutine, writes are serialized.
type wire struct {
	ws           *websocket.Conn
	codec        codec
	maxFrameSize int
	writeTimeout time.Duration
	mu           sync.Mutex
}

func newWire(ws *websocket.Conn, codec codec, config *Config) *wire {
	ws.SetReadLimit(int64(config.maxFrameSize) + readLimitSlack)
	return &wire{
		ws:           ws,
		codec:        codec,
		maxFrameSize: config.maxFrameSize,
		writeTimeout: config.writeTimeout,
	}
}

// read returns the next binary message. Text messages are skipped,
// control messages are handled by the websocket connection itself.
func (w *wire) read() ([]byte, error) {
	for {
		kind, data, err := w.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// decode turns a message into a frame. A failure concerns that message only.
func (w *wire) decode(data []byte) (*Frame, error) {
	raw, err := w.codec.decompress(data, w.maxFrameSize)
	if err != nil {
		return nil, err
	}
	frame := new(Frame)
	if err := frame.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return frame, nil
}

// write sends frame. ErrFrameTooLarge leaves the connection usable,
// any other error means the connection is broken.
func (w *wire) write(frame *Frame) error {
	data, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	if len(data) > w.maxFrameSize {
		return errors.ErrFrameTooLarge
	}

	if data, err = w.codec.compress(data); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ws.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
		return err
	}
	return w.ws.WriteMessage(websocket.BinaryMessage, data)
}

// close sends a close message, best effort, and closes the connection
func (w *wire) close() error {
	w.mu.Lock()
	_ = w.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(w.writeTimeout))
	w.mu.Unlock()
	return w.ws.Close()
}
