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
	"github.com/tochemey/courier/errors"
)

// replyCode tells how a request was handled
type replyCode uint8

const (
	codeOK replyCode = iota
	codeForwardToLocal
	codeHandlerPanic
	codeHandlerError
	codeDecode
	codeEncode
)

// reply is the payload of every reply frame. It is always CBOR encoded
// so that failures can travel back whatever the configured Serializer.
type reply struct {
	Code    replyCode `cbor:"1,keyasint"`
	Message string    `cbor:"2,keyasint,omitempty"`
	Body    []byte    `cbor:"3,keyasint,omitempty"`
}

var replySerializer = NewCBORSerializer()

func success(body []byte) reply {
	return reply{Code: codeOK, Body: body}
}

func failure(code replyCode, err error) reply {
	return reply{Code: code, Message: err.Error()}
}

func (r reply) marshal() ([]byte, error) {
	return replySerializer.Serialize(r)
}

func unmarshalReply(data []byte) (reply, error) {
	var r reply
	err := replySerializer.Deserialize(data, &r)
	return r, err
}

// err returns the failure carried by the reply as a *errors.RemoteError
func (r reply) err() error {
	var kind error
	switch r.Code {
	case codeOK:
		return nil
	case codeForwardToLocal:
		kind = errors.ErrForwardToLocal
	case codeHandlerPanic:
		kind = errors.ErrHandlerPanic
	case codeHandlerError:
		kind = errors.ErrRemoteHandler
	case codeDecode:
		kind = errors.ErrDecode
	case codeEncode:
		kind = errors.ErrEncode
	default:
		kind = errors.ErrInvalidFrame
	}
	return errors.NewRemoteError(kind, r.Message)
}
