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
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"

	"github.com/tochemey/courier/errors"
)

// Serializer turns messages into payload bytes and back.
//
// The target type is always known on both ends, so the encoding does not need
// to describe itself. Implementations must be safe for concurrent use.
type Serializer interface {
	// Serialize encodes message
	Serialize(message any) ([]byte, error)
	// Deserialize decodes data into target, a non-nil pointer
	Deserialize(data []byte, target any) error
}

var (
	cborEncOpts = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnixDynamic,
	}
	cborDecOpts = cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8DecodeInvalid,
	}
)

// CBORSerializer is the default Serializer. It encodes with CBOR (RFC 8949).
type CBORSerializer struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

var _ Serializer = (*CBORSerializer)(nil)

// NewCBORSerializer creates a CBORSerializer
func NewCBORSerializer() *CBORSerializer {
	encMode, _ := cborEncOpts.EncMode()
	decMode, _ := cborDecOpts.DecMode()
	return &CBORSerializer{encMode: encMode, decMode: decMode}
}

// Serialize implements Serializer
func (s *CBORSerializer) Serialize(message any) ([]byte, error) {
	bytea, err := s.encMode.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrEncode, err)
	}
	return bytea, nil
}

// Deserialize implements Serializer
func (s *CBORSerializer) Deserialize(data []byte, target any) error {
	if err := s.decMode.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrDecode, err)
	}
	return nil
}

// ProtoSerializer encodes protobuf messages. It is picked automatically for
// every proto.Message whatever the configured Serializer.
type ProtoSerializer struct{}

var _ Serializer = ProtoSerializer{}

// Serialize implements Serializer
func (ProtoSerializer) Serialize(message any) ([]byte, error) {
	msg, ok := message.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a proto message", errors.ErrEncode, message)
	}
	bytea, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrEncode, err)
	}
	return bytea, nil
}

// Deserialize implements Serializer
func (ProtoSerializer) Deserialize(data []byte, target any) error {
	msg, ok := target.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T is not a proto message", errors.ErrDecode, target)
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrDecode, err)
	}
	return nil
}

// encode serializes value, with protobuf when it is a proto message
func encode(serializer Serializer, value any) ([]byte, error) {
	if _, ok := value.(proto.Message); ok {
		return ProtoSerializer{}.Serialize(value)
	}
	return serializer.Serialize(value)
}

// decode deserializes data into a fresh T
func decode[T any](serializer Serializer, data []byte) (T, error) {
	var value T
	if _, ok := any(value).(proto.Message); ok {
		msg := reflect.New(reflect.TypeFor[T]().Elem()).Interface()
		if err := (ProtoSerializer{}).Deserialize(data, msg); err != nil {
			return value, err
		}
		return msg.(T), nil
	}

	if err := serializer.Deserialize(data, &value); err != nil {
		return value, err
	}
	return value, nil
}
