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

	"google.golang.org/protobuf/proto"

	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/hash"
)

// RemoteType is implemented by messages that can travel between processes.
//
// The identity is a stable, namespaced string such as "billing::invoice::total".
// Its hash is the fingerprint carried on the wire. Two types sharing an
// identity are expected to decode each other's bytes; nothing checks it.
type RemoteType interface {
	RemoteIdentity() string
}

// ReplyFingerprint marks a frame as a reply. No message type may hash to it.
const ReplyFingerprint uint64 = 0

var builtinIdentities = map[reflect.Type]string{
	reflect.TypeFor[string]():   "builtin::string",
	reflect.TypeFor[bool]():     "builtin::bool",
	reflect.TypeFor[int]():      "builtin::int",
	reflect.TypeFor[int8]():     "builtin::int8",
	reflect.TypeFor[int16]():    "builtin::int16",
	reflect.TypeFor[int32]():    "builtin::int32",
	reflect.TypeFor[int64]():    "builtin::int64",
	reflect.TypeFor[uint]():     "builtin::uint",
	reflect.TypeFor[uint8]():    "builtin::uint8",
	reflect.TypeFor[uint16]():   "builtin::uint16",
	reflect.TypeFor[uint32]():   "builtin::uint32",
	reflect.TypeFor[uint64]():   "builtin::uint64",
	reflect.TypeFor[float32]():  "builtin::float32",
	reflect.TypeFor[float64]():  "builtin::float64",
	reflect.TypeFor[[]byte]():   "builtin::bytes",
	reflect.TypeFor[struct{}](): "builtin::unit",
}

// IdentityOf returns the remote identity of T.
//
// T either implements RemoteType, is a protobuf message (identified by its full
// name under "proto::") or is one of the builtin scalars.
func IdentityOf[T any]() (string, error) {
	typ := reflect.TypeFor[T]()
	if identity, ok := builtinIdentities[typ]; ok {
		return identity, nil
	}

	var value any
	switch typ.Kind() {
	case reflect.Interface:
		return "", fmt.Errorf("%w: %s", errors.ErrNotRemoteType, typ)
	case reflect.Pointer:
		value = reflect.New(typ.Elem()).Interface()
	default:
		// pointer receivers
		if remoteType, ok := reflect.New(typ).Interface().(RemoteType); ok {
			return remoteType.RemoteIdentity(), nil
		}
		value = reflect.New(typ).Elem().Interface()
	}

	switch v := value.(type) {
	case RemoteType:
		return v.RemoteIdentity(), nil
	case proto.Message:
		return "proto::" + string(v.ProtoReflect().Descriptor().FullName()), nil
	default:
		return "", fmt.Errorf("%w: %s", errors.ErrNotRemoteType, typ)
	}
}

// Fingerprint returns the wire fingerprint of T computed with hasher,
// or with the default xxh3 hasher when nil.
func Fingerprint[T any](hasher hash.Hasher) (uint64, error) {
	identity, err := IdentityOf[T]()
	if err != nil {
		return 0, err
	}
	return fingerprintOf(hasher, identity), nil
}

func fingerprintOf(hasher hash.Hasher, identity string) uint64 {
	if hasher == nil {
		hasher = hash.DefaultHasher()
	}
	return hasher.HashCode([]byte(identity))
}
