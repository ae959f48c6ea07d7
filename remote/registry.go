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
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/tochemey/courier/actor"
	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/hash"
	"github.com/tochemey/courier/internal/xsync"
)

// handler decodes a request payload, forwards it to a local address and encodes the reply
type handler func(ctx context.Context, payload []byte) reply

type entry struct {
	identity string
	address  *actor.Address
	handle   handler
}

// Registry maps message fingerprints to the local addresses handling them.
// It holds its own Address on every registered pool until Close.
type Registry struct {
	mu         sync.Mutex
	hasher     hash.Hasher
	serializer Serializer
	entries    *xsync.Map[uint64, *entry]
}

// NewRegistry creates a Registry. Nil arguments fall back to the xxh3 hasher
// and the CBOR serializer.
func NewRegistry(hasher hash.Hasher, serializer Serializer) *Registry {
	if hasher == nil {
		hasher = hash.DefaultHasher()
	}
	if serializer == nil {
		serializer = NewCBORSerializer()
	}
	return &Registry{
		hasher:     hasher,
		serializer: serializer,
		entries:    xsync.NewMap[uint64, *entry](),
	}
}

// Register exposes address for messages of type M answered with R.
//
// Registering the same identity again replaces the previous address. It fails with
// ErrReservedFingerprint when the identity hashes to the reply fingerprint and with
// ErrFingerprintCollision when another identity already owns the fingerprint.
func Register[M, R any](registry *Registry, address *actor.Address) error {
	if address == nil || address.Released() {
		return errors.ErrAddressReleased
	}

	identity, err := IdentityOf[M]()
	if err != nil {
		return err
	}

	fingerprint := registry.Fingerprint(identity)
	if fingerprint == ReplyFingerprint {
		return fmt.Errorf("%w: %s", errors.ErrReservedFingerprint, identity)
	}

	local := address.Clone()
	serializer := registry.serializer
	next := &entry{
		identity: identity,
		address:  local,
		handle: func(ctx context.Context, payload []byte) reply {
			message, err := decode[M](serializer, payload)
			if err != nil {
				return failure(codeDecode, err)
			}

			handle, err := actor.Send[R](ctx, local, message)
			if err != nil {
				return failure(codeForwardToLocal, err)
			}

			value, err := handle.Recv(ctx)
			if err != nil {
				switch {
				case stderrors.Is(err, errors.ErrHandlerPanic):
					return failure(codeHandlerPanic, err)
				case ctx.Err() != nil:
					return failure(codeForwardToLocal, err)
				default:
					return failure(codeHandlerError, err)
				}
			}

			body, err := encode(serializer, value)
			if err != nil {
				return failure(codeEncode, err)
			}
			return success(body)
		},
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if current, ok := registry.entries.Get(fingerprint); ok {
		if current.identity != identity {
			local.Release()
			return fmt.Errorf("%w: %s and %s share fingerprint %d",
				errors.ErrFingerprintCollision, current.identity, identity, fingerprint)
		}
		current.address.Release()
	}

	registry.entries.Set(fingerprint, next)
	return nil
}

// Fingerprint returns the fingerprint of identity
func (r *Registry) Fingerprint(identity string) uint64 {
	return fingerprintOf(r.hasher, identity)
}

// Identity returns the identity registered under fingerprint
func (r *Registry) Identity(fingerprint uint64) (string, bool) {
	current, ok := r.entries.Get(fingerprint)
	if !ok {
		return "", false
	}
	return current.identity, true
}

// Len returns the number of registered identities
func (r *Registry) Len() int {
	return r.entries.Len()
}

func (r *Registry) lookup(fingerprint uint64) (handler, bool) {
	current, ok := r.entries.Get(fingerprint)
	if !ok {
		return nil, false
	}
	return current.handle, true
}

// Close releases every registered address
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, current := range r.entries.Drain() {
		current.address.Release()
	}
}
