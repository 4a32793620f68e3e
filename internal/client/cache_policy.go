package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
)

// LookupStatus classifies a cache read.
type LookupStatus int

const (
	// LookupMiss means the adapter had nothing under the key.
	LookupMiss LookupStatus = iota
	// LookupHit means the stored value is usable.
	LookupHit
	// LookupExpired means the value is older than the expiration window, or
	// carries no timestamp while a window is configured.
	LookupExpired
	// LookupInvalid means the adapter failed or the value is not JSON.
	LookupInvalid
)

// String returns the status name used in log fields.
func (s LookupStatus) String() string {
	switch s {
	case LookupHit:
		return "hit"
	case LookupExpired:
		return "expired"
	case LookupInvalid:
		return "invalid"
	default:
		return "miss"
	}
}

// Lookup is the outcome of reading one cache key. Only a hit carries Data.
type Lookup struct {
	Status LookupStatus
	Data   json.RawMessage
	Err    error
}

// envelope is the persisted shape when an expiration window is configured.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp *int64          `json:"_ts"`
}

// CachePolicy wraps and unwraps cached values and decides their freshness.
type CachePolicy struct {
	// Expiration is the freshness window. Zero stores bare values that never
	// expire.
	Expiration time.Duration
	Clock      func() time.Time
}

// NewCachePolicy returns the policy for expirationMinutes.
func NewCachePolicy(expirationMinutes int, clock func() time.Time) CachePolicy {
	if clock == nil {
		clock = time.Now
	}

	return CachePolicy{
		Expiration: time.Duration(expirationMinutes) * time.Minute,
		Clock:      clock,
	}
}

// Expires reports whether values are wrapped with a timestamp.
func (p CachePolicy) Expires() bool {
	return p.Expiration > 0
}

// Encode returns the bytes to persist for data.
func (p CachePolicy) Encode(data json.RawMessage) ([]byte, error) {
	if !p.Expires() {
		return data, nil
	}

	now := p.now().UnixMilli()

	encoded, err := json.Marshal(envelope{Data: data, Timestamp: &now})
	if err != nil {
		return nil, fmt.Errorf("encoding cache envelope: %w", err)
	}

	return encoded, nil
}

// Decode classifies a stored value. Both the envelope and the bare shape are
// accepted; a bare value read under an expiration window is expired.
func (p CachePolicy) Decode(stored []byte) Lookup {
	if !json.Valid(stored) {
		return Lookup{Status: LookupInvalid, Err: content.ErrMalformedResponse}
	}

	wrapped, isEnvelope := decodeEnvelope(stored)

	if !p.Expires() {
		if isEnvelope {
			return Lookup{Status: LookupHit, Data: wrapped.Data}
		}

		return Lookup{Status: LookupHit, Data: stored}
	}

	if !isEnvelope {
		return Lookup{Status: LookupExpired}
	}

	writtenAt := time.UnixMilli(*wrapped.Timestamp)
	if p.now().Sub(writtenAt) < p.Expiration {
		return Lookup{Status: LookupHit, Data: wrapped.Data}
	}

	return Lookup{Status: LookupExpired}
}

// Read fetches key from cache and classifies it. Adapter errors other than a
// plain miss are reported as invalid.
func (p CachePolicy) Read(ctx context.Context, cache content.Cache, key string) Lookup {
	stored, err := cache.Get(ctx, key)
	if err != nil {
		if isMiss(err) {
			return Lookup{Status: LookupMiss}
		}

		return Lookup{Status: LookupInvalid, Err: err}
	}

	if stored == nil {
		return Lookup{Status: LookupMiss}
	}

	return p.Decode(stored)
}

func (p CachePolicy) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}

	return p.Clock()
}

func decodeEnvelope(stored []byte) (envelope, bool) {
	var fields map[string]json.RawMessage

	err := json.Unmarshal(stored, &fields)
	if err != nil || len(fields) != 2 { //nolint:mnd // data and _ts
		return envelope{}, false
	}

	if _, ok := fields[constants.CacheDataField]; !ok {
		return envelope{}, false
	}

	var wrapped envelope

	err = json.Unmarshal(stored, &wrapped)
	if err != nil || wrapped.Timestamp == nil {
		return envelope{}, false
	}

	return wrapped, true
}

func isMiss(err error) bool {
	return errors.Is(err, content.ErrCacheMiss) ||
		errors.Is(err, content.ErrCacheDisabled) ||
		errors.Is(err, content.ErrKeyNotFoundInChain)
}
