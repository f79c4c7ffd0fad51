// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datachannel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Envelope is the JSON payload published on a channel topic.
type Envelope struct {
	Type      *StructuredType `json:"type"`
	Value     any             `json:"value"`
	Timestamp int64           `json:"timestamp"` // microseconds since epoch
}

// ErrMissingType is returned when an envelope carries no structured type.
var ErrMissingType = errors.New("envelope has no type")

// EncodeEnvelope marshals value together with its structured type.
// A zero timestamp is replaced by the current time.
func EncodeEnvelope(st StructuredType, value any, timestamp int64) ([]byte, error) {
	if timestamp == 0 {
		timestamp = time.Now().UnixMicro()
	}
	payload, err := json.Marshal(Envelope{Type: &st, Value: value, Timestamp: timestamp})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return payload, nil
}

// DecodeEnvelope unmarshals an envelope. Numbers inside the value are kept as
// json.Number so no precision is lost before decoding.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == nil {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}
