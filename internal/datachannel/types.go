// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datachannel

import (
	"fmt"
	"strings"
)

// FormatStruct marks values laid out according to a named struct schema.
const FormatStruct = "struct"

// StructuredType describes how to interpret the value carried by a channel.
type StructuredType struct {
	Format  string `json:"format"`
	Name    string `json:"name"`
	IsArray bool   `json:"isArray"`
}

// String renders the descriptor as "format:Name" with a "[]" suffix for arrays.
func (st StructuredType) String() string {
	s := st.Format + ":" + st.Name
	if st.IsArray {
		s += "[]"
	}
	return s
}

// ParseStructuredType parses the form produced by StructuredType.String.
func ParseStructuredType(s string) (StructuredType, error) {
	s = strings.TrimSpace(s)
	format, name, ok := strings.Cut(s, ":")
	if !ok {
		return StructuredType{}, fmt.Errorf("invalid structured type %q: missing ':'", s)
	}

	st := StructuredType{Format: strings.TrimSpace(format)}
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "[]") {
		st.IsArray = true
		name = strings.TrimSpace(strings.TrimSuffix(name, "[]"))
	}
	st.Name = name

	if st.Format == "" {
		return StructuredType{}, fmt.Errorf("invalid structured type %q: empty format", s)
	}
	if st.Name == "" {
		return StructuredType{}, fmt.Errorf("invalid structured type %q: empty name", s)
	}
	return st, nil
}

// Record is a single sample of a data channel.
type Record struct {
	Type      *StructuredType `json:"type,omitempty"`
	Value     any             `json:"value"`
	Timestamp int64           `json:"timestamp"` // microseconds since epoch
	Seq       uint64          `json:"seq"`       // ordering position within the channel
}
