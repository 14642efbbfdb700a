/*
Licensed to the Apache Software Foundation (ASF) under one
or more contributor license agreements.  See the NOTICE file
distributed with this work for additional information
regarding copyright ownership.  The ASF licenses this file
to you under the Apache License, Version 2.0 (the
"License"); you may not use this file except in compliance
with the License.  You may obtain a copy of the License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing,
software distributed under the License is distributed on an
"AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
KIND, either express or implied.  See the License for the
specific language governing permissions and limitations
under the License.
*/

package ofp

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ValidateHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   Header
		expected uint8
		err      error
	}{
		{
			name:     "1.3 packet in, pinned to 1.3",
			header:   Header{Version: Version13, Type: TypePacketIn, Length: 32},
			expected: Version13,
		},
		{
			name:     "1.0 hello, not pinned",
			header:   Header{Version: Version10, Type: TypeHello, Length: 8},
			expected: 0,
		},
		{
			name:     "1.0 message on a 1.3 connection",
			header:   Header{Version: Version10, Type: TypeHello, Length: 8},
			expected: Version13,
			err:      ErrBadVersion,
		},
		{
			name:     "unsupported version",
			header:   Header{Version: 0x02, Type: TypeHello, Length: 8},
			expected: 0,
			err:      ErrBadVersion,
		},
		{
			name:     "last 1.0 type",
			header:   Header{Version: Version10, Type: 21, Length: 8},
			expected: Version10,
		},
		{
			name:     "1.0 type out of range",
			header:   Header{Version: Version10, Type: 22, Length: 8},
			expected: Version10,
			err:      ErrBadType,
		},
		{
			name:     "1.3 meter mod is the last type",
			header:   Header{Version: Version13, Type: 29, Length: 8},
			expected: Version13,
		},
		{
			name:     "1.3 type out of range",
			header:   Header{Version: Version13, Type: 30, Length: 8},
			expected: Version13,
			err:      ErrBadType,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateHeader(&test.header, test.expected)
			if test.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, test.err, errors.Cause(err))
		})
	}
}

func Test_ValidateHeaderExhaustive(t *testing.T) {
	for _, expected := range []uint8{0, Version10, Version13} {
		for version := 0; version < 8; version++ {
			for typ := 0; typ < 64; typ++ {
				h := Header{Version: uint8(version), Type: uint8(typ), Length: HeaderLen}

				max, supported := TypeMax(h.Version)
				want := supported && h.Type < max && (expected == 0 || h.Version == expected)

				err := ValidateHeader(&h, expected)
				if want != (err == nil) {
					t.Errorf("version=%#02x type=%d expected=%#02x: got err %v", version, typ, expected, err)
				}
			}
		}
	}
}

func Test_HeaderUnmarshal(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		header Header
		err    error
	}{
		{
			name:   "echo request",
			data:   []byte{0x04, 0x02, 0x00, 0x08, 0x00, 0x00, 0x00, 0x2a},
			header: Header{Version: Version13, Type: TypeEchoRequest, Length: 8, Xid: 42},
		},
		{
			name: "short buffer",
			data: []byte{0x04, 0x02, 0x00},
			err:  ErrTruncated,
		},
		{
			name: "length below header size",
			data: []byte{0x04, 0x02, 0x00, 0x04, 0x00, 0x00, 0x00, 0x01},
			err:  ErrMalformedMessage,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var h Header
			err := h.UnmarshalBinary(test.data)
			if test.err != nil {
				assert.Equal(t, test.err, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.header, h)
			assert.Equal(t, int(test.header.Length), MessageLength(test.data))
		})
	}
}

func Test_HeaderMarshal(t *testing.T) {
	h := &Header{Version: Version10, Type: TypeFeaturesRequest, Xid: 7}
	data, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x05, 0x00, 0x08, 0x00, 0x00, 0x00, 0x07}, data)
	assert.Equal(t, uint16(HeaderLen), h.Length)
}

func Test_MalformedError(t *testing.T) {
	h := Header{Version: Version13, Type: TypePacketIn, Length: 24, Xid: 3}
	err := Malformed(h, errors.Wrap(ErrLoopDetected, "action type 0"))

	assert.Equal(t, ErrMalformedMessage, errors.Cause(err))
	assert.Equal(t, ErrLoopDetected, Reason(err))
	assert.Contains(t, err.Error(), fmt.Sprintf("xid=%d", h.Xid))
	assert.Nil(t, Malformed(h, nil))
	assert.Equal(t, ErrTruncated, Reason(errors.Wrap(ErrTruncated, "header")))
}
