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

package of13

import (
	"encoding/hex"
	"testing"

	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SetFieldRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		expect []Oxm
	}{
		{
			name:   "eth dst then eth src",
			data:   "0019001880000606aabbccddee0280000806aabbccddee01",
			expect: []Oxm{NewOxmEthDst(hwAddr2), NewOxmEthSrc(hwAddr1)},
		},
		{
			name:   "single field with padding",
			data:   "0019001080000606aabbccddee020000",
			expect: []Oxm{NewOxmEthDst(hwAddr2)},
		},
		{
			name:   "vlan vid",
			data:   "0019001080000c021000000000000000",
			expect: []Oxm{NewOxmVlanVID(0)},
		},
		{
			name:   "field value ending in zero bytes",
			data:   "001900108000000400000000" + "00000000",
			expect: []Oxm{NewOxmInPort(0)},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := hex.DecodeString(test.data)
			require.NoError(t, err)

			actions, err := DecodeActions(data)
			require.NoError(t, err)
			require.Len(t, actions, 1)

			set, ok := actions[0].(*ActionSetField)
			require.True(t, ok)
			assert.Equal(t, test.expect, set.Fields)
			assert.Equal(t, len(data), set.Len())

			w := ofp.NewWriter(len(data))
			EncodeActions(w, actions)
			assert.Equal(t, data, w.Bytes())
		})
	}
}

func Test_SetFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{
			name: "no field",
			data: "0019000800000000",
			err:  ofp.ErrMalformedMessage,
		},
		{
			name: "eight bytes of padding",
			data: "0019001880000606aabbccddee02000000000000" + "00000000",
			err:  ofp.ErrMalformedMessage,
		},
		{
			name: "field past the action",
			data: "0019001080000806aabbccddee01ffff",
			err:  ofp.ErrTruncated,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := hex.DecodeString(test.data)
			require.NoError(t, err)

			_, err = DecodeActions(data)
			require.Error(t, err)
			assert.Equal(t, test.err, errors.Cause(err))
		})
	}
}
