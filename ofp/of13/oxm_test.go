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
	"testing"

	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DecodeOxmList(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		expect []Oxm
		err    error
	}{
		{
			name: "eth dst",
			data: []byte{0x80, 0x00, 0x06, 0x06, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02},
			expect: []Oxm{
				{Class: OxmClassOpenFlowBasic, Field: OxmEthDst, Value: []byte(hwAddr2)},
			},
		},
		{
			name: "masked eth src",
			data: []byte{
				0x80, 0x00, 0x09, 0x0c,
				0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01,
				0xff, 0xff, 0xff, 0x00, 0x00, 0x00,
			},
			expect: []Oxm{
				{
					Class:   OxmClassOpenFlowBasic,
					Field:   OxmEthSrc,
					HasMask: true,
					Value:   []byte(hwAddr1),
					Mask:    []byte{0xff, 0xff, 0xff, 0x00, 0x00, 0x00},
				},
			},
		},
		{
			name: "in port and nxm field",
			data: []byte{
				0x80, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x07,
				0x00, 0x01, 0x02, 0x02, 0x12, 0x34,
			},
			expect: []Oxm{
				{Class: OxmClassOpenFlowBasic, Field: OxmInPort, Value: []byte{0x00, 0x00, 0x00, 0x07}},
				{Class: OxmClassNXM1, Field: 1, Value: []byte{0x12, 0x34}},
			},
		},
		{
			name: "eth dst with five bytes",
			data: []byte{0x80, 0x00, 0x06, 0x05, 0xaa, 0xbb, 0xcc, 0xdd, 0xee},
			err:  ofp.ErrMalformedMessage,
		},
		{
			name: "length past the buffer",
			data: []byte{0x80, 0x00, 0x06, 0x06, 0xaa, 0xbb, 0xcc},
			err:  ofp.ErrTruncated,
		},
		{
			name: "short header",
			data: []byte{0x80, 0x00},
			err:  ofp.ErrTruncated,
		},
		{
			name: "unknown basic field",
			data: []byte{0x80, 0x00, 0x64, 0x04, 0x00, 0x00, 0x00, 0x00},
			err:  ofp.ErrUnsupportedField,
		},
		{
			name: "masked experimenter field with odd length",
			data: []byte{0xff, 0xff, 0x03, 0x03, 0x00, 0x00, 0x00},
			err:  ofp.ErrMalformedMessage,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			list, err := DecodeOxmList(test.data)
			if test.err != nil {
				assert.Equal(t, test.err, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expect, list)

			w := ofp.NewWriter(len(test.data))
			EncodeOxmList(w, list)
			assert.Equal(t, test.data, w.Bytes())
		})
	}
}

func Test_OxmVlanVID(t *testing.T) {
	o := NewOxmVlanVID(10)
	assert.Equal(t, []byte{0x10, 0x0a}, o.Value)

	vid, present := o.VlanVID()
	assert.True(t, present)
	assert.Equal(t, uint16(10), vid)
	assert.Equal(t, "vlan_vid=10", o.String())

	none := Oxm{Class: OxmClassOpenFlowBasic, Field: OxmVlanVID, Value: []byte{0x00, 0x00}}
	_, present = none.VlanVID()
	assert.False(t, present)
}

func Test_MatchAccessors(t *testing.T) {
	m := NewMatch(NewOxmEthDst(hwAddr2), NewOxmInPort(5))

	port, ok := m.InPort()
	assert.True(t, ok)
	assert.Equal(t, uint32(5), port)

	addr, ok := m.EthDst()
	assert.True(t, ok)
	assert.Equal(t, hwAddr2.String(), addr.String())

	assert.Equal(t, 4+10+8, m.Len())

	_, ok = NewMatch().InPort()
	assert.False(t, ok)
}

func Test_OxmHeaderField(t *testing.T) {
	class, field := OxmHeaderField(NewOxmEthSrc(hwAddr1).TypeHeader())
	assert.Equal(t, OxmClassOpenFlowBasic, class)
	assert.Equal(t, OxmEthSrc, field)
}
