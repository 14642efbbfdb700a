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

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messages built by gofc must decode with our codec and vice versa

func Test_InteropGofcHello(t *testing.T) {
	data := ofp13.NewOfpHello().Serialize()

	m, err := ofp.Parse(data, 0)
	require.NoError(t, err)

	hello, ok := m.(*ofp.Hello)
	require.True(t, ok)
	assert.Equal(t, Version, hello.Version)
	assert.Empty(t, hello.Elements)
}

func Test_InteropGofcFlowMod(t *testing.T) {
	match := ofp13.NewOfpMatch()
	match.Append(ofp13.NewOxmInPort(1))

	apply := ofp13.NewOfpInstructionActions(ofp13.OFPIT_APPLY_ACTIONS)
	apply.Append(ofp13.NewOfpActionOutput(2, 0))

	fm := ofp13.NewOfpFlowModAdd(0x10, 0, 0, 100, ofp13.OFPFF_SEND_FLOW_REM, match, []ofp13.OfpInstruction{apply})

	m, err := ofp.Parse(fm.Serialize(), Version)
	require.NoError(t, err)

	flowMod, ok := m.(*FlowMod)
	require.True(t, ok)
	assert.Equal(t, FlowModAdd, flowMod.Command)
	assert.Equal(t, uint64(0x10), flowMod.Cookie)
	assert.Equal(t, uint16(100), flowMod.Priority)
	assert.Equal(t, FlowFlagSendFlowRemoved, flowMod.Flags)
	assert.Equal(t, ofp.NoBuffer, flowMod.BufferID)

	port, ok := flowMod.Match.InPort()
	require.True(t, ok)
	assert.Equal(t, uint32(1), port)

	require.Len(t, flowMod.Instructions, 1)
	assert.Equal(t, NewApplyActions(&ActionOutput{Port: 2}), flowMod.Instructions[0])
}

func Test_InteropPacketIn(t *testing.T) {
	frame := []byte{
		0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02,
		0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01,
		0x08, 0x00,
	}
	m := &PacketIn{
		Header:   hdr(TypePacketIn, 77),
		BufferID: 0x100,
		TotalLen: uint16(len(frame)),
		Match:    NewMatch(NewOxmInPort(3)),
		Data:     frame,
	}
	data, err := ofp.Validate(m)
	require.NoError(t, err)

	parsed, ok := ofp13.Parse(data).(*ofp13.OfpPacketIn)
	require.True(t, ok)
	assert.Equal(t, uint32(77), parsed.Header.Xid)
	assert.Equal(t, uint32(0x100), parsed.BufferId)
	assert.Equal(t, uint16(len(frame)), parsed.TotalLen)
	assert.Equal(t, frame, []byte(parsed.Data))

	require.Len(t, parsed.Match.OxmFields, 1)
	inPort, ok := parsed.Match.OxmFields[0].(*ofp13.OxmInPort)
	require.True(t, ok)
	assert.Equal(t, uint32(3), inPort.Value)
}
