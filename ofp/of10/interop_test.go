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

package of10

import (
	"testing"

	"github.com/skydive-project/goloxi"
	loxi "github.com/skydive-project/goloxi/of10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-vswitch/switchd/ofp"
)

func Test_InteropGoloxiEcho(t *testing.T) {
	echo := loxi.NewEchoRequest()
	echo.SetXid(21)
	echo.SetData([]byte("ping"))

	enc := goloxi.NewEncoder()
	require.NoError(t, echo.Serialize(enc))

	m, err := ofp.Parse(enc.Bytes(), Version)
	require.NoError(t, err)
	assert.Equal(t, &Echo{Header: ofp.Header{Version: Version, Type: TypeEchoRequest, Length: 12, Xid: 21}, Data: []byte("ping")}, m)
}

func Test_InteropFlowMod(t *testing.T) {
	flowMod := &FlowMod{
		Header:      hdr(TypeFlowMod, 5),
		Match:       NewMatch(),
		Command:     FlowModAdd,
		IdleTimeout: 240,
		Priority:    ofp.DefaultPriority,
		BufferID:    ofp.NoBuffer,
		OutPort:     PortNone,
		Flags:       FlowFlagSendFlowRemoved,
		Actions:     []Action{&ActionOutput{Port: 2}},
	}
	flowMod.Match.SetDlDst(hwAddr2)

	data, err := ofp.Validate(flowMod)
	require.NoError(t, err)

	m, err := loxi.DecodeMessage(data)
	require.NoError(t, err)

	add, ok := m.(*loxi.FlowAdd)
	require.True(t, ok)
	assert.Equal(t, uint16(240), add.GetIdleTimeout())
	assert.Equal(t, ofp.DefaultPriority, add.GetPriority())
	assert.Equal(t, ofp.NoBuffer, add.GetBufferId())

	match := add.GetMatch()
	assert.Equal(t, WildcardAll&^WildcardDlDst, uint32(match.GetWildcards()))
	assert.Equal(t, hwAddr2, match.GetEthDst())

	actions := add.GetActions()
	require.Len(t, actions, 1)
	output, ok := actions[0].(*loxi.ActionOutput)
	require.True(t, ok)
	assert.Equal(t, uint16(2), uint16(output.GetPort()))
}

func Test_InteropPacketIn(t *testing.T) {
	pi := &PacketIn{
		Header:   hdr(TypePacketIn, 9),
		BufferID: 0x100,
		TotalLen: 4,
		InPort:   3,
		Data:     []byte{1, 2, 3, 4},
	}
	data, err := ofp.Validate(pi)
	require.NoError(t, err)

	m, err := loxi.DecodeMessage(data)
	require.NoError(t, err)

	parsed, ok := m.(*loxi.PacketIn)
	require.True(t, ok)
	assert.Equal(t, uint32(0x100), parsed.GetBufferId())
	assert.Equal(t, uint16(3), uint16(parsed.GetInPort()))
	assert.Equal(t, []byte{1, 2, 3, 4}, parsed.GetData())
}
