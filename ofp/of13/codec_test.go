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
	"net"
	"testing"

	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hwAddr1 = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01}
	hwAddr2 = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02}
)

func hdr(typ uint8, xid uint32) ofp.Header {
	return ofp.Header{Version: Version, Type: typ, Xid: xid}
}

func Test_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ofp.Message
	}{
		{
			name: "features request",
			msg:  NewEmpty(TypeFeaturesRequest, 1),
		},
		{
			name: "barrier reply",
			msg:  NewEmpty(TypeBarrierReply, 2),
		},
		{
			name: "error with data",
			msg: &Error{
				Header:  hdr(TypeError, 3),
				ErrType: ErrTypeBadRequest,
				Code:    BadRequestBadType,
				Data:    []byte{0x04, 0xff, 0x00, 0x08, 0x00, 0x00, 0x00, 0x01},
			},
		},
		{
			name: "echo request without payload",
			msg:  &Echo{Header: hdr(TypeEchoRequest, 4)},
		},
		{
			name: "echo reply with payload",
			msg:  &Echo{Header: hdr(TypeEchoReply, 5), Data: []byte("ping")},
		},
		{
			name: "features reply",
			msg: &FeaturesReply{
				Header:       hdr(TypeFeaturesReply, 6),
				DatapathID:   0x0000aabbccddeeff,
				NBuffers:     256,
				NTables:      254,
				Capabilities: 0x4f,
			},
		},
		{
			name: "set config",
			msg:  &SwitchConfig{Header: hdr(TypeSetConfig, 7), MissSendLen: ControllerNoBuffer},
		},
		{
			name: "packet in",
			msg: &PacketIn{
				Header:   hdr(TypePacketIn, 8),
				BufferID: ofp.NoBuffer,
				TotalLen: 14,
				TableID:  0,
				Cookie:   0x1234,
				Match:    NewMatch(NewOxmInPort(1)),
				Data:     append(append([]byte{}, hwAddr2...), append(hwAddr1, 0x08, 0x00)...),
			},
		},
		{
			name: "packet out with buffer",
			msg: &PacketOut{
				Header:   hdr(TypePacketOut, 9),
				BufferID: 0x42,
				InPort:   1,
				Actions:  []Action{&ActionOutput{Port: ofp.PortFlood}},
			},
		},
		{
			name: "flow mod",
			msg: &FlowMod{
				Header:      hdr(TypeFlowMod, 10),
				Cookie:      1,
				TableID:     2,
				Command:     FlowModAdd,
				IdleTimeout: 240,
				Priority:    ofp.DefaultPriority,
				BufferID:    ofp.NoBuffer,
				OutPort:     ofp.PortAny,
				OutGroup:    GroupAny,
				Flags:       FlowFlagSendFlowRemoved,
				Match:       NewMatch(NewOxmInPort(1), NewOxmEthDst(hwAddr2)),
				Instructions: []Instruction{
					NewApplyActions(
						&ActionSetField{Fields: []Oxm{NewOxmVlanVID(10)}},
						&ActionBare{Type: ActionTypeDecNwTTL},
						&ActionOutput{Port: 2},
					),
					&InstructionWriteMetadata{Metadata: 7, MetadataMask: 0xff},
					&InstructionGotoTable{TableID: 3},
				},
			},
		},
		{
			name: "flow mod with every fixed size action",
			msg: &FlowMod{
				Header:   hdr(TypeFlowMod, 11),
				Command:  FlowModModify,
				BufferID: ofp.NoBuffer,
				OutPort:  ofp.PortAny,
				OutGroup: GroupAny,
				Instructions: []Instruction{
					&InstructionActions{
						Type: InstructionTypeWriteActions,
						Actions: []Action{
							&ActionTTL{Type: ActionTypeSetNwTTL, TTL: 64},
							&ActionEtherType{Type: ActionTypePushVlan, EtherType: 0x8100},
							&ActionID{Type: ActionTypeGroup, ID: 5},
							&ActionExperimenter{Experimenter: 0x2320, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
						},
					},
					&InstructionMeter{MeterID: 1},
				},
			},
		},
		{
			name: "flow removed",
			msg: &FlowRemoved{
				Header:      hdr(TypeFlowRemoved, 12),
				Cookie:      3,
				Priority:    ofp.DefaultPriority,
				Reason:      0,
				DurationSec: 240,
				IdleTimeout: 240,
				PacketCount: 10,
				ByteCount:   1000,
				Match:       NewMatch(NewOxmInPort(4)),
			},
		},
		{
			name: "port status",
			msg: &PortStatus{
				Header: hdr(TypePortStatus, 13),
				Reason: PortReasonDelete,
				Port: Port{
					PortNo:    4,
					HWAddr:    hwAddr1,
					Name:      "eth4",
					CurrSpeed: 10000000,
				},
			},
		},
		{
			name: "desc request",
			msg:  &MultipartRequest{Header: hdr(TypeMultipartRequest, 14), MpType: MultipartDesc},
		},
		{
			name: "desc reply",
			msg: &MultipartReply{
				Header: hdr(TypeMultipartReply, 15),
				MpType: MultipartDesc,
				Body: &Desc{
					Manufacturer: "Open vSwitch",
					Hardware:     "virtual",
					Software:     "2.17.0",
					SerialNumber: "none",
					Datapath:     "br0",
				},
			},
		},
		{
			name: "flow stats request",
			msg: &MultipartRequest{
				Header: hdr(TypeMultipartRequest, 16),
				MpType: MultipartFlow,
				Body:   &FlowStatsRequest{TableID: TableAll, OutPort: ofp.PortAny, OutGroup: GroupAny},
			},
		},
		{
			name: "flow stats reply",
			msg: &MultipartReply{
				Header: hdr(TypeMultipartReply, 17),
				MpType: MultipartFlow,
				Flags:  MultipartReplyMore,
				Body: FlowStatsList{
					{
						TableID:      0,
						Priority:     ofp.DefaultPriority,
						IdleTimeout:  240,
						PacketCount:  2,
						Match:        NewMatch(NewOxmInPort(1)),
						Instructions: []Instruction{NewApplyActions(&ActionOutput{Port: 2})},
					},
					{
						TableID: 0,
					},
				},
			},
		},
		{
			name: "table features request",
			msg:  &MultipartRequest{Header: hdr(TypeMultipartRequest, 18), MpType: MultipartTableFeatures},
		},
		{
			name: "table features reply",
			msg: &MultipartReply{
				Header: hdr(TypeMultipartReply, 19),
				MpType: MultipartTableFeatures,
				Body: TableFeaturesList{
					{
						TableID:    0,
						Name:       "classifier",
						MaxEntries: 1000000,
						Properties: []TableFeatureProp{
							{Type: TablePropInstructions, IDs: []uint16{InstructionTypeGotoTable, InstructionTypeApplyActions}},
							{Type: TablePropNextTables, Tables: []uint8{1, 2, 3}},
							{Type: TablePropApplyActions, IDs: []uint16{ActionTypeOutput, ActionTypeSetField}},
							{Type: TablePropMatch, Oxms: []uint32{NewOxmInPort(0).TypeHeader()}},
							{Type: TablePropExperimenter, Experimenter: 0x2320, ExpType: 1},
						},
					},
					{
						TableID: 1,
						Name:    "table1",
					},
				},
			},
		},
		{
			name: "port desc reply passes through",
			msg: &MultipartReply{
				Header: hdr(TypeMultipartReply, 20),
				MpType: MultipartPortDesc,
				Body:   RawBody{0x00, 0x00, 0x00, 0x01},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := ofp.Validate(test.msg)
			require.NoError(t, err)
			assert.Equal(t, int(test.msg.MessageHeader().Length), len(data))

			decoded, err := ofp.Parse(data, Version)
			require.NoError(t, err)
			assert.Equal(t, test.msg, decoded)
		})
	}
}

func Test_ParseRaw(t *testing.T) {
	data := []byte{Version, TypeRoleRequest, 0x00, 0x0c, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02}

	m, err := ofp.Parse(data, Version)
	require.NoError(t, err)

	raw, ok := m.(*ofp.Raw)
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x02}, raw.Body)
}

func Test_ParseTruncated(t *testing.T) {
	data, err := (&Echo{Header: hdr(TypeEchoRequest, 1), Data: []byte("abcd")}).MarshalBinary()
	require.NoError(t, err)

	_, err = ofp.Parse(data[:10], Version)
	assert.Equal(t, ofp.ErrTruncated, errors.Cause(err))
}

// flowModBytes encodes a flow mod with an empty match and one
// APPLY_ACTIONS instruction holding one OUTPUT action. The instruction
// starts at offset 56 and the action at offset 64.
func flowModBytes(t *testing.T) []byte {
	m := &FlowMod{
		Header:       hdr(TypeFlowMod, 1),
		BufferID:     ofp.NoBuffer,
		OutPort:      ofp.PortAny,
		OutGroup:     GroupAny,
		Instructions: []Instruction{NewApplyActions(&ActionOutput{Port: 1})},
	}
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 80)
	return data
}

func Test_ParseFlowModErrors(t *testing.T) {
	tests := []struct {
		name   string
		patch  func(data []byte) []byte
		reason error
	}{
		{
			name: "zero length action",
			patch: func(data []byte) []byte {
				data[66], data[67] = 0, 0
				return data
			},
			reason: ofp.ErrLoopDetected,
		},
		{
			name: "zero length instruction",
			patch: func(data []byte) []byte {
				data[58], data[59] = 0, 0
				return data
			},
			reason: ofp.ErrLoopDetected,
		},
		{
			name: "action longer than its instruction",
			patch: func(data []byte) []byte {
				data[67] = 24
				return data
			},
			reason: ofp.ErrTruncated,
		},
		{
			name: "output action with a wrong size",
			patch: func(data []byte) []byte {
				data[67] = 8
				return data
			},
			reason: ofp.ErrMalformedMessage,
		},
		{
			name: "unknown instruction type",
			patch: func(data []byte) []byte {
				data[56], data[57] = 0x00, 0x09
				return data
			},
			reason: ofp.ErrMalformedMessage,
		},
		{
			name: "standard match type",
			patch: func(data []byte) []byte {
				data[49] = byte(MatchTypeStandard)
				return data
			},
			reason: ofp.ErrUnsupportedField,
		},
		{
			name: "invalid command",
			patch: func(data []byte) []byte {
				data[25] = 9
				return data
			},
			reason: ofp.ErrMalformedMessage,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := test.patch(flowModBytes(t))

			_, err := ofp.Parse(data, Version)
			require.Error(t, err)
			assert.Equal(t, ofp.ErrMalformedMessage, errors.Cause(err))
			assert.Equal(t, test.reason, ofp.Reason(err))
		})
	}
}

func Test_DecodeActionsLoop(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	_, err := DecodeActions(data)
	assert.Equal(t, ofp.ErrLoopDetected, errors.Cause(err))
}

func Test_DecodeTableFeaturesErrors(t *testing.T) {
	tf := TableFeaturesList{{
		TableID:    0,
		Properties: []TableFeatureProp{{Type: TablePropInstructions, IDs: []uint16{InstructionTypeApplyActions}}},
	}}
	w := ofp.NewWriter(80)
	tf.encode(w)
	valid := w.Bytes()
	require.Len(t, valid, 72)

	tests := []struct {
		name   string
		patch  func(data []byte)
		reason error
	}{
		{
			name:   "zero length table",
			patch:  func(data []byte) { data[0], data[1] = 0, 0 },
			reason: ofp.ErrLoopDetected,
		},
		{
			name:   "zero length property",
			patch:  func(data []byte) { data[66], data[67] = 0, 0 },
			reason: ofp.ErrLoopDetected,
		},
		{
			name:   "unknown property type",
			patch:  func(data []byte) { data[65] = 0x10 },
			reason: ofp.ErrMalformedMessage,
		},
		{
			name:   "zero length instruction id",
			patch:  func(data []byte) { data[70], data[71] = 0, 0 },
			reason: ofp.ErrLoopDetected,
		},
		{
			name:   "table shorter than its fixed part",
			patch:  func(data []byte) { data[0], data[1] = 0, 32 },
			reason: ofp.ErrMalformedMessage,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := append([]byte(nil), valid...)
			test.patch(data)

			_, err := decodeTableFeaturesList(ofp.NewReader(data))
			assert.Equal(t, test.reason, errors.Cause(err))
		})
	}
}
