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
	"net"
	"testing"

	"github.com/k-vswitch/switchd/flows"
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
	dstMatch := NewMatch()
	dstMatch.SetDlDst(hwAddr2)

	tests := []struct {
		name string
		msg  ofp.Message
	}{
		{
			name: "hello",
			msg:  ofp.NewHello(Version, 1),
		},
		{
			name: "error",
			msg:  &Error{Header: hdr(TypeError, 2), ErrType: ErrTypeBadRequest, Code: BadRequestBadStat, Data: []byte{1, 2}},
		},
		{
			name: "echo request",
			msg:  &Echo{Header: hdr(TypeEchoRequest, 3), Data: []byte("x")},
		},
		{
			name: "features request",
			msg:  NewEmpty(TypeFeaturesRequest, 4),
		},
		{
			name: "features reply with ports",
			msg: &FeaturesReply{
				Header:     hdr(TypeFeaturesReply, 5),
				DatapathID: 1,
				NBuffers:   256,
				NTables:    2,
				Actions:    1<<ActionTypeOutput | 1<<ActionTypeSetDlDst,
				Ports: []PhyPort{
					{PortNo: 1, HWAddr: hwAddr1, Name: "eth1"},
					{PortNo: PortLocal, HWAddr: hwAddr2, Name: "br0", Config: 1},
				},
			},
		},
		{
			name: "set config",
			msg:  &SwitchConfig{Header: hdr(TypeSetConfig, 6), MissSendLen: 0xffff},
		},
		{
			name: "packet in",
			msg: &PacketIn{
				Header:   hdr(TypePacketIn, 7),
				BufferID: ofp.NoBuffer,
				TotalLen: 4,
				InPort:   3,
				Data:     []byte{1, 2, 3, 4},
			},
		},
		{
			name: "packet out",
			msg: &PacketOut{
				Header:   hdr(TypePacketOut, 8),
				BufferID: ofp.NoBuffer,
				InPort:   3,
				Actions:  []Action{&ActionOutput{Port: PortFlood}},
				Data:     []byte{1, 2, 3, 4},
			},
		},
		{
			name: "flow mod",
			msg: &FlowMod{
				Header:      hdr(TypeFlowMod, 9),
				Match:       dstMatch,
				Command:     FlowModAdd,
				IdleTimeout: 240,
				Priority:    ofp.DefaultPriority,
				BufferID:    ofp.NoBuffer,
				OutPort:     PortNone,
				Flags:       FlowFlagSendFlowRemoved,
				Actions: []Action{
					&ActionValue16{Type: ActionTypeSetVlanVID, Value: 10},
					&ActionValue8{Type: ActionTypeSetNwTos, Value: 4},
					&ActionStripVlan{},
					&ActionDlAddr{Type: ActionTypeSetDlSrc, Addr: hwAddr1},
					&ActionNwAddr{Type: ActionTypeSetNwDst, Addr: 0x0a000001},
					&ActionEnqueue{Port: 2, QueueID: 1},
					&ActionVendor{Vendor: 0x2320, Data: []byte{0, 0, 0, 0, 0, 0, 0, 1}},
					&ActionOutput{Port: 2},
				},
			},
		},
		{
			name: "flow removed",
			msg: &FlowRemoved{
				Header:      hdr(TypeFlowRemoved, 10),
				Match:       dstMatch,
				Priority:    ofp.DefaultPriority,
				DurationSec: 240,
				IdleTimeout: 240,
			},
		},
		{
			name: "port status",
			msg: &PortStatus{
				Header: hdr(TypePortStatus, 11),
				Reason: PortReasonAdd,
				Port:   PhyPort{PortNo: 5, HWAddr: hwAddr1, Name: "eth5"},
			},
		},
		{
			name: "desc stats request",
			msg:  &StatsRequest{Header: hdr(TypeStatsRequest, 12), StatsType: StatsDesc},
		},
		{
			name: "desc stats reply",
			msg: &StatsReply{
				Header:    hdr(TypeStatsReply, 13),
				StatsType: StatsDesc,
				Body:      &Desc{Manufacturer: "Nicira", Software: "1.4", Datapath: "br0"},
			},
		},
		{
			name: "flow stats request",
			msg: &StatsRequest{
				Header:    hdr(TypeStatsRequest, 14),
				StatsType: StatsFlow,
				Body:      &FlowStatsRequest{Match: NewMatch(), TableID: 0xff, OutPort: PortNone},
			},
		},
		{
			name: "flow stats reply",
			msg: &StatsReply{
				Header:    hdr(TypeStatsReply, 15),
				StatsType: StatsFlow,
				Flags:     StatsReplyMore,
				Body: FlowStatsList{
					{Match: dstMatch, Priority: 1, Actions: []Action{&ActionOutput{Port: 2}}},
					{Match: NewMatch()},
				},
			},
		},
		{
			name: "table stats reply",
			msg: &StatsReply{
				Header:    hdr(TypeStatsReply, 16),
				StatsType: StatsTable,
				Body: TableStatsList{
					{TableID: 0, Name: "classifier", Wildcards: WildcardAll, MaxEntries: 1000000, ActiveCount: 3},
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := ofp.Validate(test.msg)
			require.NoError(t, err)

			decoded, err := ofp.Parse(data, Version)
			require.NoError(t, err)
			assert.Equal(t, test.msg, decoded)
		})
	}
}

func Test_FixedSizes(t *testing.T) {
	tests := []struct {
		name string
		msg  ofp.Message
		size int
	}{
		{"packet in", &PacketIn{Header: hdr(TypePacketIn, 1)}, 18},
		{"packet out", &PacketOut{Header: hdr(TypePacketOut, 1)}, 16},
		{"flow mod", &FlowMod{Header: hdr(TypeFlowMod, 1)}, 72},
		{"features reply", &FeaturesReply{Header: hdr(TypeFeaturesReply, 1)}, 32},
		{"flow removed", &FlowRemoved{Header: hdr(TypeFlowRemoved, 1)}, 88},
		{"port status", &PortStatus{Header: hdr(TypePortStatus, 1)}, 64},
		{"flow stats request", &StatsRequest{Header: hdr(TypeStatsRequest, 1), Body: &FlowStatsRequest{}}, 56},
		{"desc stats", &StatsReply{Header: hdr(TypeStatsReply, 1), Body: &Desc{}}, 12 + descLen},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := test.msg.MarshalBinary()
			require.NoError(t, err)
			assert.Len(t, data, test.size)
		})
	}
}

func Test_ParseErrors(t *testing.T) {
	flowMod := &FlowMod{
		Header:  hdr(TypeFlowMod, 1),
		Match:   NewMatch(),
		Actions: []Action{&ActionOutput{Port: 1}},
	}
	valid, err := flowMod.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, valid, 80)

	tests := []struct {
		name   string
		patch  func(data []byte)
		reason error
	}{
		{
			name:   "zero length action",
			patch:  func(data []byte) { data[74], data[75] = 0, 0 },
			reason: ofp.ErrLoopDetected,
		},
		{
			name:   "action past the message",
			patch:  func(data []byte) { data[75] = 16 },
			reason: ofp.ErrTruncated,
		},
		{
			name:   "unknown action",
			patch:  func(data []byte) { data[72], data[73] = 0x00, 0x20 },
			reason: ofp.ErrMalformedMessage,
		},
		{
			name:   "bad command",
			patch:  func(data []byte) { data[57] = 7 },
			reason: ofp.ErrMalformedMessage,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := append([]byte(nil), valid...)
			test.patch(data)

			_, err := ofp.Parse(data, Version)
			assert.Equal(t, ofp.ErrMalformedMessage, errors.Cause(err))
			assert.Equal(t, test.reason, ofp.Reason(err))
		})
	}
}

func Test_ParseWrongVersion(t *testing.T) {
	data, err := NewEmpty(TypeBarrierRequest, 1).MarshalBinary()
	require.NoError(t, err)

	_, err = ofp.Parse(data, ofp.Version13)
	assert.Equal(t, ofp.ErrBadVersion, errors.Cause(err))

	data[1] = 22
	_, err = ofp.Parse(data, Version)
	assert.Equal(t, ofp.ErrBadType, errors.Cause(err))
}

func Test_Ports(t *testing.T) {
	tests := []struct {
		port32 uint32
		port16 uint16
	}{
		{1, 1},
		{0xfeff, 0xfeff},
		{ofp.PortFlood, PortFlood},
		{ofp.PortController, PortController},
		{ofp.PortAny, PortNone},
		{ofp.PortInPort, PortInPort},
	}

	for _, test := range tests {
		assert.Equal(t, test.port16, Port16(test.port32))
		assert.Equal(t, test.port32, Port32(test.port16))
	}
}

func Test_FactoryFlowMod(t *testing.T) {
	f := factory{}
	flow := flows.NewFlow().
		WithPriority(ofp.DefaultPriority).
		WithIdleTimeout(240).
		WithSendFlowRemoved().
		WithEthDst(hwAddr2).
		WithActionOutputPort(2)

	m, err := f.NewFlowMod(3, flow)
	require.NoError(t, err)

	fm := m.(*FlowMod)
	assert.Equal(t, WildcardAll&^WildcardDlDst, fm.Match.Wildcards)
	assert.Equal(t, [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02}, fm.Match.DlDst)
	assert.Equal(t, []Action{&ActionOutput{Port: 2}}, fm.Actions)
	assert.Equal(t, FlowFlagSendFlowRemoved, fm.Flags)
	assert.Equal(t, "dl_dst=aa:bb:cc:dd:ee:02", fm.Match.String())

	_, err = ofp.Validate(m)
	assert.NoError(t, err)
}

func Test_FactoryMessagesValidate(t *testing.T) {
	f := factory{}

	msgs := []ofp.Message{
		f.NewHello(1),
		f.NewEchoReply(2, []byte("abc")),
		f.NewFeaturesRequest(3),
		f.NewSetConfig(4, 0xffff),
		f.NewBarrierRequest(5),
		f.NewDescRequest(6),
		f.NewFlowStatsRequest(7, 0xff),
		f.NewPacketOut(8, ofp.PacketOut{BufferID: 9, InPort: 1, OutPort: ofp.PortFlood}),
		f.NewError(9, ofp.ErrorMultipartOverflow, []byte{1}),
	}

	for _, m := range msgs {
		_, err := ofp.Validate(m)
		assert.NoError(t, err, "%s", m.MessageHeader())
	}

	_, err := f.NewTableFeaturesRequest(10)
	assert.Error(t, err)
}
