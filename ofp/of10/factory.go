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
	"github.com/k-vswitch/switchd/flows"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

const errorDataLen = 64

var flowModCommands = map[flows.Command]uint16{
	flows.CommandAdd:          FlowModAdd,
	flows.CommandModify:       FlowModModify,
	flows.CommandModifyStrict: FlowModModifyStrict,
	flows.CommandDelete:       FlowModDelete,
	flows.CommandDeleteStrict: FlowModDeleteStrict,
}

type factory struct{}

func (factory) Version() uint8 {
	return Version
}

func (factory) header(typ uint8, xid uint32) ofp.Header {
	return ofp.Header{Version: Version, Type: typ, Xid: xid}
}

func (f factory) NewHello(xid uint32) ofp.Message {
	return ofp.NewHello(Version, xid)
}

func (f factory) NewEchoRequest(xid uint32, data []byte) ofp.Message {
	return &Echo{Header: f.header(TypeEchoRequest, xid), Data: data}
}

func (f factory) NewEchoReply(xid uint32, data []byte) ofp.Message {
	return &Echo{Header: f.header(TypeEchoReply, xid), Data: data}
}

func (f factory) NewFeaturesRequest(xid uint32) ofp.Message {
	return NewEmpty(TypeFeaturesRequest, xid)
}

func (f factory) NewSetConfig(xid uint32, missSendLen uint16) ofp.Message {
	return &SwitchConfig{Header: f.header(TypeSetConfig, xid), MissSendLen: missSendLen}
}

func (f factory) NewBarrierRequest(xid uint32) ofp.Message {
	return NewEmpty(TypeBarrierRequest, xid)
}

func (f factory) NewDescRequest(xid uint32) ofp.Message {
	return &StatsRequest{Header: f.header(TypeStatsRequest, xid), StatsType: StatsDesc}
}

func (f factory) NewFlowStatsRequest(xid uint32, tableID uint8) ofp.Message {
	return &StatsRequest{
		Header:    f.header(TypeStatsRequest, xid),
		StatsType: StatsFlow,
		Body: &FlowStatsRequest{
			Match:   NewMatch(),
			TableID: tableID,
			OutPort: PortNone,
		},
	}
}

// NewTableFeaturesRequest fails: OpenFlow 1.0 has no table features.
func (f factory) NewTableFeaturesRequest(xid uint32) (ofp.Message, error) {
	return nil, errors.Wrap(ofp.ErrBadType, "table features are not part of OpenFlow 1.0")
}

func (f factory) NewFlowMod(xid uint32, flow *flows.Flow) (ofp.Message, error) {
	if err := flow.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid flow")
	}

	command, ok := flowModCommands[flow.Command()]
	if !ok {
		return nil, errors.Errorf("unknown flow command %d", flow.Command())
	}

	m := &FlowMod{
		Header:      f.header(TypeFlowMod, xid),
		Match:       NewMatch(),
		Cookie:      flow.Cookie(),
		Command:     command,
		IdleTimeout: flow.IdleTimeout(),
		HardTimeout: flow.HardTimeout(),
		Priority:    flow.Priority(),
		BufferID:    flow.BufferID(),
		OutPort:     PortNone,
	}

	if flow.SendFlowRemoved() {
		m.Flags |= FlowFlagSendFlowRemoved
	}

	if port, ok := flow.InPort(); ok {
		m.Match.SetInPort(Port16(port))
	}
	if addr := flow.EthDst(); addr != nil {
		m.Match.SetDlDst(addr)
	}
	if addr := flow.EthSrc(); addr != nil {
		m.Match.SetDlSrc(addr)
	}

	if port, ok := flow.Output(); ok {
		m.Actions = []Action{&ActionOutput{Port: Port16(port), MaxLen: flow.OutputMaxLen()}}
	}

	return m, nil
}

func (f factory) NewPacketOut(xid uint32, po ofp.PacketOut) ofp.Message {
	return &PacketOut{
		Header:   f.header(TypePacketOut, xid),
		BufferID: po.BufferID,
		InPort:   Port16(po.InPort),
		Actions:  []Action{&ActionOutput{Port: Port16(po.OutPort)}},
		Data:     po.Data,
	}
}

func (f factory) NewError(xid uint32, kind ofp.ErrorKind, data []byte) ofp.Message {
	m := &Error{Header: f.header(TypeError, xid), ErrType: ErrTypeBadRequest}

	switch kind {
	case ofp.ErrorHelloIncompatible:
		m.ErrType = ErrTypeHelloFailed
		m.Code = HelloFailedIncompatible
	case ofp.ErrorBadVersion:
		m.Code = BadRequestBadVersion
	case ofp.ErrorBadType:
		m.Code = BadRequestBadType
	case ofp.ErrorBadLength:
		m.Code = BadRequestBadLen
	case ofp.ErrorMultipartOverflow:
		m.Code = BadRequestBadStat
	}

	if len(data) > errorDataLen {
		data = data[:errorDataLen]
	}
	if len(data) > 0 {
		m.Data = append([]byte(nil), data...)
	}
	return m
}
