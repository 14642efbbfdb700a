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

	"github.com/pkg/errors"
	"github.com/skydive-project/goloxi"
	loxi "github.com/skydive-project/goloxi/of10"

	"github.com/k-vswitch/switchd/ofp"
)

// Empty is a message without a body: FEATURES_REQUEST,
// GET_CONFIG_REQUEST, BARRIER_REQUEST and BARRIER_REPLY.
type Empty struct {
	ofp.Header
}

func NewEmpty(typ uint8, xid uint32) *Empty {
	return &Empty{Header: ofp.Header{Version: Version, Type: typ, Xid: xid}}
}

func (m *Empty) MarshalBinary() ([]byte, error) {
	var lm libMessage
	switch m.Type {
	case TypeFeaturesRequest:
		lm = loxi.NewFeaturesRequest()
	case TypeGetConfigRequest:
		lm = loxi.NewGetConfigRequest()
	case TypeBarrierRequest:
		lm = loxi.NewBarrierRequest()
	case TypeBarrierReply:
		lm = loxi.NewBarrierReply()
	default:
		return m.Header.MarshalBinary()
	}
	return marshal(&m.Header, lm)
}

func decodeEmpty(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) != 0 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "unexpected %d byte body", len(body))
	}
	return &Empty{Header: h}, nil
}

// Error stays on the buffer codec. goloxi splits ERROR into one message
// per error type, each with its own code enum, and cannot carry an
// arbitrary type and code pair.
type Error struct {
	ofp.Header
	ErrType uint16
	Code    uint16
	Data    []byte
}

func (m *Error) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint16(m.ErrType)
	w.PutUint16(m.Code)
	w.Write(m.Data)
	return ofp.FinishMessage(&m.Header, w)
}

func decodeError(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &Error{Header: h, ErrType: r.Uint16(), Code: r.Uint16(), Data: r.Rest()}
	return m, r.Err()
}

type Echo struct {
	ofp.Header
	Data []byte
}

func (m *Echo) MarshalBinary() ([]byte, error) {
	if m.Type == TypeEchoReply {
		lm := loxi.NewEchoReply()
		lm.SetData(m.Data)
		return marshal(&m.Header, lm)
	}
	lm := loxi.NewEchoRequest()
	lm.SetData(m.Data)
	return marshal(&m.Header, lm)
}

func decodeEcho(h ofp.Header, body []byte) (ofp.Message, error) {
	lm, err := unmarshal(h, body)
	if err != nil {
		return nil, err
	}

	switch lm := lm.(type) {
	case *loxi.EchoRequest:
		return &Echo{Header: h, Data: orNil(lm.GetData())}, nil
	case *loxi.EchoReply:
		return &Echo{Header: h, Data: orNil(lm.GetData())}, nil
	}
	return nil, unexpected(h, lm)
}

type PhyPort struct {
	PortNo     uint16
	HWAddr     net.HardwareAddr
	Name       string
	Config     uint32
	State      uint32
	Curr       uint32
	Advertised uint32
	Supported  uint32
	Peer       uint32
}

func (p *PhyPort) encode(w *ofp.Writer) {
	w.PutUint16(p.PortNo)
	w.Write(hwAddr(p.HWAddr))
	w.PutString(p.Name, portNameLen)
	w.PutUint32(p.Config)
	w.PutUint32(p.State)
	w.PutUint32(p.Curr)
	w.PutUint32(p.Advertised)
	w.PutUint32(p.Supported)
	w.PutUint32(p.Peer)
}

func phyPortFromLib(lp *loxi.PortDesc) PhyPort {
	return PhyPort{
		PortNo:     uint16(lp.GetPortNo()),
		HWAddr:     hwAddr(lp.GetHwAddr()),
		Name:       lp.GetName(),
		Config:     uint32(lp.GetConfig()),
		State:      uint32(lp.GetState()),
		Curr:       uint32(lp.GetCurr()),
		Advertised: uint32(lp.GetAdvertised()),
		Supported:  uint32(lp.GetSupported()),
		Peer:       uint32(lp.GetPeer()),
	}
}

type FeaturesReply struct {
	ofp.Header
	DatapathID   uint64
	NBuffers     uint32
	NTables      uint8
	Capabilities uint32
	// Actions is a bitmap of supported action types.
	Actions uint32
	Ports   []PhyPort
}

// MarshalBinary encodes the switch side FEATURES_REPLY.
func (m *FeaturesReply) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint64(m.DatapathID)
	w.PutUint32(m.NBuffers)
	w.PutUint8(m.NTables)
	w.Zero(3)
	w.PutUint32(m.Capabilities)
	w.PutUint32(m.Actions)
	for i := range m.Ports {
		m.Ports[i].encode(w)
	}
	return ofp.FinishMessage(&m.Header, w)
}

func decodeFeaturesReply(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) < 24 || (len(body)-24)%phyPortLen != 0 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "features reply body is %d bytes", len(body))
	}

	lm, err := unmarshal(h, body)
	if err != nil {
		return nil, err
	}
	reply, ok := lm.(*loxi.FeaturesReply)
	if !ok {
		return nil, unexpected(h, lm)
	}

	m := &FeaturesReply{
		Header:       h,
		DatapathID:   reply.GetDatapathId(),
		NBuffers:     reply.GetNBuffers(),
		NTables:      reply.GetNTables(),
		Capabilities: uint32(reply.GetCapabilities()),
		Actions:      uint32(reply.GetActions()),
	}
	for _, p := range reply.GetPorts() {
		m.Ports = append(m.Ports, phyPortFromLib(p))
	}
	return m, nil
}

type SwitchConfig struct {
	ofp.Header
	Flags       uint16
	MissSendLen uint16
}

func (m *SwitchConfig) MarshalBinary() ([]byte, error) {
	if m.Type == TypeGetConfigReply {
		lm := loxi.NewGetConfigReply()
		lm.SetFlags(loxi.ConfigFlags(m.Flags))
		lm.SetMissSendLen(m.MissSendLen)
		return marshal(&m.Header, lm)
	}
	lm := loxi.NewSetConfig()
	lm.SetFlags(loxi.ConfigFlags(m.Flags))
	lm.SetMissSendLen(m.MissSendLen)
	return marshal(&m.Header, lm)
}

func decodeSwitchConfig(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) != 4 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "switch config body is %d bytes", len(body))
	}

	lm, err := unmarshal(h, body)
	if err != nil {
		return nil, err
	}

	switch lm := lm.(type) {
	case *loxi.GetConfigReply:
		return &SwitchConfig{Header: h, Flags: uint16(lm.GetFlags()), MissSendLen: lm.GetMissSendLen()}, nil
	case *loxi.SetConfig:
		return &SwitchConfig{Header: h, Flags: uint16(lm.GetFlags()), MissSendLen: lm.GetMissSendLen()}, nil
	}
	return nil, unexpected(h, lm)
}

type PacketIn struct {
	ofp.Header
	BufferID uint32
	TotalLen uint16
	InPort   uint16
	Reason   uint8
	Data     []byte
}

// MarshalBinary encodes the switch side PACKET_IN.
func (m *PacketIn) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint32(m.BufferID)
	w.PutUint16(m.TotalLen)
	w.PutUint16(m.InPort)
	w.PutUint8(m.Reason)
	w.Zero(1)
	w.Write(m.Data)
	return ofp.FinishMessage(&m.Header, w)
}

func (m *PacketIn) Event() (ofp.PacketIn, error) {
	return ofp.PacketIn{
		InPort:   Port32(m.InPort),
		BufferID: m.BufferID,
		TotalLen: m.TotalLen,
		Reason:   m.Reason,
		Data:     m.Data,
	}, nil
}

func decodePacketIn(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) < 10 {
		return nil, errors.Wrapf(ofp.ErrTruncated, "packet in body is %d bytes", len(body))
	}

	lm, err := unmarshal(h, body)
	if err != nil {
		return nil, err
	}
	pi, ok := lm.(*loxi.PacketIn)
	if !ok {
		return nil, unexpected(h, lm)
	}

	return &PacketIn{
		Header:   h,
		BufferID: pi.GetBufferId(),
		TotalLen: pi.GetTotalLen(),
		InPort:   uint16(pi.GetInPort()),
		Reason:   uint8(pi.GetReason()),
		Data:     orNil(pi.GetData()),
	}, nil
}

type PacketOut struct {
	ofp.Header
	BufferID uint32
	InPort   uint16
	Actions  []Action
	Data     []byte
}

func (m *PacketOut) MarshalBinary() ([]byte, error) {
	lm := loxi.NewPacketOut()
	lm.SetBufferId(m.BufferID)
	lm.SetInPort(loxi.Port(m.InPort))
	lm.SetActionsLen(uint16(actionsLen(m.Actions)))
	lm.SetActions(libActions(m.Actions))
	lm.SetData(m.Data)
	return marshal(&m.Header, lm)
}

// decodePacketOut and decodeFlowMod read the action list themselves:
// goloxi fails on vendor actions it has no subtype for.
func decodePacketOut(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &PacketOut{Header: h}
	m.BufferID = r.Uint32()
	m.InPort = r.Uint16()
	raw := r.Bytes(int(r.Uint16()))
	if err := r.Err(); err != nil {
		return nil, err
	}

	actions, err := DecodeActions(raw)
	if err != nil {
		return nil, err
	}
	m.Actions = actions
	m.Data = r.Rest()

	if m.BufferID != ofp.NoBuffer && len(m.Data) != 0 {
		return nil, errors.Wrap(ofp.ErrMalformedMessage, "packet out carries both a buffer id and data")
	}
	return m, r.Err()
}

type FlowMod struct {
	ofp.Header
	Match       Match
	Cookie      uint64
	Command     uint16
	IdleTimeout uint16
	HardTimeout uint16
	Priority    uint16
	BufferID    uint32
	OutPort     uint16
	Flags       uint16
	Actions     []Action
}

type libFlowMod interface {
	libMessage
	SetMatch(v loxi.MatchV1)
	SetCookie(v uint64)
	SetIdleTimeout(v uint16)
	SetHardTimeout(v uint16)
	SetPriority(v uint16)
	SetBufferId(v uint32)
	SetOutPort(v loxi.Port)
	SetFlags(v loxi.FlowModFlags)
	SetActions(v []goloxi.IAction)
}

func newLibFlowMod(command uint16) (libFlowMod, error) {
	switch command {
	case FlowModAdd:
		return loxi.NewFlowAdd(), nil
	case FlowModModify:
		return loxi.NewFlowModify(), nil
	case FlowModModifyStrict:
		return loxi.NewFlowModifyStrict(), nil
	case FlowModDelete:
		return loxi.NewFlowDelete(), nil
	case FlowModDeleteStrict:
		return loxi.NewFlowDeleteStrict(), nil
	}
	return nil, errors.Wrapf(ofp.ErrMalformedMessage, "flow mod command %d", command)
}

func (m *FlowMod) MarshalBinary() ([]byte, error) {
	lm, err := newLibFlowMod(m.Command)
	if err != nil {
		return nil, err
	}

	lm.SetMatch(*m.Match.lib())
	lm.SetCookie(m.Cookie)
	lm.SetIdleTimeout(m.IdleTimeout)
	lm.SetHardTimeout(m.HardTimeout)
	lm.SetPriority(m.Priority)
	lm.SetBufferId(m.BufferID)
	lm.SetOutPort(loxi.Port(m.OutPort))
	lm.SetFlags(loxi.FlowModFlags(m.Flags))
	lm.SetActions(libActions(m.Actions))
	return marshal(&m.Header, lm)
}

func decodeFlowMod(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &FlowMod{Header: h}
	m.Match = decodeMatch(r)
	m.Cookie = r.Uint64()
	m.Command = r.Uint16()
	m.IdleTimeout = r.Uint16()
	m.HardTimeout = r.Uint16()
	m.Priority = r.Uint16()
	m.BufferID = r.Uint32()
	m.OutPort = r.Uint16()
	m.Flags = r.Uint16()
	if err := r.Err(); err != nil {
		return nil, err
	}

	if m.Command > FlowModDeleteStrict {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "flow mod command %d", m.Command)
	}

	actions, err := DecodeActions(r.Rest())
	if err != nil {
		return nil, err
	}
	m.Actions = actions
	return m, nil
}

type FlowRemoved struct {
	ofp.Header
	Match        Match
	Cookie       uint64
	Priority     uint16
	Reason       uint8
	DurationSec  uint32
	DurationNsec uint32
	IdleTimeout  uint16
	PacketCount  uint64
	ByteCount    uint64
}

// MarshalBinary encodes the switch side FLOW_REMOVED.
func (m *FlowRemoved) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	m.Match.encode(w)
	w.PutUint64(m.Cookie)
	w.PutUint16(m.Priority)
	w.PutUint8(m.Reason)
	w.Zero(1)
	w.PutUint32(m.DurationSec)
	w.PutUint32(m.DurationNsec)
	w.PutUint16(m.IdleTimeout)
	w.Zero(2)
	w.PutUint64(m.PacketCount)
	w.PutUint64(m.ByteCount)
	return ofp.FinishMessage(&m.Header, w)
}

func decodeFlowRemoved(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) != matchLen+40 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "flow removed body is %d bytes", len(body))
	}

	lm, err := unmarshal(h, body)
	if err != nil {
		return nil, err
	}
	fr, ok := lm.(*loxi.FlowRemoved)
	if !ok {
		return nil, unexpected(h, lm)
	}

	match := fr.GetMatch()
	return &FlowRemoved{
		Header:       h,
		Match:        matchFromLib(&match),
		Cookie:       fr.GetCookie(),
		Priority:     fr.GetPriority(),
		Reason:       uint8(fr.GetReason()),
		DurationSec:  fr.GetDurationSec(),
		DurationNsec: fr.GetDurationNsec(),
		IdleTimeout:  fr.GetIdleTimeout(),
		PacketCount:  fr.GetPacketCount(),
		ByteCount:    fr.GetByteCount(),
	}, nil
}

type PortStatus struct {
	ofp.Header
	Reason uint8
	Port   PhyPort
}

// MarshalBinary encodes the switch side PORT_STATUS.
func (m *PortStatus) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint8(m.Reason)
	w.Zero(7)
	m.Port.encode(w)
	return ofp.FinishMessage(&m.Header, w)
}

func decodePortStatus(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) != 8+phyPortLen {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "port status body is %d bytes", len(body))
	}

	lm, err := unmarshal(h, body)
	if err != nil {
		return nil, err
	}
	ps, ok := lm.(*loxi.PortStatus)
	if !ok {
		return nil, unexpected(h, lm)
	}

	desc := ps.GetDesc()
	return &PortStatus{Header: h, Reason: uint8(ps.GetReason()), Port: phyPortFromLib(&desc)}, nil
}
