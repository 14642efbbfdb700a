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

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
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
	lh := libHeader(&m.Header)
	return finish(&m.Header, lh.Serialize(), ofp.HeaderLen)
}

func decodeEmpty(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) != 0 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "unexpected %d byte body", len(body))
	}
	return &Empty{Header: h}, nil
}

type Error struct {
	ofp.Header
	ErrType uint16
	Code    uint16
	Data    []byte
}

func (m *Error) MarshalBinary() ([]byte, error) {
	lm := &ofp13.OfpErrorMsg{Header: libHeader(&m.Header), Type: m.ErrType, Code: m.Code, Data: m.Data}
	return finish(&m.Header, lm.Serialize(), ofp.HeaderLen+4+len(m.Data))
}

func decodeError(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) < 4 {
		return nil, errors.Wrapf(ofp.ErrTruncated, "error body is %d bytes", len(body))
	}

	lm := new(ofp13.OfpErrorMsg)
	lm.Parse(wire(h, body))
	return &Error{Header: h, ErrType: lm.Type, Code: lm.Code, Data: lm.Data}, nil
}

// Echo is an ECHO_REQUEST or ECHO_REPLY.
type Echo struct {
	ofp.Header
	Data []byte
}

func (m *Echo) MarshalBinary() ([]byte, error) {
	lh := libHeader(&m.Header)
	data := append(lh.Serialize(), m.Data...)
	return finish(&m.Header, data, len(data))
}

func decodeEcho(h ofp.Header, body []byte) (ofp.Message, error) {
	m := &Echo{Header: h}
	if len(body) > 0 {
		m.Data = append([]byte(nil), body...)
	}
	return m, nil
}

type FeaturesReply struct {
	ofp.Header
	DatapathID   uint64
	NBuffers     uint32
	NTables      uint8
	AuxiliaryID  uint8
	Capabilities uint32
	Reserved     uint32
}

// MarshalBinary encodes the switch side FEATURES_REPLY. ofp13 only
// parses this message.
func (m *FeaturesReply) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint64(m.DatapathID)
	w.PutUint32(m.NBuffers)
	w.PutUint8(m.NTables)
	w.PutUint8(m.AuxiliaryID)
	w.Zero(2)
	w.PutUint32(m.Capabilities)
	w.PutUint32(m.Reserved)
	return ofp.FinishMessage(&m.Header, w)
}

func decodeFeaturesReply(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) != 24 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "features reply body is %d bytes", len(body))
	}

	lm := new(ofp13.OfpSwitchFeatures)
	lm.Parse(wire(h, body))
	return &FeaturesReply{
		Header:       h,
		DatapathID:   lm.DatapathId,
		NBuffers:     lm.NBuffers,
		NTables:      lm.NTables,
		AuxiliaryID:  lm.AuxiliaryId,
		Capabilities: lm.Capabilities,
		Reserved:     lm.Reserved,
	}, nil
}

// SwitchConfig is a SET_CONFIG or GET_CONFIG_REPLY.
type SwitchConfig struct {
	ofp.Header
	Flags       uint16
	MissSendLen uint16
}

func (m *SwitchConfig) MarshalBinary() ([]byte, error) {
	lm := &ofp13.OfpSwitchConfig{Header: libHeader(&m.Header), Flags: m.Flags, MissSendLen: m.MissSendLen}
	return finish(&m.Header, lm.Serialize(), lm.Size())
}

func decodeSwitchConfig(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) != 4 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "switch config body is %d bytes", len(body))
	}

	lm := new(ofp13.OfpSwitchConfig)
	lm.Parse(wire(h, body))
	return &SwitchConfig{Header: h, Flags: lm.Flags, MissSendLen: lm.MissSendLen}, nil
}

type PacketIn struct {
	ofp.Header
	BufferID uint32
	TotalLen uint16
	Reason   uint8
	TableID  uint8
	Cookie   uint64
	Match    Match
	Data     []byte
}

// MarshalBinary encodes the switch side PACKET_IN. ofp13 only parses
// this message.
func (m *PacketIn) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint32(m.BufferID)
	w.PutUint16(m.TotalLen)
	w.PutUint8(m.Reason)
	w.PutUint8(m.TableID)
	w.PutUint64(m.Cookie)
	m.Match.encode(w)
	w.Zero(2)
	w.Write(m.Data)
	return ofp.FinishMessage(&m.Header, w)
}

// Event returns the version independent view of the PACKET_IN. The
// ingress port is taken from the IN_PORT match field.
func (m *PacketIn) Event() (ofp.PacketIn, error) {
	port, ok := m.Match.InPort()
	if !ok {
		return ofp.PacketIn{}, errors.Wrap(ofp.ErrMalformedMessage, "packet in without in_port")
	}
	return ofp.PacketIn{
		InPort:   port,
		BufferID: m.BufferID,
		TotalLen: m.TotalLen,
		Reason:   m.Reason,
		TableID:  m.TableID,
		Data:     m.Data,
	}, nil
}

// decodePacketIn stays on the reader: ofp13 parses the match with its
// OPENFLOW_BASIC table only and cannot carry NXM or experimenter fields.
func decodePacketIn(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &PacketIn{Header: h}
	m.BufferID = r.Uint32()
	m.TotalLen = r.Uint16()
	m.Reason = r.Uint8()
	m.TableID = r.Uint8()
	m.Cookie = r.Uint64()
	if err := r.Err(); err != nil {
		return nil, err
	}

	match, err := decodeMatch(r)
	if err != nil {
		return nil, err
	}
	m.Match = match

	r.Skip(2)
	m.Data = r.Rest()
	return m, r.Err()
}

type PacketOut struct {
	ofp.Header
	BufferID uint32
	InPort   uint32
	Actions  []Action
	Data     []byte
}

func (m *PacketOut) MarshalBinary() ([]byte, error) {
	lm := &ofp13.OfpPacketOut{
		Header:   libHeader(&m.Header),
		BufferId: m.BufferID,
		InPort:   m.InPort,
		Actions:  libActions(m.Actions),
		Data:     m.Data,
	}
	return finish(&m.Header, lm.Serialize(), lm.Size())
}

func decodePacketOut(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &PacketOut{Header: h}
	m.BufferID = r.Uint32()
	m.InPort = r.Uint32()
	actionsLen := int(r.Uint16())
	r.Skip(6)
	raw := r.Bytes(actionsLen)
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

const flowModFixedLen = 48

type FlowMod struct {
	ofp.Header
	Cookie       uint64
	CookieMask   uint64
	TableID      uint8
	Command      uint8
	IdleTimeout  uint16
	HardTimeout  uint16
	Priority     uint16
	BufferID     uint32
	OutPort      uint32
	OutGroup     uint32
	Flags        uint16
	Match        Match
	Instructions []Instruction
}

func (m *FlowMod) MarshalBinary() ([]byte, error) {
	lm := &ofp13.OfpFlowMod{
		Header:       libHeader(&m.Header),
		Cookie:       m.Cookie,
		CookieMask:   m.CookieMask,
		TableId:      m.TableID,
		Command:      m.Command,
		IdleTimeout:  m.IdleTimeout,
		HardTimeout:  m.HardTimeout,
		Priority:     m.Priority,
		BufferId:     m.BufferID,
		OutPort:      m.OutPort,
		OutGroup:     m.OutGroup,
		Flags:        m.Flags,
		Match:        m.Match.lib(),
		Instructions: libInstructions(m.Instructions),
	}

	data := lm.Serialize()
	// drop the spare padding ofp13 puts after an already aligned match
	if spare := lm.Match.Size() - m.Match.padded(); spare > 0 {
		at := flowModFixedLen + m.Match.padded()
		data = append(data[:at], data[at+spare:]...)
	}

	size := flowModFixedLen + m.Match.padded()
	for _, i := range m.Instructions {
		size += i.Len()
	}
	return finish(&m.Header, data, size)
}

// decodeFlowMod stays on the reader: ofp13 has no FLOW_MOD parser.
func decodeFlowMod(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &FlowMod{Header: h}
	m.Cookie = r.Uint64()
	m.CookieMask = r.Uint64()
	m.TableID = r.Uint8()
	m.Command = r.Uint8()
	m.IdleTimeout = r.Uint16()
	m.HardTimeout = r.Uint16()
	m.Priority = r.Uint16()
	m.BufferID = r.Uint32()
	m.OutPort = r.Uint32()
	m.OutGroup = r.Uint32()
	m.Flags = r.Uint16()
	r.Skip(2)
	if err := r.Err(); err != nil {
		return nil, err
	}

	if m.Command > FlowModDeleteStrict {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "flow mod command %d", m.Command)
	}
	if m.TableID == TableAll && m.Command != FlowModDelete && m.Command != FlowModDeleteStrict {
		return nil, errors.Wrap(ofp.ErrMalformedMessage, "flow mod adds to OFPTT_ALL")
	}

	match, err := decodeMatch(r)
	if err != nil {
		return nil, err
	}
	m.Match = match

	instructions, err := DecodeInstructions(r.Rest())
	if err != nil {
		return nil, err
	}
	m.Instructions = instructions

	return m, r.Err()
}

type FlowRemoved struct {
	ofp.Header
	Cookie       uint64
	Priority     uint16
	Reason       uint8
	TableID      uint8
	DurationSec  uint32
	DurationNsec uint32
	IdleTimeout  uint16
	HardTimeout  uint16
	PacketCount  uint64
	ByteCount    uint64
	Match        Match
}

// MarshalBinary encodes the switch side FLOW_REMOVED, which ofp13
// neither encodes nor parses beyond OPENFLOW_BASIC matches.
func (m *FlowRemoved) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint64(m.Cookie)
	w.PutUint16(m.Priority)
	w.PutUint8(m.Reason)
	w.PutUint8(m.TableID)
	w.PutUint32(m.DurationSec)
	w.PutUint32(m.DurationNsec)
	w.PutUint16(m.IdleTimeout)
	w.PutUint16(m.HardTimeout)
	w.PutUint64(m.PacketCount)
	w.PutUint64(m.ByteCount)
	m.Match.encode(w)
	return ofp.FinishMessage(&m.Header, w)
}

func decodeFlowRemoved(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &FlowRemoved{Header: h}
	m.Cookie = r.Uint64()
	m.Priority = r.Uint16()
	m.Reason = r.Uint8()
	m.TableID = r.Uint8()
	m.DurationSec = r.Uint32()
	m.DurationNsec = r.Uint32()
	m.IdleTimeout = r.Uint16()
	m.HardTimeout = r.Uint16()
	m.PacketCount = r.Uint64()
	m.ByteCount = r.Uint64()
	if err := r.Err(); err != nil {
		return nil, err
	}

	match, err := decodeMatch(r)
	if err != nil {
		return nil, err
	}
	m.Match = match

	if r.Len() != 0 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "%d trailing bytes after flow removed match", r.Len())
	}
	return m, nil
}

const portLen = 64

type Port struct {
	PortNo     uint32
	HWAddr     net.HardwareAddr
	Name       string
	Config     uint32
	State      uint32
	Curr       uint32
	Advertised uint32
	Supported  uint32
	Peer       uint32
	CurrSpeed  uint32
	MaxSpeed   uint32
}

func (p *Port) encode(w *ofp.Writer) {
	w.PutUint32(p.PortNo)
	w.Zero(4)
	hw := make([]byte, 6)
	copy(hw, p.HWAddr)
	w.Write(hw)
	w.Zero(2)
	w.PutString(p.Name, portNameLen)
	w.PutUint32(p.Config)
	w.PutUint32(p.State)
	w.PutUint32(p.Curr)
	w.PutUint32(p.Advertised)
	w.PutUint32(p.Supported)
	w.PutUint32(p.Peer)
	w.PutUint32(p.CurrSpeed)
	w.PutUint32(p.MaxSpeed)
}

func portFromLib(lp *ofp13.OfpPort) Port {
	return Port{
		PortNo:     lp.PortNo,
		HWAddr:     lp.HwAddr,
		Name:       cstring(lp.Name),
		Config:     lp.Config,
		State:      lp.State,
		Curr:       lp.Curr,
		Advertised: lp.Advertised,
		Supported:  lp.Supported,
		Peer:       lp.Peer,
		CurrSpeed:  lp.CurrSpeed,
		MaxSpeed:   lp.MaxSpeed,
	}
}

const (
	PortReasonAdd    uint8 = ofp13.OFPPR_ADD
	PortReasonDelete uint8 = ofp13.OFPPR_DELETE
	PortReasonModify uint8 = ofp13.OFPPR_MODIFY
)

type PortStatus struct {
	ofp.Header
	Reason uint8
	Port   Port
}

// MarshalBinary encodes the switch side PORT_STATUS. ofp13 only parses
// this message.
func (m *PortStatus) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint8(m.Reason)
	w.Zero(7)
	m.Port.encode(w)
	return ofp.FinishMessage(&m.Header, w)
}

func decodePortStatus(h ofp.Header, body []byte) (ofp.Message, error) {
	if len(body) != 8+portLen {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "port status body is %d bytes", len(body))
	}

	lm := new(ofp13.OfpPortStatus)
	lm.Parse(wire(h, body))
	return &PortStatus{Header: h, Reason: lm.Reason, Port: portFromLib(lm.Desc)}, nil
}
