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
	"github.com/pkg/errors"
	loxi "github.com/skydive-project/goloxi/of10"

	"github.com/k-vswitch/switchd/ofp"
)

// StatsBody is the typed payload of a stats request or reply.
type StatsBody interface {
	encode(w *ofp.Writer)
}

type StatsRequest struct {
	ofp.Header
	StatsType uint16
	Flags     uint16
	Body      StatsBody
}

func (m *StatsRequest) MarshalBinary() ([]byte, error) {
	if m.Flags != 0 {
		return marshalStats(&m.Header, m.StatsType, m.Flags, m.Body)
	}

	switch body := m.Body.(type) {
	case nil:
		if m.StatsType == StatsDesc {
			return marshal(&m.Header, loxi.NewDescStatsRequest())
		}
	case *FlowStatsRequest:
		if m.StatsType == StatsFlow {
			lm := loxi.NewFlowStatsRequest()
			lm.SetMatch(*body.Match.lib())
			lm.SetTableId(body.TableID)
			lm.SetOutPort(loxi.Port(body.OutPort))
			return marshal(&m.Header, lm)
		}
	}
	return marshalStats(&m.Header, m.StatsType, m.Flags, m.Body)
}

type StatsReply struct {
	ofp.Header
	StatsType uint16
	Flags     uint16
	Body      StatsBody
}

func (m *StatsReply) More() bool {
	return m.Flags&StatsReplyMore != 0
}

// MarshalBinary encodes the switch side reply.
func (m *StatsReply) MarshalBinary() ([]byte, error) {
	return marshalStats(&m.Header, m.StatsType, m.Flags, m.Body)
}

func marshalStats(h *ofp.Header, typ, flags uint16, body StatsBody) ([]byte, error) {
	w := ofp.BeginMessage(h)
	w.PutUint16(typ)
	w.PutUint16(flags)
	if body != nil {
		body.encode(w)
	}
	return ofp.FinishMessage(h, w)
}

func decodeStatsRequest(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &StatsRequest{Header: h, StatsType: r.Uint16(), Flags: r.Uint16()}
	if err := r.Err(); err != nil {
		return nil, err
	}

	var err error
	switch {
	case r.Len() == 0:
	case m.StatsType == StatsFlow:
		m.Body, err = decodeFlowStatsRequest(r)
	case m.StatsType == StatsDesc || m.StatsType == StatsTable:
		err = errors.Wrapf(ofp.ErrMalformedMessage, "stats request type %d with %d byte body", m.StatsType, r.Len())
	default:
		m.Body = RawBody(r.Rest())
	}
	if err != nil {
		return nil, err
	}
	return m, r.Err()
}

func decodeStatsReply(h ofp.Header, body []byte) (ofp.Message, error) {
	r := ofp.NewReader(body)
	m := &StatsReply{Header: h, StatsType: r.Uint16(), Flags: r.Uint16()}
	if err := r.Err(); err != nil {
		return nil, err
	}

	var err error
	switch {
	case r.Len() == 0:
	case m.StatsType == StatsDesc:
		m.Body, err = decodeDesc(h, body, r)
	case m.StatsType == StatsFlow:
		m.Body, err = decodeFlowStatsList(r)
	case m.StatsType == StatsTable:
		m.Body, err = decodeTableStatsList(r)
	default:
		m.Body = RawBody(r.Rest())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "stats reply type %d", m.StatsType)
	}
	return m, r.Err()
}

type RawBody []byte

func (b RawBody) encode(w *ofp.Writer) {
	w.Write(b)
}

type Desc struct {
	Manufacturer string
	Hardware     string
	Software     string
	SerialNumber string
	Datapath     string
}

func (d *Desc) encode(w *ofp.Writer) {
	w.PutString(d.Manufacturer, descStrLen)
	w.PutString(d.Hardware, descStrLen)
	w.PutString(d.Software, descStrLen)
	w.PutString(d.SerialNumber, serialNumLen)
	w.PutString(d.Datapath, descStrLen)
}

func decodeDesc(h ofp.Header, body []byte, r *ofp.Reader) (*Desc, error) {
	if r.Len() != descLen {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "desc body is %d bytes, expected %d", r.Len(), descLen)
	}

	lm, err := unmarshal(h, body)
	if err != nil {
		return nil, err
	}
	reply, ok := lm.(*loxi.DescStatsReply)
	if !ok {
		return nil, unexpected(h, lm)
	}

	r.Skip(descLen)
	return &Desc{
		Manufacturer: reply.GetMfrDesc(),
		Hardware:     reply.GetHwDesc(),
		Software:     reply.GetSwDesc(),
		SerialNumber: reply.GetSerialNum(),
		Datapath:     reply.GetDpDesc(),
	}, nil
}

type FlowStatsRequest struct {
	Match   Match
	TableID uint8
	OutPort uint16
}

func (f *FlowStatsRequest) encode(w *ofp.Writer) {
	f.Match.encode(w)
	w.PutUint8(f.TableID)
	w.Zero(1)
	w.PutUint16(f.OutPort)
}

func decodeFlowStatsRequest(r *ofp.Reader) (*FlowStatsRequest, error) {
	if r.Len() != matchLen+4 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "flow stats request is %d bytes", r.Len())
	}
	f := &FlowStatsRequest{Match: decodeMatch(r), TableID: r.Uint8()}
	r.Skip(1)
	f.OutPort = r.Uint16()
	return f, r.Err()
}

type FlowStats struct {
	TableID      uint8
	Match        Match
	DurationSec  uint32
	DurationNsec uint32
	Priority     uint16
	IdleTimeout  uint16
	HardTimeout  uint16
	Cookie       uint64
	PacketCount  uint64
	ByteCount    uint64
	Actions      []Action
}

func (f *FlowStats) encode(w *ofp.Writer) {
	w.PutUint16(uint16(flowStatsLen + actionsLen(f.Actions)))
	w.PutUint8(f.TableID)
	w.Zero(1)
	f.Match.encode(w)
	w.PutUint32(f.DurationSec)
	w.PutUint32(f.DurationNsec)
	w.PutUint16(f.Priority)
	w.PutUint16(f.IdleTimeout)
	w.PutUint16(f.HardTimeout)
	w.Zero(6)
	w.PutUint64(f.Cookie)
	w.PutUint64(f.PacketCount)
	w.PutUint64(f.ByteCount)
	EncodeActions(w, f.Actions)
}

type FlowStatsList []FlowStats

func (l FlowStatsList) encode(w *ofp.Writer) {
	for i := range l {
		l[i].encode(w)
	}
}

func decodeFlowStatsList(r *ofp.Reader) (FlowStatsList, error) {
	var list FlowStatsList
	for r.Len() > 0 {
		length, ok := r.PeekUint16(0)
		if !ok {
			return nil, errors.Wrapf(ofp.ErrTruncated, "flow stats at offset %d", r.Offset())
		}
		if length == 0 {
			return nil, errors.Wrapf(ofp.ErrLoopDetected, "flow stats at offset %d", r.Offset())
		}
		if length < flowStatsLen {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "flow stats length %d", length)
		}
		if int(length) > r.Len() {
			return nil, errors.Wrapf(ofp.ErrTruncated, "flow stats declares %d bytes, %d left", length, r.Len())
		}

		sub := r.Sub(int(length))
		var f FlowStats
		sub.Skip(2)
		f.TableID = sub.Uint8()
		sub.Skip(1)
		f.Match = decodeMatch(sub)
		f.DurationSec = sub.Uint32()
		f.DurationNsec = sub.Uint32()
		f.Priority = sub.Uint16()
		f.IdleTimeout = sub.Uint16()
		f.HardTimeout = sub.Uint16()
		sub.Skip(6)
		f.Cookie = sub.Uint64()
		f.PacketCount = sub.Uint64()
		f.ByteCount = sub.Uint64()
		if err := sub.Err(); err != nil {
			return nil, err
		}

		actions, err := DecodeActions(sub.Rest())
		if err != nil {
			return nil, err
		}
		f.Actions = actions
		list = append(list, f)
	}
	return list, nil
}

type TableStats struct {
	TableID      uint8
	Name         string
	Wildcards    uint32
	MaxEntries   uint32
	ActiveCount  uint32
	LookupCount  uint64
	MatchedCount uint64
}

type TableStatsList []TableStats

func (l TableStatsList) encode(w *ofp.Writer) {
	for _, t := range l {
		w.PutUint8(t.TableID)
		w.Zero(3)
		w.PutString(t.Name, tableNameLen)
		w.PutUint32(t.Wildcards)
		w.PutUint32(t.MaxEntries)
		w.PutUint32(t.ActiveCount)
		w.PutUint64(t.LookupCount)
		w.PutUint64(t.MatchedCount)
	}
}

func decodeTableStatsList(r *ofp.Reader) (TableStatsList, error) {
	if r.Len()%tableStatsLen != 0 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "table stats body is %d bytes", r.Len())
	}

	var list TableStatsList
	for r.Len() > 0 && r.Err() == nil {
		var t TableStats
		t.TableID = r.Uint8()
		r.Skip(3)
		t.Name = r.String(tableNameLen)
		t.Wildcards = r.Uint32()
		t.MaxEntries = r.Uint32()
		t.ActiveCount = r.Uint32()
		t.LookupCount = r.Uint64()
		t.MatchedCount = r.Uint64()
		list = append(list, t)
	}
	return list, r.Err()
}
