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
	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

const multipartHeaderLen = 8

// MultipartBody is the typed payload of a multipart request or reply.
type MultipartBody interface {
	encode(w *ofp.Writer)
}

// MultipartRequest carries a body of a type registered in
// decodeMultipartBody or a RawBody for every other multipart type.
type MultipartRequest struct {
	ofp.Header
	MpType uint16
	Flags  uint16
	Body   MultipartBody
}

func (m *MultipartRequest) More() bool {
	return m.Flags&MultipartRequestMore != 0
}

func (m *MultipartRequest) MarshalBinary() ([]byte, error) {
	lm := &ofp13.OfpMultipartRequest{Header: libHeader(&m.Header), Type: m.MpType, Flags: m.Flags}
	size := ofp.HeaderLen + multipartHeaderLen
	if m.Body != nil {
		body, n := libMultipartBody(m.MpType, m.Body)
		lm.Body = body
		size += n
	}
	return finish(&m.Header, lm.Serialize(), size)
}

// libMultipartBody returns the gofc form of a request body and its wire
// length.
func libMultipartBody(typ uint16, body MultipartBody) (ofp13.OfpMultipartBody, int) {
	if f, ok := body.(*FlowStatsRequest); ok {
		return f.lib(), flowStatsRequestFixedLen + f.Match.padded()
	}

	w := ofp.NewWriter(64)
	body.encode(w)
	return &encodedBody{typ: typ, data: w.Bytes()}, w.Len()
}

// encodedBody hands an already encoded body to gofc.
type encodedBody struct {
	typ  uint16
	data []byte
}

func (b *encodedBody) Serialize() []byte { return b.data }
func (b *encodedBody) Parse([]byte)      {}
func (b *encodedBody) Size() int         { return len(b.data) }
func (b *encodedBody) MPType() uint16    { return b.typ }

type MultipartReply struct {
	ofp.Header
	MpType uint16
	Flags  uint16
	Body   MultipartBody
}

func (m *MultipartReply) More() bool {
	return m.Flags&MultipartReplyMore != 0
}

// MarshalBinary encodes the switch side reply. ofp13 cannot serialize
// multipart replies.
func (m *MultipartReply) MarshalBinary() ([]byte, error) {
	w := ofp.BeginMessage(&m.Header)
	w.PutUint16(m.MpType)
	w.PutUint16(m.Flags)
	w.Zero(4)
	if m.Body != nil {
		m.Body.encode(w)
	}
	return ofp.FinishMessage(&m.Header, w)
}

func decodeMultipartRequest(h ofp.Header, data []byte) (ofp.Message, error) {
	r := ofp.NewReader(data)
	m := &MultipartRequest{Header: h, MpType: r.Uint16(), Flags: r.Uint16()}
	r.Skip(4)
	if err := r.Err(); err != nil {
		return nil, err
	}

	body, err := decodeMultipartBody(m.MpType, true, r)
	if err != nil {
		return nil, errors.Wrapf(err, "multipart request type %d", m.MpType)
	}
	m.Body = body
	return m, nil
}

func decodeMultipartReply(h ofp.Header, data []byte) (ofp.Message, error) {
	r := ofp.NewReader(data)
	m := &MultipartReply{Header: h, MpType: r.Uint16(), Flags: r.Uint16()}
	r.Skip(4)
	if err := r.Err(); err != nil {
		return nil, err
	}

	body, err := decodeMultipartBody(m.MpType, false, r)
	if err != nil {
		return nil, errors.Wrapf(err, "multipart reply type %d", m.MpType)
	}
	m.Body = body
	return m, nil
}

// decodeMultipartBody returns nil for an empty body of any type.
func decodeMultipartBody(typ uint16, request bool, r *ofp.Reader) (MultipartBody, error) {
	if r.Len() == 0 {
		return nil, nil
	}

	switch {
	case typ == MultipartDesc && !request:
		return decodeDesc(r)
	case typ == MultipartDesc && request:
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "desc request with %d byte body", r.Len())
	case typ == MultipartFlow && request:
		return decodeFlowStatsRequest(r)
	case typ == MultipartFlow && !request:
		return decodeFlowStatsList(r)
	case typ == MultipartTableFeatures:
		return decodeTableFeaturesList(r)
	}

	return RawBody(r.Rest()), r.Err()
}

// RawBody is the opaque body of a multipart type without a decoder.
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

const descLen = 4*descStrLen + serialNumLen

func (d *Desc) encode(w *ofp.Writer) {
	w.PutString(d.Manufacturer, descStrLen)
	w.PutString(d.Hardware, descStrLen)
	w.PutString(d.Software, descStrLen)
	w.PutString(d.SerialNumber, serialNumLen)
	w.PutString(d.Datapath, descStrLen)
}

func decodeDesc(r *ofp.Reader) (*Desc, error) {
	if r.Len() != descLen {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "desc body is %d bytes, expected %d", r.Len(), descLen)
	}

	ld := &ofp13.OfpDescStats{
		MfrDesc:   make([]byte, descStrLen),
		HwDesc:    make([]byte, descStrLen),
		SwDesc:    make([]byte, descStrLen),
		SerialNum: make([]byte, serialNumLen),
		DpDesc:    make([]byte, descStrLen),
	}
	ld.Parse(r.Rest())
	return &Desc{
		Manufacturer: cstring(ld.MfrDesc),
		Hardware:     cstring(ld.HwDesc),
		Software:     cstring(ld.SwDesc),
		SerialNumber: cstring(ld.SerialNum),
		Datapath:     cstring(ld.DpDesc),
	}, r.Err()
}

type FlowStatsRequest struct {
	TableID    uint8
	OutPort    uint32
	OutGroup   uint32
	Cookie     uint64
	CookieMask uint64
	Match      Match
}

const flowStatsRequestFixedLen = 32

func (f *FlowStatsRequest) lib() *ofp13.OfpFlowStatsRequest {
	return &ofp13.OfpFlowStatsRequest{
		TableId:    f.TableID,
		OutPort:    f.OutPort,
		OutGroup:   f.OutGroup,
		Cookie:     f.Cookie,
		CookieMask: f.CookieMask,
		Match:      f.Match.lib(),
	}
}

func (f *FlowStatsRequest) encode(w *ofp.Writer) {
	w.Write(f.lib().Serialize()[:flowStatsRequestFixedLen+f.Match.padded()])
}

func decodeFlowStatsRequest(r *ofp.Reader) (*FlowStatsRequest, error) {
	f := &FlowStatsRequest{TableID: r.Uint8()}
	r.Skip(3)
	f.OutPort = r.Uint32()
	f.OutGroup = r.Uint32()
	r.Skip(4)
	f.Cookie = r.Uint64()
	f.CookieMask = r.Uint64()
	if err := r.Err(); err != nil {
		return nil, err
	}

	match, err := decodeMatch(r)
	if err != nil {
		return nil, err
	}
	f.Match = match

	if r.Len() != 0 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "%d trailing bytes after flow stats request", r.Len())
	}
	return f, nil
}

const flowStatsFixedLen = 48

type FlowStats struct {
	TableID      uint8
	DurationSec  uint32
	DurationNsec uint32
	Priority     uint16
	IdleTimeout  uint16
	HardTimeout  uint16
	Flags        uint16
	Cookie       uint64
	PacketCount  uint64
	ByteCount    uint64
	Match        Match
	Instructions []Instruction
}

func (f *FlowStats) length() int {
	match := f.Match.Len()
	n := flowStatsFixedLen + match + ofp.Pad8(match)
	for _, i := range f.Instructions {
		n += i.Len()
	}
	return n
}

func (f *FlowStats) encode(w *ofp.Writer) {
	w.PutUint16(uint16(f.length()))
	w.PutUint8(f.TableID)
	w.Zero(1)
	w.PutUint32(f.DurationSec)
	w.PutUint32(f.DurationNsec)
	w.PutUint16(f.Priority)
	w.PutUint16(f.IdleTimeout)
	w.PutUint16(f.HardTimeout)
	w.PutUint16(f.Flags)
	w.Zero(4)
	w.PutUint64(f.Cookie)
	w.PutUint64(f.PacketCount)
	w.PutUint64(f.ByteCount)
	f.Match.encode(w)
	EncodeInstructions(w, f.Instructions)
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
		if length < flowStatsFixedLen {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "flow stats length %d", length)
		}
		if int(length) > r.Len() {
			return nil, errors.Wrapf(ofp.ErrTruncated, "flow stats declares %d bytes, %d left", length, r.Len())
		}

		f, err := decodeFlowStats(r.Sub(int(length)))
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, nil
}

func decodeFlowStats(r *ofp.Reader) (FlowStats, error) {
	var f FlowStats
	r.Skip(2)
	f.TableID = r.Uint8()
	r.Skip(1)
	f.DurationSec = r.Uint32()
	f.DurationNsec = r.Uint32()
	f.Priority = r.Uint16()
	f.IdleTimeout = r.Uint16()
	f.HardTimeout = r.Uint16()
	f.Flags = r.Uint16()
	r.Skip(4)
	f.Cookie = r.Uint64()
	f.PacketCount = r.Uint64()
	f.ByteCount = r.Uint64()
	if err := r.Err(); err != nil {
		return f, err
	}

	match, err := decodeMatch(r)
	if err != nil {
		return f, err
	}
	f.Match = match

	instructions, err := DecodeInstructions(r.Rest())
	if err != nil {
		return f, err
	}
	f.Instructions = instructions
	return f, nil
}
