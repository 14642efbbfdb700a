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
	"encoding/binary"
	"net"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

const matchHeaderLen = 4

// Match is an ofp_match of type OXM.
type Match struct {
	Fields []Oxm
}

func NewMatch(fields ...Oxm) Match {
	return Match{Fields: fields}
}

// Len is the match length as declared on the wire, without padding.
func (m Match) Len() int {
	return matchHeaderLen + oxmListLen(m.Fields)
}

func (m Match) field(field uint8) (Oxm, bool) {
	for _, o := range m.Fields {
		if o.Class == OxmClassOpenFlowBasic && o.Field == field {
			return o, true
		}
	}
	return Oxm{}, false
}

func (m Match) InPort() (uint32, bool) {
	o, ok := m.field(OxmInPort)
	if !ok || len(o.Value) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(o.Value), true
}

func (m Match) EthDst() (net.HardwareAddr, bool) {
	o, ok := m.field(OxmEthDst)
	if !ok {
		return nil, false
	}
	return net.HardwareAddr(o.Value), true
}

// padded is the number of bytes the match occupies inside a message.
func (m Match) padded() int {
	n := m.Len()
	return n + ofp.Pad8(n)
}

func (m Match) lib() *ofp13.OfpMatch {
	lm := ofp13.NewOfpMatch()
	for _, o := range m.Fields {
		lm.OxmFields = append(lm.OxmFields, o.lib())
	}
	return lm
}

func (m Match) encode(w *ofp.Writer) {
	w.Write(m.lib().Serialize()[:m.Len()])
	w.Zero(ofp.Pad8(m.Len()))
}

// decodeMatch reads a match and its padding from r.
func decodeMatch(r *ofp.Reader) (Match, error) {
	var m Match

	typ := r.Uint16()
	length := int(r.Uint16())
	if err := r.Err(); err != nil {
		return m, errors.Wrap(err, "match header")
	}

	if typ != MatchTypeOXM {
		return m, errors.Wrapf(ofp.ErrUnsupportedField, "match type %d", typ)
	}
	if length < matchHeaderLen {
		return m, errors.Wrapf(ofp.ErrMalformedMessage, "match length %d", length)
	}

	fields := r.Bytes(length - matchHeaderLen)
	r.Skip(ofp.Pad8(length))
	if err := r.Err(); err != nil {
		return m, errors.Wrap(err, "match fields")
	}

	list, err := DecodeOxmList(fields)
	if err != nil {
		return m, err
	}
	m.Fields = list

	return m, nil
}
