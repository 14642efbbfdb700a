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
	"fmt"
	"net"
	"strings"

	"github.com/skydive-project/goloxi"
	loxi "github.com/skydive-project/goloxi/of10"

	"github.com/k-vswitch/switchd/ofp"
)

// Match is the fixed 40 byte ofp_match. Fields whose wildcard bit is set
// are ignored by the switch.
type Match struct {
	Wildcards uint32
	InPort    uint16
	DlSrc     [6]byte
	DlDst     [6]byte
	DlVlan    uint16
	DlVlanPCP uint8
	DlType    uint16
	NwTos     uint8
	NwProto   uint8
	NwSrc     uint32
	NwDst     uint32
	TpSrc     uint16
	TpDst     uint16
}

// NewMatch returns a match with every field wildcarded.
func NewMatch() Match {
	return Match{Wildcards: WildcardAll}
}

func (m *Match) SetInPort(port uint16) {
	m.InPort = port
	m.Wildcards &^= WildcardInPort
}

func (m *Match) SetDlDst(addr net.HardwareAddr) {
	copy(m.DlDst[:], addr)
	m.Wildcards &^= WildcardDlDst
}

func (m *Match) SetDlSrc(addr net.HardwareAddr) {
	copy(m.DlSrc[:], addr)
	m.Wildcards &^= WildcardDlSrc
}

func (m Match) String() string {
	var fields []string
	if m.Wildcards&WildcardInPort == 0 {
		fields = append(fields, fmt.Sprintf("in_port=%d", m.InPort))
	}
	if m.Wildcards&WildcardDlSrc == 0 {
		fields = append(fields, fmt.Sprintf("dl_src=%s", net.HardwareAddr(m.DlSrc[:])))
	}
	if m.Wildcards&WildcardDlDst == 0 {
		fields = append(fields, fmt.Sprintf("dl_dst=%s", net.HardwareAddr(m.DlDst[:])))
	}
	if len(fields) == 0 {
		return "any"
	}
	return strings.Join(fields, ",")
}

// lib converts the match into the goloxi form. Addresses are always
// allocated at full width since goloxi writes them as they are.
func (m *Match) lib() *loxi.MatchV1 {
	lm := loxi.NewMatchV1()
	lm.SetWildcards(loxi.WcBmap(m.Wildcards))
	lm.SetInPort(loxi.Port(m.InPort))
	lm.SetEthSrc(hwAddr(m.DlSrc[:]))
	lm.SetEthDst(hwAddr(m.DlDst[:]))
	lm.SetVlanVid(m.DlVlan)
	lm.SetVlanPcp(m.DlVlanPCP)
	lm.SetEthType(m.DlType)
	lm.SetIpDscp(m.NwTos)
	lm.SetIpProto(m.NwProto)
	lm.SetIpv4Src(ipv4(m.NwSrc))
	lm.SetIpv4Dst(ipv4(m.NwDst))
	lm.SetTcpSrc(m.TpSrc)
	lm.SetTcpDst(m.TpDst)
	return lm
}

func matchFromLib(lm *loxi.MatchV1) Match {
	m := Match{
		Wildcards: uint32(lm.GetWildcards()),
		InPort:    uint16(lm.GetInPort()),
		DlVlan:    lm.GetVlanVid(),
		DlVlanPCP: lm.GetVlanPcp(),
		DlType:    lm.GetEthType(),
		NwTos:     lm.GetIpDscp(),
		NwProto:   lm.GetIpProto(),
		NwSrc:     ipv4Value(lm.GetIpv4Src()),
		NwDst:     ipv4Value(lm.GetIpv4Dst()),
		TpSrc:     lm.GetTcpSrc(),
		TpDst:     lm.GetTcpDst(),
	}
	copy(m.DlSrc[:], lm.GetEthSrc())
	copy(m.DlDst[:], lm.GetEthDst())
	return m
}

func (m *Match) encode(w *ofp.Writer) {
	enc := goloxi.NewEncoder()
	m.lib().Serialize(enc)
	w.Write(enc.Bytes())
}

// decodeMatch reads the fixed match for messages goloxi does not decode
// here.
func decodeMatch(r *ofp.Reader) Match {
	var m Match
	m.Wildcards = r.Uint32()
	m.InPort = r.Uint16()
	copy(m.DlSrc[:], r.Bytes(6))
	copy(m.DlDst[:], r.Bytes(6))
	m.DlVlan = r.Uint16()
	m.DlVlanPCP = r.Uint8()
	r.Skip(1)
	m.DlType = r.Uint16()
	m.NwTos = r.Uint8()
	m.NwProto = r.Uint8()
	r.Skip(2)
	m.NwSrc = r.Uint32()
	m.NwDst = r.Uint32()
	m.TpSrc = r.Uint16()
	m.TpDst = r.Uint16()
	return m
}
