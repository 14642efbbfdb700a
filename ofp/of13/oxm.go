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
	"fmt"
	"net"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

const (
	OxmClassNXM0          uint16 = ofp13.OFPXMC_NXM_0
	OxmClassNXM1          uint16 = ofp13.OFPXMC_NXM_1
	OxmClassOpenFlowBasic uint16 = ofp13.OFPXMC_OPENFLOW_BASIC
	OxmClassExperimenter  uint16 = ofp13.OFPXMC_EXPERIMENTER
)

// OPENFLOW_BASIC match fields
const (
	OxmInPort       uint8 = ofp13.OFPXMT_OFB_IN_PORT
	OxmInPhyPort    uint8 = ofp13.OFPXMT_OFB_IN_PHY_PORT
	OxmMetadata     uint8 = ofp13.OFPXMT_OFB_METADATA
	OxmEthDst       uint8 = ofp13.OFPXMT_OFB_ETH_DST
	OxmEthSrc       uint8 = ofp13.OFPXMT_OFB_ETH_SRC
	OxmEthType      uint8 = ofp13.OFPXMT_OFB_ETH_TYPE
	OxmVlanVID      uint8 = ofp13.OFPXMT_OFB_VLAN_VID
	OxmVlanPCP      uint8 = ofp13.OFPXMT_OFB_VLAN_PCP
	OxmIPProto      uint8 = ofp13.OFPXMT_OFB_IP_PROTO
	OxmIPv4Src      uint8 = ofp13.OFPXMT_OFB_IPV4_SRC
	OxmIPv4Dst      uint8 = ofp13.OFPXMT_OFB_IPV4_DST
	OxmTunnelID     uint8 = ofp13.OFPXMT_OFB_TUNNEL_ID
	OxmIPv6ExtHdr   uint8 = ofp13.OFPXMT_OFB_IPV6_EXTHDR
	oxmBasicFieldsN       = int(OxmIPv6ExtHdr) + 1
)

// payload size of every OPENFLOW_BASIC field, without mask
var oxmBasicSize = [oxmBasicFieldsN]int{
	ofp13.OFPXMT_OFB_IN_PORT:        4,
	ofp13.OFPXMT_OFB_IN_PHY_PORT:    4,
	ofp13.OFPXMT_OFB_METADATA:       8,
	ofp13.OFPXMT_OFB_ETH_DST:        6,
	ofp13.OFPXMT_OFB_ETH_SRC:        6,
	ofp13.OFPXMT_OFB_ETH_TYPE:       2,
	ofp13.OFPXMT_OFB_VLAN_VID:       2,
	ofp13.OFPXMT_OFB_VLAN_PCP:       1,
	ofp13.OFPXMT_OFB_IP_DSCP:        1,
	ofp13.OFPXMT_OFB_IP_ECN:         1,
	ofp13.OFPXMT_OFB_IP_PROTO:       1,
	ofp13.OFPXMT_OFB_IPV4_SRC:       4,
	ofp13.OFPXMT_OFB_IPV4_DST:       4,
	ofp13.OFPXMT_OFB_TCP_SRC:        2,
	ofp13.OFPXMT_OFB_TCP_DST:        2,
	ofp13.OFPXMT_OFB_UDP_SRC:        2,
	ofp13.OFPXMT_OFB_UDP_DST:        2,
	ofp13.OFPXMT_OFB_SCTP_SRC:       2,
	ofp13.OFPXMT_OFB_SCTP_DST:       2,
	ofp13.OFPXMT_OFB_ICMPV4_TYPE:    1,
	ofp13.OFPXMT_OFB_ICMPV4_CODE:    1,
	ofp13.OFPXMT_OFB_ARP_OP:         2,
	ofp13.OFPXMT_OFB_ARP_SPA:        4,
	ofp13.OFPXMT_OFB_ARP_TPA:        4,
	ofp13.OFPXMT_OFB_ARP_SHA:        6,
	ofp13.OFPXMT_OFB_ARP_THA:        6,
	ofp13.OFPXMT_OFB_IPV6_SRC:       16,
	ofp13.OFPXMT_OFB_IPV6_DST:       16,
	ofp13.OFPXMT_OFB_IPV6_FLABEL:    4,
	ofp13.OFPXMT_OFB_ICMPV6_TYPE:    1,
	ofp13.OFPXMT_OFB_ICMPV6_CODE:    1,
	ofp13.OFPXMT_OFB_IPV6_ND_TARGET: 16,
	ofp13.OFPXMT_OFB_IPV6_ND_SLL:    6,
	ofp13.OFPXMT_OFB_IPV6_ND_TLL:    6,
	ofp13.OFPXMT_OFB_MPLS_LABEL:     4,
	ofp13.OFPXMT_OFB_MPLS_TC:        1,
	ofp13.OFPXMT_OFB_MPLS_BOS:       1,
	ofp13.OFPXMT_OFB_PBB_ISID:       3,
	ofp13.OFPXMT_OFB_TUNNEL_ID:      8,
	ofp13.OFPXMT_OFB_IPV6_EXTHDR:    2,
}

const oxmHeaderLen = 4

// Oxm is one OpenFlow extensible match TLV. Fields of classes other than
// OPENFLOW_BASIC are carried opaquely.
type Oxm struct {
	Class   uint16
	Field   uint8
	HasMask bool
	Value   []byte
	Mask    []byte
}

// Len is the encoded size including the TLV header.
func (o Oxm) Len() int {
	return oxmHeaderLen + len(o.Value) + len(o.Mask)
}

// TypeHeader returns the 32 bit oxm header with the given payload length.
func (o Oxm) TypeHeader() uint32 {
	h := uint32(o.Class)<<16 | uint32(o.Field)<<9 | uint32(len(o.Value)+len(o.Mask))
	if o.HasMask {
		h |= 1 << 8
	}
	return h
}

func (o Oxm) String() string {
	if o.Class != OxmClassOpenFlowBasic {
		return fmt.Sprintf("oxm(class=%#04x field=%d len=%d)", o.Class, o.Field, len(o.Value))
	}

	switch o.Field {
	case OxmInPort:
		return fmt.Sprintf("in_port=%d", binary.BigEndian.Uint32(o.Value))
	case OxmEthDst, OxmEthSrc:
		name := "eth_dst"
		if o.Field == OxmEthSrc {
			name = "eth_src"
		}
		if o.HasMask {
			return fmt.Sprintf("%s=%s/%s", name, net.HardwareAddr(o.Value), net.HardwareAddr(o.Mask))
		}
		return fmt.Sprintf("%s=%s", name, net.HardwareAddr(o.Value))
	case OxmVlanVID:
		vid, present := o.VlanVID()
		if !present {
			return "vlan_vid=none"
		}
		return fmt.Sprintf("vlan_vid=%d", vid)
	}
	return fmt.Sprintf("oxm(field=%d value=%x)", o.Field, o.Value)
}

// VlanVID reports the VLAN id with the OFPVID_PRESENT bit removed.
func (o Oxm) VlanVID() (uint16, bool) {
	if len(o.Value) != 2 {
		return 0, false
	}
	v := binary.BigEndian.Uint16(o.Value)
	return v &^ VlanPresent, v&VlanPresent != 0
}

func NewOxmInPort(port uint32) Oxm {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, port)
	return Oxm{Class: OxmClassOpenFlowBasic, Field: OxmInPort, Value: v}
}

func NewOxmEthDst(addr net.HardwareAddr) Oxm {
	v := make([]byte, 6)
	copy(v, addr)
	return Oxm{Class: OxmClassOpenFlowBasic, Field: OxmEthDst, Value: v}
}

func NewOxmEthSrc(addr net.HardwareAddr) Oxm {
	v := make([]byte, 6)
	copy(v, addr)
	return Oxm{Class: OxmClassOpenFlowBasic, Field: OxmEthSrc, Value: v}
}

func NewOxmVlanVID(vid uint16) Oxm {
	v := make([]byte, 2)
	binary.BigEndian.PutUint16(v, vid|VlanPresent)
	return Oxm{Class: OxmClassOpenFlowBasic, Field: OxmVlanVID, Value: v}
}

func (o Oxm) basic(field uint8) bool {
	return o.Class == OxmClassOpenFlowBasic && o.Field == field
}

// lib converts o into the gofc field type for it. Fields gofc has no
// type for, and every field outside OPENFLOW_BASIC, travel as opaqueOxm.
func (o Oxm) lib() ofp13.OxmField {
	switch {
	case o.basic(OxmInPort) && !o.HasMask:
		return ofp13.NewOxmInPort(binary.BigEndian.Uint32(o.Value))
	case o.basic(OxmEthDst), o.basic(OxmEthSrc):
		return &ofp13.OxmEth{TlvHeader: o.TypeHeader(), Value: net.HardwareAddr(o.Value), Mask: net.HardwareAddr(o.Mask)}
	case o.basic(OxmVlanVID):
		f := &ofp13.OxmVlanVid{TlvHeader: o.TypeHeader(), Value: binary.BigEndian.Uint16(o.Value)}
		if o.HasMask {
			f.Mask = binary.BigEndian.Uint16(o.Mask)
		}
		return f
	case o.basic(OxmEthType) && !o.HasMask:
		return &ofp13.OxmEthType{TlvHeader: o.TypeHeader(), Value: binary.BigEndian.Uint16(o.Value)}
	case o.basic(OxmMetadata):
		f := &ofp13.OxmMetadata{TlvHeader: o.TypeHeader(), Value: binary.BigEndian.Uint64(o.Value)}
		if o.HasMask {
			f.Mask = binary.BigEndian.Uint64(o.Mask)
		}
		return f
	}
	return &opaqueOxm{o}
}

// opaqueOxm implements ofp13.OxmField for a TLV kept as raw bytes.
type opaqueOxm struct {
	Oxm
}

func (f *opaqueOxm) Serialize() []byte {
	w := ofp.NewWriter(f.Len())
	w.PutUint32(f.TypeHeader())
	w.Write(f.Value)
	if f.HasMask {
		w.Write(f.Mask)
	}
	return w.Bytes()
}

func (f *opaqueOxm) Parse(packet []byte) {
	r := ofp.NewReader(packet)
	if o, err := decodeOxm(r); err == nil {
		f.Oxm = o
	}
}

func (f *opaqueOxm) OxmClass() uint32 { return uint32(f.Class) }
func (f *opaqueOxm) OxmField() uint32 { return uint32(f.Field) }
func (f *opaqueOxm) Length() uint32   { return uint32(len(f.Value) + len(f.Mask)) }
func (f *opaqueOxm) Size() int        { return f.Len() }

func (f *opaqueOxm) OxmHasMask() uint32 {
	if f.HasMask {
		return 1
	}
	return 0
}

func encodeOxm(w *ofp.Writer, o Oxm) {
	w.Write(o.lib().Serialize())
}

// EncodeOxmList writes the TLVs without any trailing padding.
func EncodeOxmList(w *ofp.Writer, list []Oxm) {
	for _, o := range list {
		encodeOxm(w, o)
	}
}

func oxmListLen(list []Oxm) int {
	n := 0
	for _, o := range list {
		n += o.Len()
	}
	return n
}

// decodeOxm reads one TLV from r.
func decodeOxm(r *ofp.Reader) (Oxm, error) {
	var o Oxm

	h := r.Uint32()
	if err := r.Err(); err != nil {
		return o, errors.Wrap(err, "oxm header")
	}

	o.Class = uint16(h >> 16)
	o.Field = uint8(h>>9) & 0x7f
	o.HasMask = h&(1<<8) != 0
	length := int(h & 0xff)

	if length > r.Len() {
		return o, errors.Wrapf(ofp.ErrTruncated, "oxm field %d declares %d bytes, %d left", o.Field, length, r.Len())
	}

	if o.Class == OxmClassOpenFlowBasic {
		if int(o.Field) >= oxmBasicFieldsN {
			return o, errors.Wrapf(ofp.ErrUnsupportedField, "openflow basic field %d", o.Field)
		}
		want := oxmBasicSize[o.Field]
		if o.HasMask {
			want *= 2
		}
		if length != want {
			return o, errors.Wrapf(ofp.ErrMalformedMessage, "oxm field %d has length %d, expected %d", o.Field, length, want)
		}
	} else if o.HasMask && length%2 != 0 {
		return o, errors.Wrapf(ofp.ErrMalformedMessage, "masked oxm of class %#04x has odd length %d", o.Class, length)
	}

	if o.HasMask {
		o.Value = r.Bytes(length / 2)
		o.Mask = r.Bytes(length / 2)
	} else {
		o.Value = r.Bytes(length)
	}

	return o, r.Err()
}

// DecodeOxmList decodes a TLV list that occupies exactly data.
func DecodeOxmList(data []byte) ([]Oxm, error) {
	var list []Oxm

	r := ofp.NewReader(data)
	for r.Len() > 0 {
		o, err := decodeOxm(r)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}

	return list, nil
}

// decodeOxmIDs reads a list of bare oxm headers, as used by table feature
// properties, returning them as headers.
func decodeOxmIDs(r *ofp.Reader) ([]uint32, error) {
	var ids []uint32
	for r.Len() > 0 {
		h := r.Uint32()
		if err := r.Err(); err != nil {
			return nil, errors.Wrap(err, "oxm id")
		}
		// experimenter ids carry the experimenter after the header
		if uint16(h>>16) == OxmClassExperimenter {
			r.Skip(4)
		}
		ids = append(ids, h)
	}
	return ids, r.Err()
}

// OxmHeaderField splits an oxm header into class and field.
func OxmHeaderField(h uint32) (uint16, uint8) {
	return uint16(h >> 16), uint8(h>>9) & 0x7f
}
