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

package ofp

import (
	"sort"
	"sync"

	"github.com/k-vswitch/switchd/flows"
	"github.com/pkg/errors"
)

// Reserved port numbers in their 32 bit OpenFlow 1.3 form. OpenFlow 1.0
// uses the same low 16 bits.
const (
	PortMax        uint32 = 0xffffff00
	PortInPort     uint32 = 0xfffffff8
	PortTable      uint32 = 0xfffffff9
	PortNormal     uint32 = 0xfffffffa
	PortFlood      uint32 = 0xfffffffb
	PortAll        uint32 = 0xfffffffc
	PortController uint32 = 0xfffffffd
	PortLocal      uint32 = 0xfffffffe
	PortAny        uint32 = 0xffffffff

	NoBuffer uint32 = 0xffffffff

	DefaultPriority uint16 = 0x8000
)

// Message is any decoded or locally built OpenFlow message.
type Message interface {
	MessageHeader() *Header
	MarshalBinary() ([]byte, error)
}

// Raw is a message of a known type that has no registered decoder. It is
// accepted structurally and carried as opaque bytes.
type Raw struct {
	Header
	Body []byte
}

func (m *Raw) MarshalBinary() ([]byte, error) {
	w := BeginMessage(&m.Header)
	w.Write(m.Body)
	return FinishMessage(&m.Header, w)
}

// PacketIn is the version independent view of a PACKET_IN used by the
// forwarding decision.
type PacketIn struct {
	InPort   uint32
	BufferID uint32
	TotalLen uint16
	Reason   uint8
	TableID  uint8
	Data     []byte
}

// PacketOut describes a PACKET_OUT with a single OUTPUT action.
type PacketOut struct {
	BufferID uint32
	InPort   uint32
	OutPort  uint32
	Data     []byte
}

// ErrorKind names the protocol errors the controller reports to a peer.
type ErrorKind int

const (
	ErrorHelloIncompatible ErrorKind = iota
	ErrorBadVersion
	ErrorBadType
	ErrorBadLength
	ErrorMultipartOverflow
)

// Factory builds the messages the controller sends, in the wire format of
// a single protocol version.
type Factory interface {
	Version() uint8
	NewHello(xid uint32) Message
	NewEchoRequest(xid uint32, data []byte) Message
	NewEchoReply(xid uint32, data []byte) Message
	NewFeaturesRequest(xid uint32) Message
	NewSetConfig(xid uint32, missSendLen uint16) Message
	NewBarrierRequest(xid uint32) Message
	NewDescRequest(xid uint32) Message
	NewFlowStatsRequest(xid uint32, tableID uint8) Message
	NewTableFeaturesRequest(xid uint32) (Message, error)
	NewFlowMod(xid uint32, flow *flows.Flow) (Message, error)
	NewPacketOut(xid uint32, po PacketOut) Message
	NewError(xid uint32, kind ErrorKind, data []byte) Message
}

// Codec decodes and validates the messages of one protocol version.
type Codec interface {
	Version() uint8
	Decode(h Header, body []byte) (Message, error)
	Factory() Factory
}

var (
	codecsMu sync.RWMutex
	codecs   = make(map[uint8]Codec)
)

// RegisterCodec makes a version codec available to Parse. It is called
// from the init function of each version package.
func RegisterCodec(c Codec) {
	if c == nil {
		panic("nil codec")
	}

	codecsMu.Lock()
	defer codecsMu.Unlock()

	if _, exists := codecs[c.Version()]; exists {
		panic("codec registered twice for the same version")
	}
	codecs[c.Version()] = c
}

func CodecFor(version uint8) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	c, ok := codecs[version]
	if !ok {
		return nil, errors.Wrapf(ErrBadVersion, "no codec for version %#02x", version)
	}
	return c, nil
}

// Versions returns the registered protocol versions in ascending order.
func Versions() []uint8 {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	versions := make([]uint8, 0, len(codecs))
	for v := range codecs {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// Parse validates the header of one complete message and decodes it with
// the codec of its version.
func Parse(data []byte, expected uint8) (Message, error) {
	var h Header
	if err := h.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	if int(h.Length) > len(data) {
		return nil, errors.Wrapf(ErrTruncated, "message length %d, have %d", h.Length, len(data))
	}

	if err := ValidateHeader(&h, expected); err != nil {
		return nil, err
	}

	c, err := CodecFor(h.Version)
	if err != nil {
		return nil, err
	}

	return c.Decode(h, data[HeaderLen:h.Length])
}

// Validate encodes m and decodes the result again, returning the encoded
// bytes. It is used on every locally generated message before it is
// handed to the transport.
func Validate(m Message) ([]byte, error) {
	data, err := m.MarshalBinary()
	if err != nil {
		return nil, err
	}

	if _, err := Parse(data, m.MessageHeader().Version); err != nil {
		return nil, err
	}
	return data, nil
}
