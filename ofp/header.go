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
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

const (
	Version10 uint8 = 0x01
	Version13 uint8 = 0x04

	HeaderLen     = 8
	MaxMessageLen = 0xffff
)

// Message types shared by OpenFlow 1.0 and 1.3. Types above FLOW_MOD are
// numbered differently by each version and live in the version packages.
const (
	TypeHello uint8 = iota
	TypeError
	TypeEchoRequest
	TypeEchoReply
	TypeExperimenter
	TypeFeaturesRequest
	TypeFeaturesReply
	TypeGetConfigRequest
	TypeGetConfigReply
	TypeSetConfig
	TypePacketIn
	TypeFlowRemoved
	TypePortStatus
	TypePacketOut
	TypeFlowMod
)

// number of known message types per version
var typeCount = map[uint8]uint8{
	Version10: 22,
	Version13: 30,
}

// Header is the fixed ofp_header every OpenFlow message starts with.
type Header struct {
	Version uint8
	Type    uint8
	Length  uint16
	Xid     uint32
}

func (h *Header) MessageHeader() *Header {
	return h
}

func (h Header) String() string {
	return fmt.Sprintf("version=%#02x type=%d length=%d xid=%d", h.Version, h.Type, h.Length, h.Xid)
}

func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderLen {
		return errors.Wrapf(ErrTruncated, "header needs %d bytes, have %d", HeaderLen, len(data))
	}

	h.Version = data[0]
	h.Type = data[1]
	h.Length = binary.BigEndian.Uint16(data[2:4])
	h.Xid = binary.BigEndian.Uint32(data[4:8])

	if h.Length < HeaderLen {
		return errors.Wrapf(ErrMalformedMessage, "header length %d is shorter than the header", h.Length)
	}
	return nil
}

func (h *Header) MarshalBinary() ([]byte, error) {
	w := BeginMessage(h)
	return FinishMessage(h, w)
}

// MessageLength reads the total message length from the first bytes of
// a message. The caller must provide at least HeaderLen bytes.
func MessageLength(buf []byte) int {
	return int(binary.BigEndian.Uint16(buf[2:]))
}

// TypeMax returns the number of message types known for version.
func TypeMax(version uint8) (uint8, bool) {
	n, ok := typeCount[version]
	return n, ok
}

// ValidateHeader checks h against the negotiated version. An expected
// version of zero accepts any supported version.
func ValidateHeader(h *Header, expected uint8) error {
	if expected != 0 && h.Version != expected {
		return errors.Wrapf(ErrBadVersion, "got %#02x, expected %#02x", h.Version, expected)
	}

	n, ok := typeCount[h.Version]
	if !ok {
		return errors.Wrapf(ErrBadVersion, "unsupported version %#02x", h.Version)
	}

	if h.Type >= n {
		return errors.Wrapf(ErrBadType, "type %d out of range for version %#02x", h.Type, h.Version)
	}

	return nil
}
