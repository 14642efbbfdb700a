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
	"github.com/pkg/errors"
)

const helloElemVersionBitmap = 1

// HelloElement is one TLV of an OpenFlow 1.3 HELLO body.
type HelloElement struct {
	Type uint16
	Data []byte
}

// Hello is shared by every version. Elements are only present from
// OpenFlow 1.3 on, earlier versions ignore the body.
type Hello struct {
	Header
	Elements []HelloElement
}

// NewHello builds a HELLO for version, advertising versions in a version
// bitmap element when the protocol has one.
func NewHello(version uint8, xid uint32, versions ...uint8) *Hello {
	m := &Hello{
		Header: Header{Version: version, Type: TypeHello, Xid: xid},
	}

	if version < Version13 || len(versions) == 0 {
		return m
	}

	var bitmap []uint32
	for _, v := range versions {
		idx := int(v / 32)
		for len(bitmap) <= idx {
			bitmap = append(bitmap, 0)
		}
		bitmap[idx] |= 1 << (v % 32)
	}

	w := NewWriter(4 * len(bitmap))
	for _, b := range bitmap {
		w.PutUint32(b)
	}

	m.Elements = []HelloElement{{Type: helloElemVersionBitmap, Data: w.Bytes()}}
	return m
}

// VersionBitmap returns the versions advertised in the version bitmap
// element, or false when the peer sent none.
func (m *Hello) VersionBitmap() ([]uint8, bool) {
	for _, e := range m.Elements {
		if e.Type != helloElemVersionBitmap {
			continue
		}

		var versions []uint8
		r := NewReader(e.Data)
		for i := 0; r.Len() >= 4; i++ {
			b := r.Uint32()
			for bit := uint(0); bit < 32; bit++ {
				if b&(1<<bit) != 0 && i*32+int(bit) < 256 {
					versions = append(versions, uint8(i*32+int(bit)))
				}
			}
		}
		return versions, true
	}
	return nil, false
}

func (m *Hello) MarshalBinary() ([]byte, error) {
	w := BeginMessage(&m.Header)
	for _, e := range m.Elements {
		length := 4 + len(e.Data)
		w.PutUint16(e.Type)
		w.PutUint16(uint16(length))
		w.Write(e.Data)
		w.Zero(Pad8(length))
	}
	return FinishMessage(&m.Header, w)
}

// DecodeHello decodes a HELLO of any version, including versions this
// controller does not speak, so that negotiation can take place.
func DecodeHello(h Header, body []byte) (*Hello, error) {
	m := &Hello{Header: h}
	if h.Version < Version13 {
		return m, nil
	}

	r := NewReader(body)
	for r.Len() > 0 {
		typ := r.Uint16()
		length := int(r.Uint16())
		if err := r.Err(); err != nil {
			return nil, err
		}

		if length == 0 {
			return nil, errors.Wrap(ErrLoopDetected, "hello element")
		}
		if length < 4 {
			return nil, errors.Wrapf(ErrMalformedMessage, "hello element length %d", length)
		}

		e := HelloElement{Type: typ, Data: r.Bytes(length - 4)}
		// the final element may omit its padding
		if pad := Pad8(length); r.Len() >= pad {
			r.Skip(pad)
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		m.Elements = append(m.Elements, e)
	}

	return m, nil
}

// Negotiate picks the protocol version for a connection given the peer's
// HELLO and the versions supported locally.
func Negotiate(peer *Hello, supported []uint8) (uint8, error) {
	if len(supported) == 0 {
		return 0, errors.Wrap(ErrBadVersion, "no supported versions")
	}

	local := make(map[uint8]bool)
	highest := supported[0]
	for _, v := range supported {
		local[v] = true
		if v > highest {
			highest = v
		}
	}

	if versions, ok := peer.VersionBitmap(); ok {
		var best uint8
		for _, v := range versions {
			if local[v] && v > best {
				best = v
			}
		}
		if best == 0 {
			return 0, errors.Wrapf(ErrBadVersion, "no common version in peer bitmap %v", versions)
		}
		return best, nil
	}

	v := peer.Version
	if v > highest {
		v = highest
	}
	if !local[v] {
		return 0, errors.Wrapf(ErrBadVersion, "peer version %#02x is not supported", peer.Version)
	}
	return v, nil
}
