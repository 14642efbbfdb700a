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

type libMessage interface {
	Serialize(encoder *goloxi.Encoder) error
	SetXid(xid uint32)
}

// marshal serializes a goloxi message under the xid of h. The length is
// stamped from the encoded size.
func marshal(h *ofp.Header, m libMessage) ([]byte, error) {
	m.SetXid(h.Xid)
	enc := goloxi.NewEncoder()
	if err := m.Serialize(enc); err != nil {
		return nil, errors.Wrapf(err, "serialize type %d", h.Type)
	}

	data := enc.Bytes()
	if len(data) > ofp.MaxMessageLen {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "encoded size %d exceeds %d", len(data), ofp.MaxMessageLen)
	}
	h.Length = uint16(len(data))
	data[2], data[3] = byte(h.Length>>8), byte(h.Length)
	return data, nil
}

// unmarshal hands a structurally valid message to goloxi.
func unmarshal(h ofp.Header, body []byte) (goloxi.Message, error) {
	w := ofp.NewWriter(ofp.HeaderLen + len(body))
	w.PutUint8(h.Version)
	w.PutUint8(h.Type)
	w.PutUint16(uint16(ofp.HeaderLen + len(body)))
	w.PutUint32(h.Xid)
	w.Write(body)

	m, err := loxi.DecodeMessage(w.Bytes())
	if err != nil {
		return nil, errors.Wrap(ofp.ErrMalformedMessage, err.Error())
	}
	return m, nil
}

func unexpected(h ofp.Header, m goloxi.Message) error {
	return errors.Wrapf(ofp.ErrMalformedMessage, "type %d decoded as %T", h.Type, m)
}

func ipv4(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).To4()
}

func ipv4Value(ip net.IP) uint32 {
	ip = ip.To4()
	if ip == nil {
		return 0
	}
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func hwAddr(b []byte) net.HardwareAddr {
	addr := make(net.HardwareAddr, 6)
	copy(addr, b)
	return addr
}

func orNil(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
