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
	"github.com/k-vswitch/switchd/ofp"
)

// decoder validates a body and converts it into the package's message
// types. Most decoders hand the validated bytes to goloxi.
type decoder func(h ofp.Header, body []byte) (ofp.Message, error)

var decoders = map[uint8]decoder{
	TypeError:            decodeError,
	TypeEchoRequest:      decodeEcho,
	TypeEchoReply:        decodeEcho,
	TypeFeaturesRequest:  decodeEmpty,
	TypeFeaturesReply:    decodeFeaturesReply,
	TypeGetConfigRequest: decodeEmpty,
	TypeGetConfigReply:   decodeSwitchConfig,
	TypeSetConfig:        decodeSwitchConfig,
	TypePacketIn:         decodePacketIn,
	TypeFlowRemoved:      decodeFlowRemoved,
	TypePortStatus:       decodePortStatus,
	TypePacketOut:        decodePacketOut,
	TypeFlowMod:          decodeFlowMod,
	TypeStatsRequest:     decodeStatsRequest,
	TypeStatsReply:       decodeStatsReply,
	TypeBarrierRequest:   decodeEmpty,
	TypeBarrierReply:     decodeEmpty,
}

type codec struct{}

func (codec) Version() uint8 {
	return Version
}

func (codec) Decode(h ofp.Header, body []byte) (ofp.Message, error) {
	if h.Type == TypeHello {
		m, err := ofp.DecodeHello(h, body)
		if err != nil {
			return nil, ofp.Malformed(h, err)
		}
		return m, nil
	}

	decode, ok := decoders[h.Type]
	if !ok {
		raw := &ofp.Raw{Header: h}
		if len(body) > 0 {
			raw.Body = append([]byte(nil), body...)
		}
		return raw, nil
	}

	m, err := decode(h, body)
	if err != nil {
		return nil, ofp.Malformed(h, err)
	}
	return m, nil
}

func (codec) Factory() ofp.Factory {
	return factory{}
}

func init() {
	ofp.RegisterCodec(codec{})
}
