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
	"bytes"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

// Messages handed to gofc are always struct literals around libHeader.
// The gofc constructors draw xids from a package counter.
func libHeader(h *ofp.Header) ofp13.OfpHeader {
	return ofp13.OfpHeader(*h)
}

// finish cuts a gofc encoding down to its wire size and stamps that size
// into both h and the buffer. gofc pads aligned matches with eight
// spare bytes and sizes ERROR bodies four bytes long, so its own length
// is not trusted.
func finish(h *ofp.Header, data []byte, size int) ([]byte, error) {
	if size > ofp.MaxMessageLen {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "encoded size %d exceeds %d", size, ofp.MaxMessageLen)
	}
	if len(data) < size {
		return nil, errors.Errorf("type %d encoded to %d bytes, expected %d", h.Type, len(data), size)
	}

	h.Length = uint16(size)
	lh := libHeader(h)
	data = data[:size]
	copy(data, lh.Serialize())
	return data, nil
}

// wire rebuilds the complete message gofc parsers expect from a header
// and a body that already passed structural validation.
func wire(h ofp.Header, body []byte) []byte {
	lh := libHeader(&h)
	return append(lh.Serialize(), body...)
}

// cstring converts a NUL padded gofc byte field.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
