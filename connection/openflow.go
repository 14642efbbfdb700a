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

package connection

import (
	"bufio"
	"io"

	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

// ReadMessage reads one complete OpenFlow message. The length field of the
// header decides how many bytes belong to it.
func ReadMessage(reader *bufio.Reader) ([]byte, error) {
	// peek into the first 8 bytes (the size of OF header messages)
	// the header message contains the length of the entire message
	header, err := reader.Peek(ofp.HeaderLen)
	if err != nil {
		if err == io.EOF && len(header) > 0 {
			return nil, errors.Wrap(ofp.ErrTruncated, "connection closed inside a message header")
		}
		return nil, err
	}

	msgLen := ofp.MessageLength(header)
	if msgLen < ofp.HeaderLen {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "message length %d is shorter than the header", msgLen)
	}

	buf := make([]byte, msgLen)
	if _, err := io.ReadFull(reader, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ofp.ErrTruncated, "connection closed inside a %d byte message", msgLen)
		}
		return nil, err
	}

	return buf, nil
}
