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
	"fmt"

	"github.com/pkg/errors"
)

// Decode and validation failures. None of them are fatal to the process,
// the connection that produced the offending bytes is closed instead.
var (
	ErrTruncated        = errors.New("truncated message")
	ErrBadVersion       = errors.New("bad protocol version")
	ErrBadType          = errors.New("bad message type")
	ErrMalformedMessage = errors.New("malformed message")
	ErrLoopDetected     = errors.New("zero length element, loop detected")
	ErrUnsupportedField = errors.New("unsupported field")
)

// MalformedError is returned by a version codec when the validator
// registered for a message type rejects its body. errors.Cause reports
// ErrMalformedMessage, the underlying failure is kept in Err.
type MalformedError struct {
	Header Header
	Err    error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed message (%s): %v", e.Header, e.Err)
}

func (e *MalformedError) Cause() error {
	return ErrMalformedMessage
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Malformed wraps a validator failure for message h.
func Malformed(h Header, err error) error {
	if err == nil {
		return nil
	}
	return &MalformedError{Header: h, Err: err}
}

// Reason returns the specific decode failure behind err, looking through
// a MalformedError when present.
func Reason(err error) error {
	if m, ok := err.(*MalformedError); ok {
		return errors.Cause(m.Err)
	}
	return errors.Cause(err)
}
