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
	"sync"

	"github.com/pkg/errors"
)

var ErrMultipartOverflow = errors.New("multipart buffer overflow")

// MultipartTracker remembers the multipart exchanges that are open on a
// connection, keyed by transaction id.
type MultipartTracker struct {
	sync.Mutex

	entries map[uint32]uint16
}

func NewMultipartTracker() *MultipartTracker {
	return &MultipartTracker{
		entries: make(map[uint32]uint16),
	}
}

// Begin records an exchange of type typ on xid. A chunk whose type does
// not match the exchange already open on xid fails with
// ErrMultipartOverflow and leaves the open exchange as it was.
func (t *MultipartTracker) Begin(xid uint32, typ uint16) error {
	t.Lock()
	defer t.Unlock()

	if open, exists := t.entries[xid]; exists && open != typ {
		return errors.Wrapf(ErrMultipartOverflow, "xid %d is open with type %d, got type %d", xid, open, typ)
	}
	t.entries[xid] = typ
	return nil
}

func (t *MultipartTracker) End(xid uint32) {
	t.Lock()
	defer t.Unlock()

	delete(t.entries, xid)
}

func (t *MultipartTracker) Lookup(xid uint32) (uint16, bool) {
	t.Lock()
	defer t.Unlock()

	typ, exists := t.entries[xid]
	return typ, exists
}

func (t *MultipartTracker) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.entries)
}

// Reset drops every open exchange.
func (t *MultipartTracker) Reset() {
	t.Lock()
	defer t.Unlock()

	t.entries = make(map[uint32]uint16)
}
