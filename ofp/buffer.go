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

	"github.com/pkg/errors"
)

// Reader is a bounds checked cursor over a message buffer. The first out
// of range access sets a sticky ErrTruncated, after which every read
// returns zero values and Err reports the failure.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.Len() < n {
		r.fail(errors.Wrapf(ErrTruncated, "need %d bytes at offset %d, have %d", n, r.off, r.Len()))
		return false
	}
	return true
}

func (r *Reader) Uint8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *Reader) Uint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *Reader) Uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *Reader) Uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

// PeekUint16 returns the big endian value at offset off from the cursor
// without advancing.
func (r *Reader) PeekUint16(off int) (uint16, bool) {
	if r.err != nil || off < 0 || r.Len() < off+2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(r.buf[r.off+off:]), true
}

// Bytes returns a copy of the next n bytes, nil when n is zero.
func (r *Reader) Bytes(n int) []byte {
	if !r.need(n) || n == 0 {
		return nil
	}
	v := make([]byte, n)
	copy(v, r.buf[r.off:])
	r.off += n
	return v
}

// String reads a fixed size, NUL padded string field.
func (r *Reader) String(n int) string {
	b := r.Bytes(n)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func (r *Reader) Skip(n int) {
	if r.need(n) {
		r.off += n
	}
}

// Rest returns a copy of every unread byte.
func (r *Reader) Rest() []byte {
	return r.Bytes(r.Len())
}

// Sub returns a reader over the next n bytes and advances past them.
// Failures of the child reader do not propagate to the parent.
func (r *Reader) Sub(n int) *Reader {
	if !r.need(n) {
		return &Reader{err: r.err}
	}
	sub := &Reader{buf: r.buf[r.off : r.off+n]}
	r.off += n
	return sub
}

// Pad8 returns the number of bytes needed to align n to 8.
func Pad8(n int) int {
	return (8 - n%8) % 8
}

// Writer accumulates an encoded message.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutUint16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

func (w *Writer) PutUint32(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (w *Writer) PutUint64(v uint64) {
	w.PutUint32(uint32(v >> 32))
	w.PutUint32(uint32(v))
}

func (w *Writer) Write(p []byte) {
	w.buf = append(w.buf, p...)
}

// PutString writes s into a fixed size NUL padded field of n bytes.
func (w *Writer) PutString(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.buf = append(w.buf, b...)
}

func (w *Writer) Zero(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// SetUint16 overwrites a previously written value at off.
func (w *Writer) SetUint16(off int, v uint16) {
	binary.BigEndian.PutUint16(w.buf[off:], v)
}

// BeginMessage starts a message with h, leaving the length to be patched
// by FinishMessage.
func BeginMessage(h *Header) *Writer {
	w := NewWriter(64)
	w.PutUint8(h.Version)
	w.PutUint8(h.Type)
	w.PutUint16(0)
	w.PutUint32(h.Xid)
	return w
}

// FinishMessage stores the true encoded size in both h and the buffer.
func FinishMessage(h *Header, w *Writer) ([]byte, error) {
	if w.Len() > MaxMessageLen {
		return nil, errors.Wrapf(ErrMalformedMessage, "encoded size %d exceeds %d", w.Len(), MaxMessageLen)
	}
	h.Length = uint16(w.Len())
	w.SetUint16(2, h.Length)
	return w.Bytes(), nil
}
