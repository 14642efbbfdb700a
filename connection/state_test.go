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
	"bytes"
	"testing"

	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Transition(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
		next  State
		err   error
	}{
		{"hello while closed", StateClosed, EventHello, StateHelloWait, nil},
		{"features requested", StateHelloWait, EventFeaturesRequested, StateFeatureWait, nil},
		{"features reply while waiting for hello", StateHelloWait, EventFeaturesReply, StateEstablished, nil},
		{"features reply", StateFeatureWait, EventFeaturesReply, StateEstablished, nil},
		{"echo while waiting for features", StateFeatureWait, EventKeepalive, StateFeatureWait, nil},
		{"message while established", StateEstablished, EventMessage, StateEstablished, nil},
		{"echo while established", StateEstablished, EventKeepalive, StateEstablished, nil},
		{"message while closed", StateClosed, EventMessage, StateClosed, ErrInvalidTransition},
		{"features reply while closed", StateClosed, EventFeaturesReply, StateClosed, ErrInvalidTransition},
		{"second hello", StateEstablished, EventHello, StateEstablished, ErrInvalidTransition},
		{"packet in before features", StateFeatureWait, EventMessage, StateFeatureWait, ErrInvalidTransition},
		{"features reply twice", StateEstablished, EventFeaturesReply, StateEstablished, ErrInvalidTransition},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			next, err := Transition(test.state, test.event)
			assert.Equal(t, test.err, errors.Cause(err))
			assert.Equal(t, test.next, next)
		})
	}
}

func Test_EventFor(t *testing.T) {
	assert.Equal(t, EventHello, eventFor(ofp.TypeHello))
	assert.Equal(t, EventKeepalive, eventFor(ofp.TypeEchoRequest))
	assert.Equal(t, EventKeepalive, eventFor(ofp.TypeError))
	assert.Equal(t, EventFeaturesReply, eventFor(ofp.TypeFeaturesReply))
	assert.Equal(t, EventMessage, eventFor(ofp.TypePacketIn))
	assert.Equal(t, "feature-wait", StateFeatureWait.String())
}

func Test_MultipartTracker(t *testing.T) {
	tracker := NewMultipartTracker()

	require.NoError(t, tracker.Begin(7, 13))
	require.NoError(t, tracker.Begin(7, 13))
	require.NoError(t, tracker.Begin(8, 0))
	assert.Equal(t, 2, tracker.Len())

	err := tracker.Begin(7, 1)
	assert.Equal(t, ErrMultipartOverflow, errors.Cause(err))

	typ, ok := tracker.Lookup(7)
	assert.True(t, ok)
	assert.Equal(t, uint16(13), typ)

	tracker.End(7)
	_, ok = tracker.Lookup(7)
	assert.False(t, ok)

	tracker.Reset()
	assert.Equal(t, 0, tracker.Len())
}

func Test_ReadMessage(t *testing.T) {
	echo := []byte{0x04, 0x02, 0x00, 0x0a, 0x00, 0x00, 0x00, 0x01, 0xab, 0xcd}
	hello := []byte{0x04, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x02}

	tests := []struct {
		name     string
		stream   []byte
		messages [][]byte
		err      error
	}{
		{
			name:     "two messages back to back",
			stream:   append(append([]byte(nil), echo...), hello...),
			messages: [][]byte{echo, hello},
		},
		{
			name:   "short header",
			stream: []byte{0x04, 0x00, 0x00},
			err:    ofp.ErrTruncated,
		},
		{
			name:   "short body",
			stream: echo[:9],
			err:    ofp.ErrTruncated,
		},
		{
			name:   "length below header size",
			stream: []byte{0x04, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x02},
			err:    ofp.ErrMalformedMessage,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reader := bufio.NewReader(bytes.NewReader(test.stream))

			for _, expected := range test.messages {
				buf, err := ReadMessage(reader)
				require.NoError(t, err)
				assert.Equal(t, expected, buf)
			}

			_, err := ReadMessage(reader)
			if test.err != nil {
				assert.Equal(t, test.err, errors.Cause(err))
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func Test_ParseAddress(t *testing.T) {
	tests := []struct {
		addr    string
		network string
		address string
	}{
		{"tcp:127.0.0.1:6633", "tcp", "127.0.0.1:6633"},
		{"tcp:127.0.0.1", "tcp", "127.0.0.1:6653"},
		{"10.0.0.1:6653", "tcp", "10.0.0.1:6653"},
		{":6653", "tcp", ":6653"},
		{"unix:/var/run/switchd.sock", "unix", "/var/run/switchd.sock"},
	}

	for _, test := range tests {
		t.Run(test.addr, func(t *testing.T) {
			network, address, err := ParseAddress(test.addr)
			require.NoError(t, err)
			assert.Equal(t, test.network, network)
			assert.Equal(t, test.address, address)
		})
	}

	_, _, err := ParseAddress("tcp:")
	assert.Error(t, err)
}
