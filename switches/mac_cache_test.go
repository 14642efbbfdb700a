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

package switches

import (
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01}
	addrB = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02}
	addrC = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x03}
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func Test_MacCacheLearn(t *testing.T) {
	cache := NewMacCache(2, 240*time.Second, newFakeClock().Now)

	require.NoError(t, cache.Learn(addrA, 1))
	port, ok := cache.Lookup(addrA)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), port)

	require.NoError(t, cache.Learn(addrA, 2))
	port, ok = cache.Lookup(addrA)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), port)
	assert.Equal(t, 1, cache.Len())

	_, ok = cache.Lookup(addrB)
	assert.False(t, ok)
}

func Test_MacCacheCapacity(t *testing.T) {
	cache := NewMacCache(2, 240*time.Second, newFakeClock().Now)

	require.NoError(t, cache.Learn(addrA, 1))
	require.NoError(t, cache.Learn(addrB, 2))

	err := cache.Learn(addrC, 3)
	assert.Equal(t, ErrResourceExhausted, errors.Cause(err))
	assert.Equal(t, 2, cache.Len())

	_, ok := cache.Lookup(addrC)
	assert.False(t, ok)

	// known addresses are still refreshed when full
	require.NoError(t, cache.Learn(addrA, 4))
	port, _ := cache.Lookup(addrA)
	assert.Equal(t, uint32(4), port)
}

func Test_MacCacheSweep(t *testing.T) {
	timeout := 240 * time.Second

	tests := []struct {
		name    string
		age     time.Duration
		evicted bool
	}{
		{
			name:    "refreshed at timeout minus one second",
			age:     timeout - time.Second,
			evicted: false,
		},
		{
			name:    "not refreshed for exactly the timeout",
			age:     timeout,
			evicted: true,
		},
		{
			name:    "not refreshed for longer than the timeout",
			age:     timeout + time.Hour,
			evicted: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clock := newFakeClock()
			cache := NewMacCache(16, timeout, clock.Now)

			require.NoError(t, cache.Learn(addrA, 1))
			clock.Advance(test.age)

			if test.evicted {
				assert.Equal(t, 1, cache.Sweep())
			} else {
				assert.Equal(t, 0, cache.Sweep())
			}

			_, ok := cache.Lookup(addrA)
			assert.Equal(t, !test.evicted, ok)
		})
	}
}

func Test_MacCacheRefreshDelaysEviction(t *testing.T) {
	clock := newFakeClock()
	cache := NewMacCache(16, 10*time.Second, clock.Now)

	require.NoError(t, cache.Learn(addrA, 1))
	require.NoError(t, cache.Learn(addrB, 1))
	clock.Advance(9 * time.Second)
	require.NoError(t, cache.Learn(addrA, 1))
	clock.Advance(time.Second)

	assert.Equal(t, 1, cache.Sweep())
	_, ok := cache.Lookup(addrA)
	assert.True(t, ok)
	_, ok = cache.Lookup(addrB)
	assert.False(t, ok)
}

func Test_MacCacheRemovePort(t *testing.T) {
	cache := NewMacCache(16, time.Minute, nil)

	require.NoError(t, cache.Learn(addrA, 1))
	require.NoError(t, cache.Learn(addrB, 2))
	require.NoError(t, cache.Learn(addrC, 1))

	assert.Equal(t, 2, cache.RemovePort(1))

	entries := cache.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, addrB, entries[0].Addr)
	assert.Equal(t, uint32(2), entries[0].Port)
}

func Test_MacCacheInvalidAddress(t *testing.T) {
	cache := NewMacCache(16, time.Minute, nil)

	assert.Error(t, cache.Learn(net.HardwareAddr{1, 2, 3}, 1))
	_, ok := cache.Lookup(net.HardwareAddr{1, 2, 3})
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}
