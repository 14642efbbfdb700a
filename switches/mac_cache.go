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
	"bytes"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrResourceExhausted is returned when a new address cannot be learned
// because the cache is at capacity. Entries are only ever removed by age.
var ErrResourceExhausted = errors.New("resource exhausted")

type macKey [6]byte

// MacEntry is a learned source address and the port it was last seen on.
type MacEntry struct {
	Addr     net.HardwareAddr
	Port     uint32
	LastSeen time.Time
}

// MacCache maps hardware addresses to switch ports.
type MacCache struct {
	sync.Mutex

	capacity int
	timeout  time.Duration
	now      func() time.Time

	store map[macKey]*MacEntry
}

// NewMacCache returns an empty cache. now is the clock used to stamp and
// age entries, time.Now when nil.
func NewMacCache(capacity int, timeout time.Duration, now func() time.Time) *MacCache {
	if now == nil {
		now = time.Now
	}

	return &MacCache{
		capacity: capacity,
		timeout:  timeout,
		now:      now,
		store:    make(map[macKey]*MacEntry),
	}
}

func keyFor(addr net.HardwareAddr) (macKey, error) {
	var key macKey
	if len(addr) != len(key) {
		return key, errors.Errorf("invalid hardware address %q", addr)
	}
	copy(key[:], addr)
	return key, nil
}

// Learn records that addr was seen on port, refreshing an existing entry.
func (c *MacCache) Learn(addr net.HardwareAddr, port uint32) error {
	key, err := keyFor(addr)
	if err != nil {
		return err
	}

	c.Lock()
	defer c.Unlock()

	if entry, exists := c.store[key]; exists {
		entry.Port = port
		entry.LastSeen = c.now()
		return nil
	}

	if len(c.store) >= c.capacity {
		return errors.Wrapf(ErrResourceExhausted, "mac cache holds %d entries", len(c.store))
	}

	c.store[key] = &MacEntry{
		Addr:     net.HardwareAddr(append([]byte(nil), addr...)),
		Port:     port,
		LastSeen: c.now(),
	}
	return nil
}

func (c *MacCache) Lookup(addr net.HardwareAddr) (uint32, bool) {
	key, err := keyFor(addr)
	if err != nil {
		return 0, false
	}

	c.Lock()
	defer c.Unlock()

	entry, exists := c.store[key]
	if !exists {
		return 0, false
	}
	return entry.Port, true
}

// Sweep evicts every entry that was not refreshed for at least the cache
// timeout and returns how many were removed.
func (c *MacCache) Sweep() int {
	c.Lock()
	defer c.Unlock()

	now := c.now()
	evicted := 0
	for key, entry := range c.store {
		if now.Sub(entry.LastSeen) >= c.timeout {
			delete(c.store, key)
			evicted++
		}
	}
	return evicted
}

// RemovePort forgets every address learned on port.
func (c *MacCache) RemovePort(port uint32) int {
	c.Lock()
	defer c.Unlock()

	removed := 0
	for key, entry := range c.store {
		if entry.Port == port {
			delete(c.store, key)
			removed++
		}
	}
	return removed
}

func (c *MacCache) Len() int {
	c.Lock()
	defer c.Unlock()

	return len(c.store)
}

func (c *MacCache) Timeout() time.Duration {
	return c.timeout
}

// Entries returns a copy of the cache ordered by address.
func (c *MacCache) Entries() []MacEntry {
	c.Lock()
	defer c.Unlock()

	entries := make([]MacEntry, 0, len(c.store))
	for _, entry := range c.store {
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Addr, entries[j].Addr) < 0
	})
	return entries
}
