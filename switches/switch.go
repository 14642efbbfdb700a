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
	"fmt"
	"sort"
	"sync"
	"time"

	"k8s.io/klog"
)

// Switch is a datapath identified by the address of its control
// connection. It owns the learned addresses and the flow table model.
type Switch struct {
	addr string

	Cache  *MacCache
	Tables *FlowTables

	mu           sync.Mutex
	version      uint8
	datapathID   uint64
	nTables      uint8
	capabilities uint32
	description  string
	configured   bool

	refs      int
	stopSweep chan struct{}
	sweepDone chan struct{}
}

func newSwitch(addr string, capacity int, timeout time.Duration, now func() time.Time) *Switch {
	return &Switch{
		addr:   addr,
		Cache:  NewMacCache(capacity, timeout, now),
		Tables: NewFlowTables(),
	}
}

func (s *Switch) Addr() string {
	return s.addr
}

// SetFeatures records the identity reported in a FEATURES_REPLY.
func (s *Switch) SetFeatures(version uint8, datapathID uint64, nTables uint8, capabilities uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version = version
	s.datapathID = datapathID
	s.nTables = nTables
	s.capabilities = capabilities
}

func (s *Switch) SetDescription(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.description = desc
}

// Configure marks the switch as configured and reports whether it was
// not configured before.
func (s *Switch) Configure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := !s.configured
	s.configured = true
	return first
}

func (s *Switch) DatapathID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.datapathID
}

// Sweep evicts aged out addresses.
func (s *Switch) Sweep() {
	evicted := s.Cache.Sweep()
	if evicted > 0 {
		klog.V(4).Infof("switch %s: evicted %d mac entries, %d left", s.addr, evicted, s.Cache.Len())
	}
}

func (s *Switch) startSweeping(interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.stopSweep = make(chan struct{})
	s.sweepDone = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stop:
				return
			}
		}
	}(s.stopSweep, s.sweepDone)
}

func (s *Switch) stopSweeping() {
	if s.stopSweep == nil {
		return
	}

	close(s.stopSweep)
	<-s.sweepDone
	s.stopSweep = nil
	s.sweepDone = nil
}

// Summary is a read only snapshot of a switch.
type Summary struct {
	Addr         string
	Version      uint8
	DatapathID   uint64
	NTables      uint8
	Capabilities uint32
	Description  string
	Connections  int
	MacEntries   []MacEntry
	Tables       []uint8
}

func (s Summary) String() string {
	return fmt.Sprintf("switch %s version=%#02x datapath=%#016x tables=%v macs=%d connections=%d %s",
		s.Addr, s.Version, s.DatapathID, s.Tables, len(s.MacEntries), s.Connections, s.Description)
}

// Registry holds every switch with a live control connection, keyed by
// the peer address of that connection.
type Registry struct {
	sync.Mutex

	capacity int
	timeout  time.Duration
	now      func() time.Time

	switches map[string]*Switch
}

// NewRegistry returns a registry whose switches get caches of the given
// capacity, aged out after timeout.
func NewRegistry(capacity int, timeout time.Duration, now func() time.Time) *Registry {
	return &Registry{
		capacity: capacity,
		timeout:  timeout,
		now:      now,
		switches: make(map[string]*Switch),
	}
}

func (r *Registry) CacheTimeout() time.Duration {
	return r.timeout
}

// Acquire returns the switch for addr, creating it and starting its
// sweep timer when addr is not known yet. Every Acquire must be paired
// with a Release.
func (r *Registry) Acquire(addr string) (*Switch, bool) {
	r.Lock()
	defer r.Unlock()

	sw, exists := r.switches[addr]
	if !exists {
		sw = newSwitch(addr, r.capacity, r.timeout, r.now)
		sw.startSweeping(r.timeout)
		r.switches[addr] = sw
		klog.V(2).Infof("switch %s registered", addr)
	}

	sw.refs++
	return sw, !exists
}

// Release drops one reference to sw. The last release removes the switch
// together with its learned addresses and flow tables.
func (r *Registry) Release(sw *Switch) {
	r.Lock()
	defer r.Unlock()

	if r.switches[sw.addr] != sw {
		return
	}

	sw.refs--
	if sw.refs > 0 {
		return
	}

	sw.stopSweeping()
	delete(r.switches, sw.addr)
	klog.V(2).Infof("switch %s removed", sw.addr)
}

func (r *Registry) Lookup(addr string) (*Switch, bool) {
	r.Lock()
	defer r.Unlock()

	sw, exists := r.switches[addr]
	return sw, exists
}

func (r *Registry) Len() int {
	r.Lock()
	defer r.Unlock()

	return len(r.switches)
}

// Summary returns a snapshot of every switch ordered by address.
func (r *Registry) Summary() []Summary {
	r.Lock()
	switches := make([]*Switch, 0, len(r.switches))
	refs := make(map[*Switch]int, len(r.switches))
	for _, sw := range r.switches {
		switches = append(switches, sw)
		refs[sw] = sw.refs
	}
	r.Unlock()

	sort.Slice(switches, func(i, j int) bool {
		return switches[i].addr < switches[j].addr
	})

	summaries := make([]Summary, 0, len(switches))
	for _, sw := range switches {
		sw.mu.Lock()
		s := Summary{
			Addr:         sw.addr,
			Version:      sw.version,
			DatapathID:   sw.datapathID,
			NTables:      sw.nTables,
			Capabilities: sw.capabilities,
			Description:  sw.description,
			Connections:  refs[sw],
		}
		sw.mu.Unlock()

		s.MacEntries = sw.Cache.Entries()
		s.Tables = sw.Tables.IDs()
		summaries = append(summaries, s)
	}
	return summaries
}
