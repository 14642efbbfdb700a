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
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/k-vswitch/switchd/switches"
	"github.com/pkg/errors"

	"k8s.io/klog"
)

const (
	listenPort = 6653
)

// Counters are the session and write backlog counts of a server.
type Counters struct {
	sessions int64
	inflight int64
}

func (c *Counters) addSession(delta int64) {
	atomic.AddInt64(&c.sessions, delta)
}

func (c *Counters) addInflight(delta int) {
	atomic.AddInt64(&c.inflight, int64(delta))
}

// Sessions is the number of open connections.
func (c *Counters) Sessions() int64 {
	return atomic.LoadInt64(&c.sessions)
}

// Inflight is the number of bytes queued for writing and not yet written.
func (c *Counters) Inflight() int64 {
	return atomic.LoadInt64(&c.inflight)
}

// ParseAddress splits "tcp:host:port", "unix:/path" or "host:port" into a
// network and an address. A tcp address without a port gets 6653.
func ParseAddress(addr string) (string, string, error) {
	network := "tcp"
	if i := strings.Index(addr, ":"); i > 0 {
		switch addr[:i] {
		case "tcp", "unix":
			network, addr = addr[:i], addr[i+1:]
		}
	}

	if addr == "" {
		return "", "", errors.New("empty address")
	}

	if network == "tcp" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, fmt.Sprint(listenPort))
		}
	}
	return network, addr, nil
}

// Server accepts and dials switch connections and serves each of them on
// its own goroutine.
type Server struct {
	registry *switches.Registry
	handler  Handler
	counters Counters

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[*Connection]struct{}
	closed    bool
	unixPeers uint64
	wg        sync.WaitGroup
}

func NewServer(registry *switches.Registry, handler Handler) *Server {
	return &Server{
		registry: registry,
		handler:  handler,
		conns:    make(map[*Connection]struct{}),
	}
}

func (s *Server) Counters() *Counters {
	return &s.counters
}

// Listen opens a listener on addr and starts accepting on it.
func (s *Server) Listen(addr string) (net.Addr, error) {
	network, address, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}

	if network == "unix" {
		if err := os.Remove(address); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "removing stale socket %s", address)
		}
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		listener.Close()
		return nil, errors.New("server closed")
	}
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()

	klog.Infof("listening for switches on %s:%s", network, listener.Addr())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.serve(listener)
	}()
	return listener.Addr(), nil
}

func (s *Server) serve(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isClosed() {
				return
			}
			klog.Errorf("error accepting connections: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(conn, s.peerName(conn))
		}()
	}
}

// peerName is the registry key of a connection. Unix socket peers have
// no address of their own and are keyed by the socket path and the order
// in which they were accepted.
func (s *Server) peerName(conn net.Conn) string {
	addr := conn.RemoteAddr()
	if addr == nil || addr.String() == "" || addr.String() == "@" {
		return fmt.Sprintf("unix:%s#%d", conn.LocalAddr(), atomic.AddUint64(&s.unixPeers, 1))
	}
	return addr.String()
}

// ServeConn serves one connection until it closes.
func (s *Server) ServeConn(conn net.Conn, peer string) {
	c := New(conn, peer, s.registry, s.handler, &s.counters)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.Close()
		return
	}
	s.conns[c] = struct{}{}
	s.mu.Unlock()

	c.Serve()

	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// Connect dials a switch and serves the connection, dialing again after
// interval whenever the connection closes, until stopCh is closed.
func (s *Server) Connect(addr string, interval time.Duration, stopCh <-chan struct{}) {
	network, address, err := ParseAddress(addr)
	if err != nil {
		klog.Errorf("invalid switch address %q: %v", addr, err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			conn, err := net.DialTimeout(network, address, interval)
			if err != nil {
				klog.Warningf("error connecting to switch %s: %v", addr, err)
			} else {
				klog.Infof("connected to switch %s", addr)
				s.ServeConn(conn, addr)
			}

			select {
			case <-stopCh:
				return
			case <-time.After(interval):
			}

			if s.isClosed() {
				return
			}
		}
	}()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Close stops every listener and connection and waits for their
// goroutines to finish.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	listeners := s.listeners
	s.listeners = nil
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l.Close()
	}
	for _, c := range conns {
		c.Close()
	}
	s.wg.Wait()
}

// describe renders a decoded message for logs.
func describe(m ofp.Message) string {
	return spew.Sprintf("%+v", m)
}
