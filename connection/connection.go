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
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/k-vswitch/switchd/ofp"
	"github.com/k-vswitch/switchd/switches"
	"github.com/pkg/errors"

	"k8s.io/klog"
)

const flushTimeout = time.Second

// Handler is the controller side of a connection once the switch has
// answered the FEATURES_REQUEST.
type Handler interface {
	// SwitchConnected is called with the FEATURES_REPLY that moved c to
	// the established state.
	SwitchConnected(c *Connection, features ofp.Message) error
	// HandleMessage is called for every message received while
	// established, except ECHO and ERROR which the connection handles.
	HandleMessage(c *Connection, msg ofp.Message) error
}

// Connection is one control session with a switch. Messages are read and
// handled on the goroutine running Serve, writes go through a queue
// drained by a second goroutine.
type Connection struct {
	conn     net.Conn
	peer     string
	local    string
	registry *switches.Registry
	handler  Handler
	counters *Counters

	mu      sync.Mutex
	state   State
	version uint8
	factory ofp.Factory
	sw      *switches.Switch

	xid       uint32
	multipart *MultipartTracker

	queue     [][]byte
	queueMu   sync.Mutex
	queueCond sync.Cond
	closing   bool

	writerDone chan struct{}
	closeOnce  sync.Once
}

// New wraps conn and starts its writer. peer identifies the switch in the
// registry.
func New(conn net.Conn, peer string, registry *switches.Registry, handler Handler, counters *Counters) *Connection {
	if counters == nil {
		counters = &Counters{}
	}

	c := &Connection{
		conn:       conn,
		peer:       peer,
		local:      conn.LocalAddr().String(),
		registry:   registry,
		handler:    handler,
		counters:   counters,
		state:      StateClosed,
		multipart:  NewMultipartTracker(),
		queue:      make([][]byte, 0),
		writerDone: make(chan struct{}),
	}
	c.queueCond.L = &c.queueMu

	go c.processQueue()
	return c
}

func (c *Connection) Peer() string {
	return c.peer
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Version returns the negotiated protocol version, zero before HELLO.
func (c *Connection) Version() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.version
}

// Factory builds messages in the negotiated version.
func (c *Connection) Factory() ofp.Factory {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.factory
}

// Switch returns the datapath behind the connection, nil before HELLO.
func (c *Connection) Switch() *switches.Switch {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sw
}

func (c *Connection) Multipart() *MultipartTracker {
	return c.multipart
}

// NextXid returns a new transaction id. Ids wrap around after 2^32.
func (c *Connection) NextXid() uint32 {
	return atomic.AddUint32(&c.xid, 1)
}

func (c *Connection) transition(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := Transition(c.state, e)
	if err != nil {
		return err
	}

	if next != c.state {
		klog.V(2).Infof("connection %s: %s -> %s", c.peer, c.state, next)
	}
	c.state = next
	return nil
}

// Send encodes m and queues it for writing. Messages are validated with
// the decoder before they leave; a message that does not validate was
// built wrong by this process and Send panics.
func (c *Connection) Send(m ofp.Message) {
	data, err := ofp.Validate(m)
	if err != nil {
		panic(fmt.Sprintf("generated invalid message %s for %s: %v", m.MessageHeader(), c.peer, err))
	}

	klog.V(5).Infof("%s > %s %s", c.local, c.peer, m.MessageHeader())

	c.queueMu.Lock()
	defer c.queueMu.Unlock()

	if c.closing {
		return
	}

	c.queue = append(c.queue, data)
	c.counters.addInflight(len(data))
	c.queueCond.Broadcast()
}

func (c *Connection) processQueue() {
	defer close(c.writerDone)
	defer c.conn.Close()

	for {
		c.queueMu.Lock()
		for len(c.queue) == 0 && !c.closing {
			c.queueCond.Wait()
		}

		// closing and drained
		if len(c.queue) == 0 {
			c.queueMu.Unlock()
			return
		}

		buf := c.queue[0]
		c.queueMu.Unlock()

		n, err := c.conn.Write(buf)
		c.counters.addInflight(-n)

		c.queueMu.Lock()
		if n < len(buf) {
			// keep the unwritten remainder at the head of the queue
			c.queue[0] = buf[n:]
		} else {
			c.queue = c.queue[1:]
		}

		if err != nil {
			for _, pending := range c.queue {
				c.counters.addInflight(-len(pending))
			}
			c.queue = nil
			c.closing = true
			c.queueMu.Unlock()

			klog.Errorf("error writing to connection %s: %v", c.peer, err)
			return
		}
		c.queueMu.Unlock()
	}
}

// Serve reads and handles messages until the peer goes away or sends
// something the connection cannot accept, then closes the connection.
func (c *Connection) Serve() {
	c.counters.addSession(1)
	defer c.counters.addSession(-1)
	defer c.Close()

	reader := bufio.NewReader(c.conn)
	for {
		buf, err := ReadMessage(reader)
		if err != nil {
			if err != io.EOF && !c.isClosing() {
				klog.Errorf("error reading connection %s: %v", c.peer, err)
			}
			return
		}

		if err := c.handle(buf); err != nil {
			klog.Warningf("closing connection %s: %v", c.peer, err)
			return
		}
	}
}

func (c *Connection) isClosing() bool {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()

	return c.closing
}

func (c *Connection) handle(buf []byte) error {
	var h ofp.Header
	if err := h.UnmarshalBinary(buf); err != nil {
		return err
	}

	klog.V(5).Infof("%s > %s %s", c.peer, c.local, h)

	if h.Type == ofp.TypeHello && c.State() == StateClosed {
		hello, err := ofp.DecodeHello(h, buf[ofp.HeaderLen:])
		if err != nil {
			return ofp.Malformed(h, err)
		}
		return c.handleHello(hello)
	}

	msg, err := ofp.Parse(buf, c.Version())
	if err != nil {
		return errors.Wrapf(err, "%s", h)
	}

	event := eventFor(h.Type)
	if err := c.transition(event); err != nil {
		return err
	}

	switch h.Type {
	case ofp.TypeEchoRequest:
		c.Send(c.Factory().NewEchoReply(h.Xid, buf[ofp.HeaderLen:h.Length]))
		return nil
	case ofp.TypeEchoReply:
		return nil
	case ofp.TypeError:
		klog.Warningf("switch %s reported an error: %s", c.peer, describe(msg))
		return nil
	case ofp.TypeFeaturesReply:
		return c.handler.SwitchConnected(c, msg)
	}

	return c.handler.HandleMessage(c, msg)
}

func (c *Connection) handleHello(hello *ofp.Hello) error {
	if err := c.transition(EventHello); err != nil {
		return err
	}

	version, err := ofp.Negotiate(hello, ofp.Versions())
	if err != nil {
		if codec, cerr := CodecForPeer(hello.Version); cerr == nil {
			c.Send(codec.Factory().NewError(hello.Xid, ofp.ErrorHelloIncompatible, nil))
		}
		return err
	}

	codec, err := ofp.CodecFor(version)
	if err != nil {
		return err
	}

	sw, created := c.registry.Acquire(c.peer)

	c.mu.Lock()
	c.version = version
	c.factory = codec.Factory()
	c.sw = sw
	c.mu.Unlock()

	klog.Infof("switch %s connected with version %#02x (new=%v)", c.peer, version, created)

	c.Send(c.factory.NewHello(c.NextXid()))
	c.Send(c.factory.NewFeaturesRequest(c.NextXid()))
	return c.transition(EventFeaturesRequested)
}

// CodecForPeer returns the codec to answer a peer that announced version,
// the highest supported version not above it.
func CodecForPeer(version uint8) (ofp.Codec, error) {
	versions := ofp.Versions()
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i] <= version {
			return ofp.CodecFor(versions[i])
		}
	}
	return nil, errors.Wrapf(ofp.ErrBadVersion, "no version at or below %#02x", version)
}

// Close flushes queued writes, closes the socket and releases the switch.
// It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.queueMu.Lock()
		c.closing = true
		c.queueCond.Broadcast()
		c.queueMu.Unlock()

		c.conn.SetWriteDeadline(time.Now().Add(flushTimeout))
		<-c.writerDone

		c.multipart.Reset()

		c.mu.Lock()
		sw := c.sw
		c.sw = nil
		c.state = StateClosed
		c.mu.Unlock()

		if sw != nil {
			c.registry.Release(sw)
		}
		klog.V(2).Infof("connection %s closed", c.peer)
	})
}
