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

package flows

import (
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
)

type Command uint8

const (
	CommandAdd Command = iota
	CommandModify
	CommandModifyStrict
	CommandDelete
	CommandDeleteStrict
)

var commandNames = map[Command]string{
	CommandAdd:          "add",
	CommandModify:       "modify",
	CommandModifyStrict: "modify_strict",
	CommandDelete:       "delete",
	CommandDeleteStrict: "delete_strict",
}

const noBuffer = 0xffffffff

// Flow is a version independent description of a FLOW_MOD. Each protocol
// factory translates it into its own match and action encoding.
type Flow struct {
	command     Command
	table       uint8
	priority    uint16
	idleTimeout uint16
	hardTimeout uint16
	cookie      uint64
	bufferID    uint32

	sendFlowRemoved bool

	// match
	inPort    uint32
	hasInPort bool
	ethDst    net.HardwareAddr
	ethSrc    net.HardwareAddr

	// actions
	output       uint32
	hasOutput    bool
	outputMaxLen uint16
}

func NewFlow() *Flow {
	return &Flow{
		bufferID: noBuffer,
	}
}

func (f *Flow) String() string {
	flow := fmt.Sprintf("%s table=%d priority=%d", commandNames[f.command], f.table, f.priority)

	if f.cookie != 0 {
		flow = fmt.Sprintf("%s cookie=%#x", flow, f.cookie)
	}

	if f.idleTimeout != 0 {
		flow = fmt.Sprintf("%s idle_timeout=%d", flow, f.idleTimeout)
	}

	if f.hardTimeout != 0 {
		flow = fmt.Sprintf("%s hard_timeout=%d", flow, f.hardTimeout)
	}

	if f.sendFlowRemoved {
		flow = fmt.Sprintf("%s send_flow_rem", flow)
	}

	if f.bufferID != noBuffer {
		flow = fmt.Sprintf("%s buffer_id=%#x", flow, f.bufferID)
	}

	if f.hasInPort {
		flow = fmt.Sprintf("%s in_port=%s", flow, portName(f.inPort))
	}

	if f.ethSrc != nil {
		flow = fmt.Sprintf("%s dl_src=%s", flow, f.ethSrc)
	}

	if f.ethDst != nil {
		flow = fmt.Sprintf("%s dl_dst=%s", flow, f.ethDst)
	}

	var actionSet []string
	if f.hasOutput {
		actionSet = append(actionSet, fmt.Sprintf("output:%s", portName(f.output)))
	}

	if len(actionSet) == 0 {
		actionSet = append(actionSet, "drop")
	}

	actions := fmt.Sprintf("actions=%s", strings.Join(actionSet, ","))
	return fmt.Sprintf("%s %s", flow, actions)
}

func portName(port uint32) string {
	switch port {
	case 0xfffffff8:
		return "IN_PORT"
	case 0xfffffffa:
		return "NORMAL"
	case 0xfffffffb:
		return "FLOOD"
	case 0xfffffffc:
		return "ALL"
	case 0xfffffffd:
		return "CONTROLLER"
	case 0xfffffffe:
		return "LOCAL"
	case 0xffffffff:
		return "ANY"
	}
	return fmt.Sprintf("%d", port)
}

func (f *Flow) Validate() error {
	if f.command != CommandDelete && f.command != CommandDeleteStrict && f.table > 0xfe {
		return errors.Errorf("table %d is not a valid flow table", f.table)
	}
	if f.ethDst != nil && len(f.ethDst) != 6 {
		return errors.Errorf("invalid destination address %q", f.ethDst)
	}
	if f.ethSrc != nil && len(f.ethSrc) != 6 {
		return errors.Errorf("invalid source address %q", f.ethSrc)
	}
	return nil
}

func (f *Flow) WithCommand(command Command) *Flow {
	f.command = command
	return f
}

func (f *Flow) WithTable(table uint8) *Flow {
	f.table = table
	return f
}

func (f *Flow) WithPriority(priority uint16) *Flow {
	f.priority = priority
	return f
}

func (f *Flow) WithIdleTimeout(seconds uint16) *Flow {
	f.idleTimeout = seconds
	return f
}

func (f *Flow) WithHardTimeout(seconds uint16) *Flow {
	f.hardTimeout = seconds
	return f
}

func (f *Flow) WithCookie(cookie uint64) *Flow {
	f.cookie = cookie
	return f
}

func (f *Flow) WithBufferID(bufferID uint32) *Flow {
	f.bufferID = bufferID
	return f
}

func (f *Flow) WithSendFlowRemoved() *Flow {
	f.sendFlowRemoved = true
	return f
}

// Flow Matchers
func (f *Flow) WithInPort(port uint32) *Flow {
	f.inPort = port
	f.hasInPort = true
	return f
}

func (f *Flow) WithEthDst(addr net.HardwareAddr) *Flow {
	f.ethDst = addr
	return f
}

func (f *Flow) WithEthSrc(addr net.HardwareAddr) *Flow {
	f.ethSrc = addr
	return f
}

// Actions
func (f *Flow) WithActionOutputPort(port uint32) *Flow {
	f.output = port
	f.hasOutput = true
	return f
}

// WithActionOutputMaxLen sets how many bytes of a packet sent to the
// controller port are included in the PACKET_IN.
func (f *Flow) WithActionOutputMaxLen(maxLen uint16) *Flow {
	f.outputMaxLen = maxLen
	return f
}

func (f *Flow) Command() Command {
	return f.command
}

func (f *Flow) Table() uint8 {
	return f.table
}

func (f *Flow) Priority() uint16 {
	return f.priority
}

func (f *Flow) IdleTimeout() uint16 {
	return f.idleTimeout
}

func (f *Flow) HardTimeout() uint16 {
	return f.hardTimeout
}

func (f *Flow) Cookie() uint64 {
	return f.cookie
}

func (f *Flow) BufferID() uint32 {
	return f.bufferID
}

func (f *Flow) SendFlowRemoved() bool {
	return f.sendFlowRemoved
}

func (f *Flow) InPort() (uint32, bool) {
	return f.inPort, f.hasInPort
}

func (f *Flow) EthDst() net.HardwareAddr {
	return f.ethDst
}

func (f *Flow) EthSrc() net.HardwareAddr {
	return f.ethSrc
}

func (f *Flow) Output() (uint32, bool) {
	return f.output, f.hasOutput
}

func (f *Flow) OutputMaxLen() uint16 {
	return f.outputMaxLen
}
