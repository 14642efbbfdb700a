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

package openflow

import (
	"math"
	"net"
	"time"

	"github.com/k-vswitch/switchd/flows"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/k-vswitch/switchd/ofp/of13"
	"github.com/k-vswitch/switchd/switches"
)

const (
	tableEntry = 0

	priorityTableMiss = 0
	priorityLearned   = ofp.DefaultPriority
)

// tableMissFlow sends every packet that matches nothing else to the
// controller, unbuffered.
func tableMissFlow(tables *switches.FlowTables) *flows.Flow {
	table, ok := tables.TableSupportingMiss(of13.InstructionTypeApplyActions, of13.ActionTypeOutput)
	if !ok {
		table = tableEntry
	}

	return flows.NewFlow().WithTable(table).
		WithPriority(priorityTableMiss).
		WithActionOutputPort(ofp.PortController).
		WithActionOutputMaxLen(of13.ControllerNoBuffer)
}

// learnedFlow forwards traffic for a learned address to its port. Learned
// flows expire once they are idle for as long as the address would stay in
// the cache. OpenFlow 1.0 switches match the destination address, OpenFlow
// 1.3 switches the ingress port.
func learnedFlow(version, table uint8, timeout time.Duration, ev ofp.PacketIn, dst net.HardwareAddr, port uint32) *flows.Flow {
	flow := flows.NewFlow().WithTable(table).
		WithPriority(priorityLearned).
		WithIdleTimeout(idleSeconds(timeout)).
		WithSendFlowRemoved().
		WithBufferID(ev.BufferID).
		WithActionOutputPort(port)

	if version == ofp.Version10 {
		return flow.WithEthDst(dst)
	}
	return flow.WithInPort(ev.InPort)
}

func idleSeconds(timeout time.Duration) uint16 {
	seconds := timeout / time.Second
	if seconds > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(seconds)
}
