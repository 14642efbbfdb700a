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
	"testing"
)

var (
	srcAddr = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01}
	dstAddr = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02}
)

func Test_Flow(t *testing.T) {
	tests := []struct {
		name       string
		flow       *Flow
		flowString string
	}{
		{
			name:       "flow, no match and no actions",
			flow:       NewFlow(),
			flowString: "add table=0 priority=0 actions=drop",
		},
		{
			name:       "table miss flow",
			flow:       NewFlow().WithActionOutputPort(0xfffffffd).WithActionOutputMaxLen(0xffff),
			flowString: "add table=0 priority=0 actions=output:CONTROLLER",
		},
		{
			name: "learned flow, in port match with buffer",
			flow: NewFlow().
				WithTable(1).
				WithPriority(0x8000).
				WithIdleTimeout(240).
				WithSendFlowRemoved().
				WithBufferID(0x42).
				WithInPort(3).
				WithActionOutputPort(4),
			flowString: "add table=1 priority=32768 idle_timeout=240 send_flow_rem buffer_id=0x42 in_port=3 actions=output:4",
		},
		{
			name: "learned flow, datalink match",
			flow: NewFlow().
				WithPriority(0x8000).
				WithEthSrc(srcAddr).
				WithEthDst(dstAddr).
				WithActionOutputPort(2),
			flowString: "add table=0 priority=32768 dl_src=aa:bb:cc:dd:ee:01 dl_dst=aa:bb:cc:dd:ee:02 actions=output:2",
		},
		{
			name: "delete with cookie and hard timeout",
			flow: NewFlow().
				WithCommand(CommandDeleteStrict).
				WithTable(0xff).
				WithCookie(0x10).
				WithHardTimeout(30).
				WithInPort(0xfffffffe),
			flowString: "delete_strict table=255 priority=0 cookie=0x10 hard_timeout=30 in_port=LOCAL actions=drop",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actualFlow := fmt.Sprintf("%s", test.flow)
			if actualFlow != test.flowString {
				t.Logf("actual flow: %q", actualFlow)
				t.Logf("expected flow: %q", test.flowString)
				t.Errorf("flow string did not match")
			}
		})
	}
}

func Test_FlowValidate(t *testing.T) {
	tests := []struct {
		name    string
		flow    *Flow
		wantErr bool
	}{
		{
			name: "default flow",
			flow: NewFlow(),
		},
		{
			name:    "add to table 255",
			flow:    NewFlow().WithTable(0xff),
			wantErr: true,
		},
		{
			name: "delete from every table",
			flow: NewFlow().WithCommand(CommandDelete).WithTable(0xff),
		},
		{
			name:    "short destination address",
			flow:    NewFlow().WithEthDst(net.HardwareAddr{0xaa, 0xbb}),
			wantErr: true,
		},
		{
			name:    "long source address",
			flow:    NewFlow().WithEthSrc(net.HardwareAddr{1, 2, 3, 4, 5, 6, 7, 8}),
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.flow.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("unexpected validation result: %v", err)
			}
		})
	}
}

func Test_FlowDefaults(t *testing.T) {
	flow := NewFlow()

	if flow.BufferID() != noBuffer {
		t.Errorf("expected no buffer, got %#x", flow.BufferID())
	}
	if _, ok := flow.InPort(); ok {
		t.Error("expected no in_port match")
	}
	if _, ok := flow.Output(); ok {
		t.Error("expected no output action")
	}
}
