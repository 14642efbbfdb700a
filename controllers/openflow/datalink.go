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
	"bytes"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/k-vswitch/switchd/ofp/of13"
	"github.com/k-vswitch/switchd/switches"
	"github.com/pkg/errors"

	"k8s.io/klog"
)

var zeroMAC = net.HardwareAddr{0, 0, 0, 0, 0, 0}

// isGroup is true for multicast addresses, broadcast included.
func isGroup(addr net.HardwareAddr) bool {
	return len(addr) > 0 && addr[0]&0x01 != 0
}

func validSource(addr net.HardwareAddr) bool {
	return len(addr) == 6 && !isGroup(addr) && !bytes.Equal(addr, zeroMAC)
}

// decide learns the source of a PACKET_IN and returns the messages that
// forward it. No messages are returned for frames that are dropped.
func decide(sw *switches.Switch, factory ofp.Factory, nextXid func() uint32, ev ofp.PacketIn) ([]ofp.Message, error) {
	eth := &layers.Ethernet{}
	if err := eth.DecodeFromBytes(ev.Data, gopacket.NilDecodeFeedback); err != nil {
		klog.V(4).Infof("switch %s: dropping undecodable frame from port %d: %v", sw.Addr(), ev.InPort, err)
		return nil, nil
	}

	src, dst := eth.SrcMAC, eth.DstMAC
	if !validSource(src) {
		klog.V(4).Infof("switch %s: ignoring frame with source %s", sw.Addr(), src)
		return nil, nil
	}

	if err := sw.Cache.Learn(src, ev.InPort); err != nil {
		if errors.Cause(err) != switches.ErrResourceExhausted {
			return nil, err
		}
		klog.V(4).Infof("switch %s: not learning %s: %v", sw.Addr(), src, err)
	}

	target := ofp.PortFlood
	known := false
	if !isGroup(dst) {
		target, known = sw.Cache.Lookup(dst)
		if !known {
			target = ofp.PortFlood
		}
	}

	if target == ev.InPort {
		klog.V(4).Infof("switch %s: %s is behind ingress port %d, dropping", sw.Addr(), dst, ev.InPort)
		return nil, nil
	}

	var data []byte
	if ev.BufferID == ofp.NoBuffer {
		data = ev.Data
	}

	if known {
		table, ok := sw.Tables.TableSupporting(of13.InstructionTypeApplyActions, of13.ActionTypeOutput)
		if ok {
			flow := learnedFlow(factory.Version(), table, sw.Cache.Timeout(), ev, dst, target)
			flowMod, err := factory.NewFlowMod(nextXid(), flow)
			if err != nil {
				return nil, errors.Wrapf(err, "building flow for %s", dst)
			}
			klog.V(4).Infof("switch %s: %s -> %s via port %d: %s", sw.Addr(), src, dst, target, flow)

			messages := []ofp.Message{flowMod}
			if data != nil {
				messages = append(messages, factory.NewPacketOut(nextXid(), ofp.PacketOut{
					BufferID: ofp.NoBuffer,
					InPort:   ev.InPort,
					OutPort:  target,
					Data:     data,
				}))
			}
			return messages, nil
		}
		klog.V(4).Infof("switch %s: no table can forward to port %d, sending packet out only", sw.Addr(), target)
	} else {
		klog.V(4).Infof("switch %s: %s -> %s flooding from port %d", sw.Addr(), src, dst, ev.InPort)
	}

	return []ofp.Message{factory.NewPacketOut(nextXid(), ofp.PacketOut{
		BufferID: ev.BufferID,
		InPort:   ev.InPort,
		OutPort:  target,
		Data:     data,
	})}, nil
}
