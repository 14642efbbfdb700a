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
	"strings"

	"github.com/k-vswitch/switchd/connection"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/k-vswitch/switchd/ofp/of10"
	"github.com/k-vswitch/switchd/ofp/of13"
	"github.com/k-vswitch/switchd/switches"
	"github.com/pkg/errors"

	"k8s.io/klog"
)

// missSendLen asks the switch to send whole frames to the controller.
const missSendLen = of13.ControllerNoBuffer

type packetIn interface {
	ofp.Message
	Event() (ofp.PacketIn, error)
}

// controller is the learning switch logic run for every established
// connection.
type controller struct{}

// NewController returns the handler for connections once they reach the
// established state.
func NewController() connection.Handler {
	return &controller{}
}

// SwitchConnected records the features of the switch and starts its
// configuration.
func (c *controller) SwitchConnected(conn *connection.Connection, features ofp.Message) error {
	sw := conn.Switch()
	if sw == nil {
		return errors.Errorf("features reply from %s before hello", conn.Peer())
	}

	switch m := features.(type) {
	case *of10.FeaturesReply:
		sw.SetFeatures(of10.Version, m.DatapathID, m.NTables, m.Capabilities)

		// OpenFlow 1.0 has a single table that applies actions directly
		sw.Tables.SetTable(of10Table(m.Actions))
	case *of13.FeaturesReply:
		sw.SetFeatures(of13.Version, m.DatapathID, m.NTables, m.Capabilities)
	default:
		return errors.Errorf("unexpected features reply %T", features)
	}

	klog.Infof("switch %s has datapath ID %#016x", conn.Peer(), sw.DatapathID())

	factory := conn.Factory()
	conn.Send(factory.NewSetConfig(conn.NextXid(), missSendLen))
	conn.Send(factory.NewDescRequest(conn.NextXid()))

	if conn.Version() == of13.Version {
		req, err := factory.NewTableFeaturesRequest(conn.NextXid())
		if err != nil {
			return err
		}
		conn.Send(req)
	}

	return nil
}

func of10Table(actions uint32) switches.FlowTable {
	table := switches.FlowTable{ID: 0, Name: "classifier"}
	table.Instructions.Add(of13.InstructionTypeApplyActions)
	table.InstructionsMiss.Add(of13.InstructionTypeApplyActions)

	for typ := uint16(0); typ < 32; typ++ {
		if actions&(1<<typ) != 0 {
			table.Actions.Add(typ)
			table.ActionsMiss.Add(typ)
		}
	}
	return table
}

// HandleMessage runs the established steady state.
func (c *controller) HandleMessage(conn *connection.Connection, msg ofp.Message) error {
	sw := conn.Switch()
	if sw == nil {
		return errors.Errorf("message from %s before hello", conn.Peer())
	}

	switch m := msg.(type) {
	case packetIn:
		ev, err := m.Event()
		if err != nil {
			return err
		}

		responses, err := decide(sw, conn.Factory(), conn.NextXid, ev)
		if err != nil {
			return err
		}
		for _, response := range responses {
			conn.Send(response)
		}

	case *of10.FlowRemoved:
		klog.V(2).Infof("switch %s removed flow %s cookie=%#x priority=%d reason=%d",
			conn.Peer(), m.Match, m.Cookie, m.Priority, m.Reason)
	case *of13.FlowRemoved:
		klog.V(2).Infof("switch %s removed flow in table %d cookie=%#x priority=%d reason=%d",
			conn.Peer(), m.TableID, m.Cookie, m.Priority, m.Reason)

	case *of10.PortStatus:
		portStatus(sw, m.Reason, of10.Port32(m.Port.PortNo), m.Port.Name)
	case *of13.PortStatus:
		portStatus(sw, m.Reason, m.Port.PortNo, m.Port.Name)

	case *of10.StatsReply:
		return c.multipartReply(conn, sw, m.Xid, m.StatsType, m.More(), m.Body)
	case *of13.MultipartReply:
		return c.multipartReply(conn, sw, m.Xid, m.MpType, m.More(), m.Body)

	case *of10.StatsRequest:
		klog.V(2).Infof("ignoring stats request type %d from switch %s", m.StatsType, conn.Peer())
	case *of13.MultipartRequest:
		klog.V(2).Infof("ignoring multipart request type %d from switch %s", m.MpType, conn.Peer())

	default:
		klog.V(4).Infof("ignoring %s from switch %s", msg.MessageHeader(), conn.Peer())
	}

	return nil
}

func portStatus(sw *switches.Switch, reason uint8, port uint32, name string) {
	// port reasons share their numbering in both versions
	switch reason {
	case of13.PortReasonAdd:
		klog.Infof("switch %s added port %d (%s)", sw.Addr(), port, name)
	case of13.PortReasonModify:
		klog.V(2).Infof("switch %s modified port %d (%s)", sw.Addr(), port, name)
	case of13.PortReasonDelete:
		n := sw.Cache.RemovePort(port)
		klog.Infof("switch %s deleted port %d (%s), forgot %d addresses", sw.Addr(), port, name, n)
	}
}

// multipartReply tracks one chunk of a multipart or stats reply and
// applies its body to the switch.
func (c *controller) multipartReply(conn *connection.Connection, sw *switches.Switch, xid uint32, typ uint16, more bool, body interface{}) error {
	tracker := conn.Multipart()

	_, continued := tracker.Lookup(xid)
	if err := tracker.Begin(xid, typ); err != nil {
		conn.Send(conn.Factory().NewError(xid, ofp.ErrorMultipartOverflow, nil))
		tracker.End(xid)
		return err
	}
	if !more {
		defer tracker.End(xid)
	}

	// the last chunk completes the table list even when it carries no tables
	tables := typ == of13.MultipartTableFeatures && conn.Version() == ofp.Version13
	if tables && !continued {
		sw.Tables.BeginUpdate()
	}

	switch b := body.(type) {
	case of13.TableFeaturesList:
		for i := range b {
			if err := sw.Tables.ApplyTableFeatures(&b[i]); err != nil {
				return errors.Wrapf(err, "table features from %s", conn.Peer())
			}
		}
	case *of13.Desc:
		sw.SetDescription(description(b.Manufacturer, b.Hardware, b.Software, b.SerialNumber, b.Datapath))
	case *of10.Desc:
		sw.SetDescription(description(b.Manufacturer, b.Hardware, b.Software, b.SerialNumber, b.Datapath))

	default:
		if !tables {
			klog.V(4).Infof("ignoring multipart reply type %d from switch %s", typ, conn.Peer())
		}
	}

	if tables && !more {
		klog.V(2).Infof("switch %s reported %d tables", conn.Peer(), sw.Tables.Len())
		if sw.Configure() {
			return installTableMiss(conn, sw)
		}
	}

	return nil
}

func description(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, " / ")
}

// installTableMiss sends unmatched packets of the switch to the controller.
func installTableMiss(conn *connection.Connection, sw *switches.Switch) error {
	flow := tableMissFlow(sw.Tables)

	m, err := conn.Factory().NewFlowMod(conn.NextXid(), flow)
	if err != nil {
		return errors.Wrapf(err, "building table-miss flow for %s", conn.Peer())
	}

	klog.Infof("installing table-miss flow on switch %s: %s", conn.Peer(), flow)
	conn.Send(m)
	return nil
}
