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

package of10

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
	"github.com/skydive-project/goloxi"
	loxi "github.com/skydive-project/goloxi/of10"

	"github.com/k-vswitch/switchd/ofp"
)

// Action is one entry of an OpenFlow 1.0 action list.
type Action interface {
	ActionType() uint16
	Len() int
	lib() libAction
}

type libAction interface {
	goloxi.IAction
	SetLen(v uint16)
}

type ActionOutput struct {
	Port   uint16
	MaxLen uint16
}

func (a *ActionOutput) ActionType() uint16 { return ActionTypeOutput }
func (a *ActionOutput) Len() int           { return 8 }

func (a *ActionOutput) lib() libAction {
	la := loxi.NewActionOutput()
	la.SetPort(loxi.Port(a.Port))
	la.SetMaxLen(a.MaxLen)
	return la
}

func (a *ActionOutput) String() string {
	return fmt.Sprintf("output:%d", a.Port)
}

// ActionValue16 is SET_VLAN_VID, SET_TP_SRC or SET_TP_DST.
type ActionValue16 struct {
	Type  uint16
	Value uint16
}

func (a *ActionValue16) ActionType() uint16 { return a.Type }
func (a *ActionValue16) Len() int           { return 8 }

func (a *ActionValue16) lib() libAction {
	switch a.Type {
	case ActionTypeSetTpSrc:
		la := loxi.NewActionSetTpSrc()
		la.SetTpPort(a.Value)
		return la
	case ActionTypeSetTpDst:
		la := loxi.NewActionSetTpDst()
		la.SetTpPort(a.Value)
		return la
	}
	la := loxi.NewActionSetVlanVid()
	la.SetVlanVid(a.Value)
	return la
}

// ActionValue8 is SET_VLAN_PCP or SET_NW_TOS.
type ActionValue8 struct {
	Type  uint16
	Value uint8
}

func (a *ActionValue8) ActionType() uint16 { return a.Type }
func (a *ActionValue8) Len() int           { return 8 }

func (a *ActionValue8) lib() libAction {
	if a.Type == ActionTypeSetNwTos {
		la := loxi.NewActionSetNwTos()
		la.SetNwTos(a.Value)
		return la
	}
	la := loxi.NewActionSetVlanPcp()
	la.SetVlanPcp(a.Value)
	return la
}

type ActionStripVlan struct{}

func (a *ActionStripVlan) ActionType() uint16 { return ActionTypeStripVlan }
func (a *ActionStripVlan) Len() int           { return 8 }

func (a *ActionStripVlan) lib() libAction {
	return loxi.NewActionStripVlan()
}

// ActionDlAddr is SET_DL_SRC or SET_DL_DST.
type ActionDlAddr struct {
	Type uint16
	Addr net.HardwareAddr
}

func (a *ActionDlAddr) ActionType() uint16 { return a.Type }
func (a *ActionDlAddr) Len() int           { return 16 }

func (a *ActionDlAddr) lib() libAction {
	if a.Type == ActionTypeSetDlDst {
		la := loxi.NewActionSetDlDst()
		la.SetDlAddr(hwAddr(a.Addr))
		return la
	}
	la := loxi.NewActionSetDlSrc()
	la.SetDlAddr(hwAddr(a.Addr))
	return la
}

// ActionNwAddr is SET_NW_SRC or SET_NW_DST.
type ActionNwAddr struct {
	Type uint16
	Addr uint32
}

func (a *ActionNwAddr) ActionType() uint16 { return a.Type }
func (a *ActionNwAddr) Len() int           { return 8 }

func (a *ActionNwAddr) lib() libAction {
	if a.Type == ActionTypeSetNwDst {
		la := loxi.NewActionSetNwDst()
		la.SetNwAddr(a.Addr)
		return la
	}
	la := loxi.NewActionSetNwSrc()
	la.SetNwAddr(a.Addr)
	return la
}

type ActionEnqueue struct {
	Port    uint16
	QueueID uint32
}

func (a *ActionEnqueue) ActionType() uint16 { return ActionTypeEnqueue }
func (a *ActionEnqueue) Len() int           { return 16 }

func (a *ActionEnqueue) lib() libAction {
	la := loxi.NewActionEnqueue()
	la.SetPort(loxi.Port(a.Port))
	la.SetQueueId(a.QueueID)
	return la
}

type ActionVendor struct {
	Vendor uint32
	Data   []byte
}

func (a *ActionVendor) ActionType() uint16 { return ActionTypeVendor }
func (a *ActionVendor) Len() int           { return 8 + len(a.Data) }

func (a *ActionVendor) lib() libAction {
	return &vendorAction{Action: loxi.NewAction(ActionTypeVendor), vendor: a.Vendor, data: a.Data}
}

// vendorAction carries an arbitrary vendor payload. goloxi only knows
// the vendor actions it has subtypes for, and rejects the rest on
// decode, so vendor actions are read by DecodeActions.
type vendorAction struct {
	*loxi.Action
	vendor uint32
	data   []byte
}

func (a *vendorAction) Serialize(encoder *goloxi.Encoder) error {
	encoder.PutUint16(ActionTypeVendor)
	encoder.PutUint16(uint16(8 + len(a.data)))
	encoder.PutUint32(a.vendor)
	encoder.Write(a.data)
	return nil
}

var actionSize = map[uint16]int{
	ActionTypeOutput:     8,
	ActionTypeSetVlanVID: 8,
	ActionTypeSetVlanPCP: 8,
	ActionTypeStripVlan:  8,
	ActionTypeSetDlSrc:   16,
	ActionTypeSetDlDst:   16,
	ActionTypeSetNwSrc:   8,
	ActionTypeSetNwDst:   8,
	ActionTypeSetNwTos:   8,
	ActionTypeSetTpSrc:   8,
	ActionTypeSetTpDst:   8,
	ActionTypeEnqueue:    16,
}

func libActions(actions []Action) []goloxi.IAction {
	list := make([]goloxi.IAction, 0, len(actions))
	for _, a := range actions {
		la := a.lib()
		la.SetLen(uint16(a.Len()))
		list = append(list, la)
	}
	return list
}

func EncodeActions(w *ofp.Writer, actions []Action) {
	enc := goloxi.NewEncoder()
	for _, la := range libActions(actions) {
		la.Serialize(enc)
	}
	w.Write(enc.Bytes())
}

func actionsLen(actions []Action) int {
	n := 0
	for _, a := range actions {
		n += a.Len()
	}
	return n
}

// DecodeActions decodes an action list occupying exactly data.
func DecodeActions(data []byte) ([]Action, error) {
	var actions []Action

	r := ofp.NewReader(data)
	for r.Len() > 0 {
		typ, _ := r.PeekUint16(0)
		length, ok := r.PeekUint16(2)
		if !ok {
			return nil, errors.Wrapf(ofp.ErrTruncated, "action header at offset %d", r.Offset())
		}

		if length == 0 {
			return nil, errors.Wrapf(ofp.ErrLoopDetected, "action type %d at offset %d", typ, r.Offset())
		}
		if length < 8 || length%8 != 0 {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "action type %d has length %d", typ, length)
		}
		if int(length) > r.Len() {
			return nil, errors.Wrapf(ofp.ErrTruncated, "action type %d declares %d bytes, %d left", typ, length, r.Len())
		}

		a, err := decodeAction(r.Sub(int(length)))
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	return actions, nil
}

func decodeAction(r *ofp.Reader) (Action, error) {
	typ := r.Uint16()
	length := int(r.Uint16())

	if want, fixed := actionSize[typ]; fixed && length != want {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "action type %d has length %d, expected %d", typ, length, want)
	}

	var a Action
	switch typ {
	case ActionTypeOutput:
		a = &ActionOutput{Port: r.Uint16(), MaxLen: r.Uint16()}
	case ActionTypeSetVlanVID, ActionTypeSetTpSrc, ActionTypeSetTpDst:
		v := &ActionValue16{Type: typ, Value: r.Uint16()}
		r.Skip(2)
		a = v
	case ActionTypeSetVlanPCP, ActionTypeSetNwTos:
		v := &ActionValue8{Type: typ, Value: r.Uint8()}
		r.Skip(3)
		a = v
	case ActionTypeStripVlan:
		r.Skip(4)
		a = &ActionStripVlan{}
	case ActionTypeSetDlSrc, ActionTypeSetDlDst:
		d := &ActionDlAddr{Type: typ, Addr: net.HardwareAddr(r.Bytes(6))}
		r.Skip(6)
		a = d
	case ActionTypeSetNwSrc, ActionTypeSetNwDst:
		a = &ActionNwAddr{Type: typ, Addr: r.Uint32()}
	case ActionTypeEnqueue:
		e := &ActionEnqueue{Port: r.Uint16()}
		r.Skip(6)
		e.QueueID = r.Uint32()
		a = e
	case ActionTypeVendor:
		a = &ActionVendor{Vendor: r.Uint32(), Data: r.Rest()}
	default:
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "unknown action type %d", typ)
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	return a, nil
}
