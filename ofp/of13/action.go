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

package of13

import (
	"fmt"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

const actionHeaderLen = 4

// Action is one entry of an OpenFlow 1.3 action list.
type Action interface {
	ActionType() uint16
	// Len is the encoded length including padding.
	Len() int
	lib() ofp13.OfpAction
}

type ActionOutput struct {
	Port   uint32
	MaxLen uint16
}

func (a *ActionOutput) ActionType() uint16 { return ActionTypeOutput }
func (a *ActionOutput) Len() int           { return 16 }

func (a *ActionOutput) lib() ofp13.OfpAction {
	return ofp13.NewOfpActionOutput(a.Port, a.MaxLen)
}

func (a *ActionOutput) String() string {
	return fmt.Sprintf("output:%d", a.Port)
}

// ActionBare covers the actions without arguments: COPY_TTL_OUT,
// COPY_TTL_IN, DEC_MPLS_TTL, POP_VLAN, DEC_NW_TTL and POP_PBB.
type ActionBare struct {
	Type uint16
}

func (a *ActionBare) ActionType() uint16 { return a.Type }
func (a *ActionBare) Len() int           { return 8 }

func (a *ActionBare) lib() ofp13.OfpAction {
	switch a.Type {
	case ActionTypeCopyTTLOut:
		return ofp13.NewOfpActionCopyTtlOut()
	case ActionTypeCopyTTLIn:
		return ofp13.NewOfpActionCopyTtlIn()
	case ActionTypeDecMplsTTL:
		return ofp13.NewOfpActionDecMplsTtl()
	case ActionTypePopVlan:
		return ofp13.NewOfpActionPopVlan(0)
	case ActionTypePopPbb:
		return ofp13.NewOfpActionPopPbb(0)
	case ActionTypeDecNwTTL:
		return ofp13.NewOfpActionDecNwTtl()
	}
	return &ofp13.OfpActionDecNwTtl{ActionHeader: ofp13.NewOfpActionHeader(a.Type, 8)}
}

// ActionTTL is SET_MPLS_TTL or SET_NW_TTL.
type ActionTTL struct {
	Type uint16
	TTL  uint8
}

func (a *ActionTTL) ActionType() uint16 { return a.Type }
func (a *ActionTTL) Len() int           { return 8 }

func (a *ActionTTL) lib() ofp13.OfpAction {
	if a.Type == ActionTypeSetMplsTTL {
		return ofp13.NewOfpActionSetMplsTtl(a.TTL)
	}
	return &ofp13.OfpActionSetNwTtl{ActionHeader: ofp13.NewOfpActionHeader(a.Type, 8), NwTtl: a.TTL}
}

// ActionEtherType is PUSH_VLAN, PUSH_MPLS, PUSH_PBB or POP_MPLS.
type ActionEtherType struct {
	Type      uint16
	EtherType uint16
}

func (a *ActionEtherType) ActionType() uint16 { return a.Type }
func (a *ActionEtherType) Len() int           { return 8 }

func (a *ActionEtherType) lib() ofp13.OfpAction {
	if a.Type == ActionTypePopMpls {
		return ofp13.NewOfpActionPopMpls(a.EtherType)
	}
	return ofp13.NewOfpActionPush(a.Type, a.EtherType)
}

// ActionID is SET_QUEUE or GROUP.
type ActionID struct {
	Type uint16
	ID   uint32
}

func (a *ActionID) ActionType() uint16 { return a.Type }
func (a *ActionID) Len() int           { return 8 }

func (a *ActionID) lib() ofp13.OfpAction {
	if a.Type == ActionTypeGroup {
		return ofp13.NewOfpActionGroup(a.ID)
	}
	return &ofp13.OfpActionSetQueue{ActionHeader: ofp13.NewOfpActionHeader(a.Type, 8), QueueId: a.ID}
}

// ActionSetField rewrites one or more header fields.
type ActionSetField struct {
	Fields []Oxm
}

func (a *ActionSetField) ActionType() uint16 { return ActionTypeSetField }

func (a *ActionSetField) Len() int {
	n := actionHeaderLen + oxmListLen(a.Fields)
	return n + ofp.Pad8(n)
}

func (a *ActionSetField) lib() ofp13.OfpAction {
	if len(a.Fields) == 1 {
		return ofp13.NewOfpActionSetField(a.Fields[0].lib())
	}
	return &setFieldList{fields: a.Fields}
}

// setFieldList is a SET_FIELD carrying several OXMs, which
// ofp13.OfpActionSetField cannot hold.
type setFieldList struct {
	fields []Oxm
}

func (a *setFieldList) Serialize() []byte {
	w := ofp.NewWriter(a.Size())
	header := ofp13.NewOfpActionHeader(ActionTypeSetField, uint16(a.Size()))
	w.Write(header.Serialize())
	EncodeOxmList(w, a.fields)
	w.Zero(a.Size() - w.Len())
	return w.Bytes()
}

func (a *setFieldList) Parse(packet []byte) {
	if len(packet) < actionHeaderLen {
		return
	}
	if set, err := decodeSetField(packet[actionHeaderLen:]); err == nil {
		a.fields = set.Fields
	}
}

func (a *setFieldList) Size() int {
	return (&ActionSetField{Fields: a.fields}).Len()
}

func (a *setFieldList) OfpActionType() uint16 { return ActionTypeSetField }

type ActionExperimenter struct {
	Experimenter uint32
	Data         []byte
}

func (a *ActionExperimenter) ActionType() uint16 { return ActionTypeExperimenter }
func (a *ActionExperimenter) Len() int           { return 8 + len(a.Data) }

func (a *ActionExperimenter) lib() ofp13.OfpAction {
	e := ofp13.NewOfpActionExperimenter(a.Experimenter)
	if len(a.Data) == 0 {
		return e
	}
	e.ActionHeader.Length = uint16(a.Len())
	return &experimenterAction{OfpActionExperimenter: e, data: a.Data}
}

// experimenterAction appends the experimenter payload ofp13 drops.
type experimenterAction struct {
	*ofp13.OfpActionExperimenter
	data []byte
}

func (a *experimenterAction) Serialize() []byte {
	return append(a.OfpActionExperimenter.Serialize(), a.data...)
}

func (a *experimenterAction) Size() int {
	return a.OfpActionExperimenter.Size() + len(a.data)
}

// fixed size of every action variant except SET_FIELD and EXPERIMENTER
var actionSize = map[uint16]int{
	ActionTypeOutput:     16,
	ActionTypeCopyTTLOut: 8,
	ActionTypeCopyTTLIn:  8,
	ActionTypeSetMplsTTL: 8,
	ActionTypeDecMplsTTL: 8,
	ActionTypePushVlan:   8,
	ActionTypePopVlan:    8,
	ActionTypePushMpls:   8,
	ActionTypePopMpls:    8,
	ActionTypeSetQueue:   8,
	ActionTypeGroup:      8,
	ActionTypeSetNwTTL:   8,
	ActionTypeDecNwTTL:   8,
	ActionTypePushPbb:    8,
	ActionTypePopPbb:     8,
}

func EncodeActions(w *ofp.Writer, actions []Action) {
	for _, a := range actions {
		w.Write(a.lib().Serialize())
	}
}

func libActions(actions []Action) []ofp13.OfpAction {
	list := make([]ofp13.OfpAction, 0, len(actions))
	for _, a := range actions {
		list = append(list, a.lib())
	}
	return list
}

func actionsLen(actions []Action) int {
	n := 0
	for _, a := range actions {
		n += a.Len()
	}
	return n
}

// DecodeActions decodes an action list occupying exactly data. Each TLV
// is bounds checked before it is handed to ofp13.ParseAction.
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

		a, err := decodeAction(typ, r.Bytes(int(length)))
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	return actions, nil
}

func decodeAction(typ uint16, raw []byte) (Action, error) {
	if want, fixed := actionSize[typ]; fixed && len(raw) != want {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "action type %d has length %d, expected %d", typ, len(raw), want)
	}

	switch typ {
	case ActionTypeSetField:
		a, err := decodeSetField(raw[actionHeaderLen:])
		if err != nil {
			return nil, errors.Wrap(err, "set_field")
		}
		return a, nil
	case ActionTypeExperimenter:
		e := ofp13.NewOfpActionExperimenter(0)
		e.Parse(raw)
		a := &ActionExperimenter{Experimenter: e.Experimenter}
		if len(raw) > 8 {
			a.Data = raw[8:]
		}
		return a, nil
	}

	if _, fixed := actionSize[typ]; !fixed {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "unknown action type %d", typ)
	}

	switch la := ofp13.ParseAction(raw).(type) {
	case *ofp13.OfpActionOutput:
		return &ActionOutput{Port: la.Port, MaxLen: la.MaxLen}, nil
	case *ofp13.OfpActionSetMplsTtl:
		return &ActionTTL{Type: typ, TTL: la.MplsTtl}, nil
	case *ofp13.OfpActionSetNwTtl:
		return &ActionTTL{Type: typ, TTL: la.NwTtl}, nil
	case *ofp13.OfpActionPush:
		return &ActionEtherType{Type: typ, EtherType: la.EtherType}, nil
	case *ofp13.OfpActionPop:
		if typ == ActionTypePopMpls {
			return &ActionEtherType{Type: typ, EtherType: la.EtherType}, nil
		}
		return &ActionBare{Type: typ}, nil
	case *ofp13.OfpActionGroup:
		return &ActionID{Type: typ, ID: la.GroupId}, nil
	case *ofp13.OfpActionSetQueue:
		return &ActionID{Type: typ, ID: la.QueueId}, nil
	}
	return &ActionBare{Type: typ}, nil
}

// decodeSetField decodes the OXM list of a SET_FIELD. The list is
// followed by fewer than eight bytes of zero padding, which is removed
// first: a zero byte would otherwise read as the start of an NXM_0 TLV.
func decodeSetField(data []byte) (*ActionSetField, error) {
	n := len(data)
	for n > 0 && data[n-1] == 0 {
		n--
	}

	// the last field may end in zero bytes of its own
	fields, err := DecodeOxmList(data[:n])
	for errors.Cause(err) == ofp.ErrTruncated && n < len(data) {
		n++
		fields, err = DecodeOxmList(data[:n])
	}
	if err != nil {
		return nil, err
	}
	if len(data)-n >= 8 {
		return nil, errors.Wrapf(ofp.ErrMalformedMessage, "set_field has %d trailing bytes", len(data)-n)
	}
	if len(fields) == 0 {
		return nil, errors.Wrap(ofp.ErrMalformedMessage, "set_field without a field")
	}
	return &ActionSetField{Fields: fields}, nil
}
