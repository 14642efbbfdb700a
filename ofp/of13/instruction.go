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
	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

// Instruction is one entry of a FLOW_MOD instruction list.
type Instruction interface {
	InstructionType() uint16
	Len() int
	lib() ofp13.OfpInstruction
}

type InstructionGotoTable struct {
	TableID uint8
}

func (i *InstructionGotoTable) InstructionType() uint16 { return InstructionTypeGotoTable }
func (i *InstructionGotoTable) Len() int                { return 8 }

func (i *InstructionGotoTable) lib() ofp13.OfpInstruction {
	return ofp13.NewOfpInstructionGotoTable(i.TableID)
}

type InstructionWriteMetadata struct {
	Metadata     uint64
	MetadataMask uint64
}

func (i *InstructionWriteMetadata) InstructionType() uint16 { return InstructionTypeWriteMetadata }
func (i *InstructionWriteMetadata) Len() int                { return 24 }

func (i *InstructionWriteMetadata) lib() ofp13.OfpInstruction {
	return ofp13.NewOfpInstructionWriteMetadata(i.Metadata, i.MetadataMask)
}

// InstructionActions is WRITE_ACTIONS, APPLY_ACTIONS or CLEAR_ACTIONS.
type InstructionActions struct {
	Type    uint16
	Actions []Action
}

func NewApplyActions(actions ...Action) *InstructionActions {
	return &InstructionActions{Type: InstructionTypeApplyActions, Actions: actions}
}

func (i *InstructionActions) InstructionType() uint16 { return i.Type }
func (i *InstructionActions) Len() int                { return 8 + actionsLen(i.Actions) }

func (i *InstructionActions) lib() ofp13.OfpInstruction {
	li := ofp13.NewOfpInstructionActions(i.Type)
	li.Actions = libActions(i.Actions)
	return li
}

type InstructionMeter struct {
	MeterID uint32
}

func (i *InstructionMeter) InstructionType() uint16 { return InstructionTypeMeter }
func (i *InstructionMeter) Len() int                { return 8 }

func (i *InstructionMeter) lib() ofp13.OfpInstruction {
	return ofp13.NewOfpInstructionMeter(i.MeterID)
}

type InstructionExperimenter struct {
	Experimenter uint32
	Data         []byte
}

func (i *InstructionExperimenter) InstructionType() uint16 { return InstructionTypeExperimenter }
func (i *InstructionExperimenter) Len() int                { return 8 + len(i.Data) }

func (i *InstructionExperimenter) lib() ofp13.OfpInstruction {
	return &experimenterInstruction{
		OfpInstructionExperimenter: &ofp13.OfpInstructionExperimenter{
			Header:       ofp13.OfpInstructionHeader{Type: InstructionTypeExperimenter, Length: uint16(i.Len())},
			Experimenter: i.Experimenter,
		},
		data: i.Data,
	}
}

type experimenterInstruction struct {
	*ofp13.OfpInstructionExperimenter
	data []byte
}

func (i *experimenterInstruction) Serialize() []byte {
	return append(i.OfpInstructionExperimenter.Serialize(), i.data...)
}

func (i *experimenterInstruction) Size() int {
	return i.OfpInstructionExperimenter.Size() + len(i.data)
}

func EncodeInstructions(w *ofp.Writer, instructions []Instruction) {
	for _, i := range instructions {
		w.Write(i.lib().Serialize())
	}
}

func libInstructions(instructions []Instruction) []ofp13.OfpInstruction {
	list := make([]ofp13.OfpInstruction, 0, len(instructions))
	for _, i := range instructions {
		list = append(list, i.lib())
	}
	return list
}

// DecodeInstructions decodes an instruction list occupying exactly data.
func DecodeInstructions(data []byte) ([]Instruction, error) {
	var instructions []Instruction

	r := ofp.NewReader(data)
	for r.Len() > 0 {
		typ, _ := r.PeekUint16(0)
		length, ok := r.PeekUint16(2)
		if !ok {
			return nil, errors.Wrapf(ofp.ErrTruncated, "instruction header at offset %d", r.Offset())
		}

		if length == 0 {
			return nil, errors.Wrapf(ofp.ErrLoopDetected, "instruction type %d at offset %d", typ, r.Offset())
		}
		if length < 8 {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "instruction type %d has length %d", typ, length)
		}
		if int(length) > r.Len() {
			return nil, errors.Wrapf(ofp.ErrTruncated, "instruction type %d declares %d bytes, %d left", typ, length, r.Len())
		}

		i, err := decodeInstruction(typ, r.Bytes(int(length)))
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, i)
	}

	return instructions, nil
}

func decodeInstruction(typ uint16, raw []byte) (Instruction, error) {
	switch typ {
	case InstructionTypeGotoTable:
		if len(raw) != 8 {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "goto_table length %d", len(raw))
		}
		li := new(ofp13.OfpInstructionGotoTable)
		li.Parse(raw)
		return &InstructionGotoTable{TableID: li.TableId}, nil
	case InstructionTypeWriteMetadata:
		if len(raw) != 24 {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "write_metadata length %d", len(raw))
		}
		li := new(ofp13.OfpInstructionWriteMetadata)
		li.Parse(raw)
		return &InstructionWriteMetadata{Metadata: li.Metadata, MetadataMask: li.MetadataMask}, nil
	case InstructionTypeWriteActions, InstructionTypeApplyActions, InstructionTypeClearActions:
		// DecodeActions bounds checks each action before ofp13 sees it
		actions, err := DecodeActions(raw[8:])
		if err != nil {
			return nil, errors.Wrapf(err, "instruction type %d", typ)
		}
		return &InstructionActions{Type: typ, Actions: actions}, nil
	case InstructionTypeMeter:
		if len(raw) != 8 {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "meter length %d", len(raw))
		}
		li := new(ofp13.OfpInstructionMeter)
		li.Parse(raw)
		return &InstructionMeter{MeterID: li.MeterId}, nil
	case InstructionTypeExperimenter:
		li := new(ofp13.OfpInstructionExperimenter)
		li.Parse(raw)
		i := &InstructionExperimenter{Experimenter: li.Experimenter}
		if len(raw) > 8 {
			i.Data = raw[8:]
		}
		return i, nil
	}
	return nil, errors.Wrapf(ofp.ErrMalformedMessage, "unknown instruction type %d", typ)
}
