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

package switches

import (
	"sort"
	"sync"

	"github.com/k-vswitch/switchd/ofp"
	"github.com/k-vswitch/switchd/ofp/of13"
	"github.com/pkg/errors"
)

// InstructionSet is a bitmap of OpenFlow 1.3 instruction types.
type InstructionSet uint64

func (s InstructionSet) Has(typ uint16) bool {
	return typ < 64 && s&(1<<typ) != 0
}

// Add sets the bit for typ. Types beyond 63, such as experimenter
// instructions, have no bit and are ignored.
func (s *InstructionSet) Add(typ uint16) {
	if typ < 64 {
		*s |= 1 << typ
	}
}

// ActionSet is a bitmap of action types.
type ActionSet uint64

func (s ActionSet) Has(typ uint16) bool {
	return typ < 64 && s&(1<<typ) != 0
}

func (s *ActionSet) Add(typ uint16) {
	if typ < 64 {
		*s |= 1 << typ
	}
}

// FieldSet is a bitmap of OXM_OF_* basic match field numbers.
type FieldSet uint64

func (s FieldSet) Has(field uint8) bool {
	return field < 64 && s&(1<<field) != 0
}

func (s *FieldSet) Add(field uint8) {
	if field < 64 {
		*s |= 1 << field
	}
}

// TableSet is a bitmap over all 256 table ids.
type TableSet [4]uint64

func (s TableSet) Has(id uint8) bool {
	return s[id/64]&(1<<(id%64)) != 0
}

func (s *TableSet) Add(id uint8) {
	s[id/64] |= 1 << (id % 64)
}

// FlowTable is the capability model of one flow table on a switch.
type FlowTable struct {
	ID         uint8
	Name       string
	MaxEntries uint32

	Instructions     InstructionSet
	InstructionsMiss InstructionSet
	Actions          ActionSet
	ActionsMiss      ActionSet
	NextTables       TableSet
	NextTablesMiss   TableSet

	Match         FieldSet
	Wildcards     FieldSet
	SetField      FieldSet
	SetFieldMiss  FieldSet
	Experimenters int
}

// FlowTables is the set of tables known for a switch.
type FlowTables struct {
	sync.Mutex

	tables map[uint8]*FlowTable
}

func NewFlowTables() *FlowTables {
	return &FlowTables{
		tables: make(map[uint8]*FlowTable),
	}
}

// BeginUpdate discards every known table. It is called on the first chunk
// of a fresh TABLE_FEATURES reply, which describes the whole pipeline.
func (t *FlowTables) BeginUpdate() {
	t.Lock()
	defer t.Unlock()

	t.tables = make(map[uint8]*FlowTable)
}

// ApplyTableFeatures folds the properties of one table into its model.
func (t *FlowTables) ApplyTableFeatures(tf *of13.TableFeatures) error {
	if tf.TableID == of13.TableAll {
		return errors.Wrapf(ofp.ErrMalformedMessage, "table id %d is reserved", tf.TableID)
	}

	t.Lock()
	defer t.Unlock()

	table, exists := t.tables[tf.TableID]
	if !exists {
		table = &FlowTable{ID: tf.TableID}
	}
	table.Name = tf.Name
	table.MaxEntries = tf.MaxEntries

	for _, prop := range tf.Properties {
		if err := table.applyProperty(prop); err != nil {
			return errors.Wrapf(err, "table %d", tf.TableID)
		}
	}

	t.tables[tf.TableID] = table
	return nil
}

func (ft *FlowTable) applyProperty(prop of13.TableFeatureProp) error {
	switch prop.Type {
	case of13.TablePropInstructions:
		for _, id := range prop.IDs {
			ft.Instructions.Add(id)
		}
	case of13.TablePropInstructionsMiss:
		for _, id := range prop.IDs {
			ft.InstructionsMiss.Add(id)
		}
	case of13.TablePropNextTables:
		for _, id := range prop.Tables {
			ft.NextTables.Add(id)
		}
	case of13.TablePropNextTablesMiss:
		for _, id := range prop.Tables {
			ft.NextTablesMiss.Add(id)
		}
	case of13.TablePropWriteActions, of13.TablePropApplyActions:
		for _, id := range prop.IDs {
			ft.Actions.Add(id)
		}
	case of13.TablePropWriteActionsMiss, of13.TablePropApplyActionsMiss:
		for _, id := range prop.IDs {
			ft.ActionsMiss.Add(id)
		}
	case of13.TablePropMatch:
		addFields(&ft.Match, prop.Oxms)
	case of13.TablePropWildcards:
		addFields(&ft.Wildcards, prop.Oxms)
	case of13.TablePropWriteSetField, of13.TablePropApplySetField:
		addFields(&ft.SetField, prop.Oxms)
	case of13.TablePropWriteSetFieldMiss, of13.TablePropApplySetFieldMiss:
		addFields(&ft.SetFieldMiss, prop.Oxms)
	case of13.TablePropExperimenter, of13.TablePropExperimenterMiss:
		ft.Experimenters++
	default:
		return errors.Wrapf(ofp.ErrMalformedMessage, "unknown table feature property %d", prop.Type)
	}
	return nil
}

func addFields(set *FieldSet, oxms []uint32) {
	for _, h := range oxms {
		class, field := of13.OxmHeaderField(h)
		if class == of13.OxmClassOpenFlowBasic {
			set.Add(field)
		}
	}
}

// SetTable installs a table model built from something other than a
// TABLE_FEATURES reply, as done for OpenFlow 1.0 switches.
func (t *FlowTables) SetTable(table FlowTable) {
	t.Lock()
	defer t.Unlock()

	t.tables[table.ID] = &table
}

// TableSupporting returns the lowest numbered table that accepts the
// instruction and action on its regular path.
func (t *FlowTables) TableSupporting(instruction, action uint16) (uint8, bool) {
	return t.find(func(ft *FlowTable) bool {
		return ft.Instructions.Has(instruction) && ft.Actions.Has(action)
	})
}

// TableSupportingMiss is TableSupporting for the table-miss path.
func (t *FlowTables) TableSupportingMiss(instruction, action uint16) (uint8, bool) {
	return t.find(func(ft *FlowTable) bool {
		return ft.InstructionsMiss.Has(instruction) && ft.ActionsMiss.Has(action)
	})
}

func (t *FlowTables) find(match func(ft *FlowTable) bool) (uint8, bool) {
	t.Lock()
	defer t.Unlock()

	for _, id := range t.sortedIDs() {
		if match(t.tables[id]) {
			return id, true
		}
	}
	return 0, false
}

// Table returns a copy of the model for table id.
func (t *FlowTables) Table(id uint8) (FlowTable, bool) {
	t.Lock()
	defer t.Unlock()

	ft, exists := t.tables[id]
	if !exists {
		return FlowTable{}, false
	}
	return *ft, true
}

// IDs returns the known table ids in ascending order.
func (t *FlowTables) IDs() []uint8 {
	t.Lock()
	defer t.Unlock()

	return t.sortedIDs()
}

func (t *FlowTables) sortedIDs() []uint8 {
	ids := make([]uint8, 0, len(t.tables))
	for id := range t.tables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *FlowTables) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.tables)
}
