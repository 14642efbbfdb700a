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

const (
	tableFeaturesFixedLen = 64
	tablePropHeaderLen    = 4
)

// TableFeatures describes one flow table in a TABLE_FEATURES multipart.
type TableFeatures struct {
	TableID       uint8
	Name          string
	MetadataMatch uint64
	MetadataWrite uint64
	Config        uint32
	MaxEntries    uint32
	Properties    []TableFeatureProp
}

func (t *TableFeatures) length() int {
	n := tableFeaturesFixedLen
	for i := range t.Properties {
		l := t.Properties[i].length()
		n += l + ofp.Pad8(l)
	}
	return n
}

func (t *TableFeatures) encode(w *ofp.Writer) {
	w.PutUint16(uint16(t.length()))
	w.PutUint8(t.TableID)
	w.Zero(5)
	w.PutString(t.Name, tableNameLen)
	w.PutUint64(t.MetadataMatch)
	w.PutUint64(t.MetadataWrite)
	w.PutUint32(t.Config)
	w.PutUint32(t.MaxEntries)
	for i := range t.Properties {
		t.Properties[i].encode(w)
	}
}

type TableFeaturesList []TableFeatures

func (l TableFeaturesList) encode(w *ofp.Writer) {
	for i := range l {
		l[i].encode(w)
	}
}

func decodeTableFeaturesList(r *ofp.Reader) (TableFeaturesList, error) {
	var list TableFeaturesList
	for r.Len() > 0 {
		length, ok := r.PeekUint16(0)
		if !ok {
			return nil, errors.Wrapf(ofp.ErrTruncated, "table features at offset %d", r.Offset())
		}
		if length == 0 {
			return nil, errors.Wrapf(ofp.ErrLoopDetected, "table features at offset %d", r.Offset())
		}
		if length < tableFeaturesFixedLen {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "table features length %d", length)
		}
		if int(length) > r.Len() {
			return nil, errors.Wrapf(ofp.ErrTruncated, "table features declares %d bytes, %d left", length, r.Len())
		}

		t, err := decodeTableFeatures(r.Sub(int(length)))
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, nil
}

func decodeTableFeatures(r *ofp.Reader) (TableFeatures, error) {
	var t TableFeatures
	r.Skip(2)
	t.TableID = r.Uint8()
	r.Skip(5)
	t.Name = r.String(tableNameLen)
	t.MetadataMatch = r.Uint64()
	t.MetadataWrite = r.Uint64()
	t.Config = r.Uint32()
	t.MaxEntries = r.Uint32()
	if err := r.Err(); err != nil {
		return t, err
	}

	for r.Len() > 0 {
		typ, _ := r.PeekUint16(0)
		length, ok := r.PeekUint16(2)
		if !ok {
			return t, errors.Wrapf(ofp.ErrTruncated, "table %d property header", t.TableID)
		}
		if length == 0 {
			return t, errors.Wrapf(ofp.ErrLoopDetected, "table %d property type %d", t.TableID, typ)
		}
		if length < tablePropHeaderLen {
			return t, errors.Wrapf(ofp.ErrMalformedMessage, "table %d property type %d has length %d", t.TableID, typ, length)
		}
		if int(length) > r.Len() {
			return t, errors.Wrapf(ofp.ErrTruncated, "table %d property type %d declares %d bytes, %d left", t.TableID, typ, length, r.Len())
		}

		p, err := decodeTableFeatureProp(r.Bytes(int(length)))
		if err != nil {
			return t, errors.Wrapf(err, "table %d", t.TableID)
		}
		t.Properties = append(t.Properties, p)

		// the padding of the last property may be cut short
		pad := ofp.Pad8(int(length))
		if pad > r.Len() {
			pad = r.Len()
		}
		r.Skip(pad)
	}

	return t, r.Err()
}

// TableFeatureProp is one table feature property. Which of the lists is
// populated depends on Type.
type TableFeatureProp struct {
	Type uint16

	// INSTRUCTIONS, WRITE_ACTIONS and APPLY_ACTIONS, including the miss
	// variants: instruction or action types.
	IDs []uint16
	// NEXT_TABLES and NEXT_TABLES_MISS
	Tables []uint8
	// MATCH, WILDCARDS and the SETFIELD properties: oxm headers.
	Oxms []uint32

	Experimenter uint32
	ExpType      uint32
	Data         []byte
}

func (p *TableFeatureProp) length() int {
	switch p.Type {
	case TablePropInstructions, TablePropInstructionsMiss,
		TablePropWriteActions, TablePropWriteActionsMiss,
		TablePropApplyActions, TablePropApplyActionsMiss:
		return tablePropHeaderLen + 4*len(p.IDs)
	case TablePropNextTables, TablePropNextTablesMiss:
		return tablePropHeaderLen + len(p.Tables)
	case TablePropExperimenter, TablePropExperimenterMiss:
		return tablePropHeaderLen + 8 + len(p.Data)
	}
	return tablePropHeaderLen + 4*len(p.Oxms)
}

// lib returns the gofc form of the property. Action id lists share the
// layout of instruction id lists. Experimenter properties return nil.
func (p *TableFeatureProp) lib() ofp13.OfpTableFeatureProp {
	header := ofp13.OfpTableFeaturePropHeader{Type: p.Type, Length: uint16(p.length())}

	switch p.Type {
	case TablePropInstructions, TablePropInstructionsMiss,
		TablePropWriteActions, TablePropWriteActionsMiss,
		TablePropApplyActions, TablePropApplyActionsMiss:
		lp := &ofp13.OfpTableFeaturePropInstructions{PropHeader: header}
		for _, id := range p.IDs {
			lp.InstructionIds = append(lp.InstructionIds, ofp13.NewOfpInstructionId(id, 4))
		}
		return lp
	case TablePropNextTables, TablePropNextTablesMiss:
		return &ofp13.OfpTableFeaturePropNextTables{PropHeader: header, NextTableIds: p.Tables}
	case TablePropExperimenter, TablePropExperimenterMiss:
		return nil
	}
	return &ofp13.OfpTableFeaturePropOxm{PropHeader: header, OxmIds: p.Oxms}
}

func (p *TableFeatureProp) encode(w *ofp.Writer) {
	if lp := p.lib(); lp != nil {
		w.Write(lp.Serialize())
		return
	}

	// ofp13 truncates experimenter data to 32 bit words
	length := p.length()
	w.PutUint16(p.Type)
	w.PutUint16(uint16(length))
	w.PutUint32(p.Experimenter)
	w.PutUint32(p.ExpType)
	w.Write(p.Data)
	w.Zero(ofp.Pad8(length))
}

func decodeTableFeatureProp(raw []byte) (TableFeatureProp, error) {
	r := ofp.NewReader(raw)
	p := TableFeatureProp{Type: r.Uint16()}
	r.Skip(2)

	switch p.Type {
	case TablePropInstructions, TablePropInstructionsMiss,
		TablePropWriteActions, TablePropWriteActionsMiss,
		TablePropApplyActions, TablePropApplyActionsMiss:
		ids, err := decodeElementIDs(r)
		if err != nil {
			return p, errors.Wrapf(err, "property type %d", p.Type)
		}
		p.IDs = ids
	case TablePropNextTables, TablePropNextTablesMiss:
		lp := new(ofp13.OfpTableFeaturePropNextTables)
		lp.Parse(raw)
		if len(lp.NextTableIds) > 0 {
			p.Tables = lp.NextTableIds
		}
		r.Skip(r.Len())
	case TablePropMatch, TablePropWildcards,
		TablePropWriteSetField, TablePropWriteSetFieldMiss,
		TablePropApplySetField, TablePropApplySetFieldMiss:
		oxms, err := decodeOxmIDs(r)
		if err != nil {
			return p, errors.Wrapf(err, "property type %d", p.Type)
		}
		p.Oxms = oxms
	case TablePropExperimenter, TablePropExperimenterMiss:
		p.Experimenter = r.Uint32()
		p.ExpType = r.Uint32()
		p.Data = r.Rest()
	default:
		return p, errors.Wrapf(ofp.ErrMalformedMessage, "unknown table feature property type %d", p.Type)
	}

	return p, r.Err()
}

// decodeElementIDs reads the (type, length) headers listed by the
// instruction and action properties.
func decodeElementIDs(r *ofp.Reader) ([]uint16, error) {
	var ids []uint16
	for r.Len() > 0 {
		typ := r.Uint16()
		length := int(r.Uint16())
		if err := r.Err(); err != nil {
			return nil, err
		}
		if length == 0 {
			return nil, errors.Wrapf(ofp.ErrLoopDetected, "element id type %d", typ)
		}
		if length < 4 {
			return nil, errors.Wrapf(ofp.ErrMalformedMessage, "element id type %d has length %d", typ, length)
		}
		r.Skip(length - 4)
		ids = append(ids, typ)
	}
	return ids, r.Err()
}
