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
)

const Version = ofp.Version13

// message types
const (
	TypeHello                 uint8 = ofp13.OFPT_HELLO
	TypeError                 uint8 = ofp13.OFPT_ERROR
	TypeEchoRequest           uint8 = ofp13.OFPT_ECHO_REQUEST
	TypeEchoReply             uint8 = ofp13.OFPT_ECHO_REPLY
	TypeExperimenter          uint8 = ofp13.OFPT_EXPERIMENTER
	TypeFeaturesRequest       uint8 = ofp13.OFPT_FEATURES_REQUEST
	TypeFeaturesReply         uint8 = ofp13.OFPT_FEATURES_REPLY
	TypeGetConfigRequest      uint8 = ofp13.OFPT_GET_CONFIG_REQUEST
	TypeGetConfigReply        uint8 = ofp13.OFPT_GET_CONFIG_REPLY
	TypeSetConfig             uint8 = ofp13.OFPT_SET_CONFIG
	TypePacketIn              uint8 = ofp13.OFPT_PACKET_IN
	TypeFlowRemoved           uint8 = ofp13.OFPT_FLOW_REMOVED
	TypePortStatus            uint8 = ofp13.OFPT_PORT_STATUS
	TypePacketOut             uint8 = ofp13.OFPT_PACKET_OUT
	TypeFlowMod               uint8 = ofp13.OFPT_FLOW_MOD
	TypeGroupMod              uint8 = ofp13.OFPT_GROUP_MOD
	TypePortMod               uint8 = ofp13.OFPT_PORT_MOD
	TypeTableMod              uint8 = ofp13.OFPT_TABLE_MOD
	TypeMultipartRequest      uint8 = ofp13.OFPT_MULTIPART_REQUEST
	TypeMultipartReply        uint8 = ofp13.OFPT_MULTIPART_REPLY
	TypeBarrierRequest        uint8 = ofp13.OFPT_BARRIER_REQUEST
	TypeBarrierReply          uint8 = ofp13.OFPT_BARRIER_REPLY
	TypeQueueGetConfigRequest uint8 = ofp13.OFPT_QUEUE_GET_CONFIG_REQUEST
	TypeQueueGetConfigReply   uint8 = ofp13.OFPT_QUEUE_GET_CONFIG_REPLY
	TypeRoleRequest           uint8 = ofp13.OFPT_ROLE_REQUEST
	TypeRoleReply             uint8 = ofp13.OFPT_ROLE_REPLY
	TypeGetAsyncRequest       uint8 = ofp13.OFPT_GET_ASYNC_REQUEST
	TypeGetAsyncReply         uint8 = ofp13.OFPT_GET_ASYNC_REPLY
	TypeSetAsync              uint8 = ofp13.OFPT_SET_ASYNC
	TypeMeterMod              uint8 = ofp13.OFPT_METER_MOD
)

// action types
const (
	ActionTypeOutput       uint16 = ofp13.OFPAT_OUTPUT
	ActionTypeCopyTTLOut   uint16 = ofp13.OFPAT_COPY_TTL_OUT
	ActionTypeCopyTTLIn    uint16 = ofp13.OFPAT_COPY_TTL_IN
	ActionTypeSetMplsTTL   uint16 = ofp13.OFPAT_SET_MPLS_TTL
	ActionTypeDecMplsTTL   uint16 = ofp13.OFPAT_DEC_MPLS_TTL
	ActionTypePushVlan     uint16 = ofp13.OFPAT_PUSH_VLAN
	ActionTypePopVlan      uint16 = ofp13.OFPAT_POP_VLAN
	ActionTypePushMpls     uint16 = ofp13.OFPAT_PUSH_MPLS
	ActionTypePopMpls      uint16 = ofp13.OFPAT_POP_MPLS
	ActionTypeSetQueue     uint16 = ofp13.OFPAT_SET_QUEUE
	ActionTypeGroup        uint16 = ofp13.OFPAT_GROUP
	ActionTypeSetNwTTL     uint16 = ofp13.OFPAT_SET_NW_TTL
	ActionTypeDecNwTTL     uint16 = ofp13.OFPAT_DEC_NW_TTL
	ActionTypeSetField     uint16 = ofp13.OFPAT_SET_FIELD
	ActionTypePushPbb      uint16 = ofp13.OFPAT_PUSH_PBB
	ActionTypePopPbb       uint16 = ofp13.OFPAT_POP_PBB
	ActionTypeExperimenter uint16 = ofp13.OFPAT_EXPERIMENTER
)

// instruction types
const (
	InstructionTypeGotoTable     uint16 = ofp13.OFPIT_GOTO_TABLE
	InstructionTypeWriteMetadata uint16 = ofp13.OFPIT_WRITE_METADATA
	InstructionTypeWriteActions  uint16 = ofp13.OFPIT_WRITE_ACTIONS
	InstructionTypeApplyActions  uint16 = ofp13.OFPIT_APPLY_ACTIONS
	InstructionTypeClearActions  uint16 = ofp13.OFPIT_CLEAR_ACTIONS
	InstructionTypeMeter         uint16 = ofp13.OFPIT_METER
	InstructionTypeExperimenter  uint16 = ofp13.OFPIT_EXPERIMENTER
)

// multipart types
const (
	MultipartDesc          uint16 = ofp13.OFPMP_DESC
	MultipartFlow          uint16 = ofp13.OFPMP_FLOW
	MultipartAggregate     uint16 = ofp13.OFPMP_AGGREGATE
	MultipartTable         uint16 = ofp13.OFPMP_TABLE
	MultipartPortStats     uint16 = ofp13.OFPMP_PORT_STATS
	MultipartQueue         uint16 = ofp13.OFPMP_QUEUE
	MultipartGroup         uint16 = ofp13.OFPMP_GROUP
	MultipartGroupDesc     uint16 = ofp13.OFPMP_GROUP_DESC
	MultipartGroupFeatures uint16 = ofp13.OFPMP_GROUP_FEATURES
	MultipartMeter         uint16 = ofp13.OFPMP_METER
	MultipartMeterConfig   uint16 = ofp13.OFPMP_METER_CONFIG
	MultipartMeterFeatures uint16 = ofp13.OFPMP_METER_FEATURES
	MultipartTableFeatures uint16 = ofp13.OFPMP_TABLE_FEATURES
	MultipartPortDesc      uint16 = ofp13.OFPMP_PORT_DESC
	MultipartExperimenter  uint16 = ofp13.OFPMP_EXPERIMENTER

	MultipartRequestMore uint16 = ofp13.OFPMPF_REQ_MORE
	MultipartReplyMore   uint16 = ofp13.OFPMPF_REPLY_MORE
)

// table feature property types
const (
	TablePropInstructions      uint16 = ofp13.OFPTFPT_INSTRUCTIONS
	TablePropInstructionsMiss  uint16 = ofp13.OFPTFPT_INSTRUCTIONS_MISS
	TablePropNextTables        uint16 = ofp13.OFPTFPT_NEXT_TABLES
	TablePropNextTablesMiss    uint16 = ofp13.OFPTFPT_NEXT_TABLES_MISS
	TablePropWriteActions      uint16 = ofp13.OFPTFPT_WRITE_ACTIONS
	TablePropWriteActionsMiss  uint16 = ofp13.OFPTFPT_WRITE_ACTIONS_MISS
	TablePropApplyActions      uint16 = ofp13.OFPTFPT_APPLY_ACTIONS
	TablePropApplyActionsMiss  uint16 = ofp13.OFPTFPT_APPLY_ACTIONS_MISS
	TablePropMatch             uint16 = ofp13.OFPTFPT_MATCH
	TablePropWildcards         uint16 = ofp13.OFPTFPT_WILDCARDS
	TablePropWriteSetField     uint16 = ofp13.OFPTFPT_WRITE_SETFIELD
	TablePropWriteSetFieldMiss uint16 = ofp13.OFPTFPT_WRITE_SETFIELD_MISS
	TablePropApplySetField     uint16 = ofp13.OFPTFPT_APPLY_SETFIELD
	TablePropApplySetFieldMiss uint16 = ofp13.OFPTFPT_APPLY_SETFIELD_MISS
	TablePropExperimenter      uint16 = ofp13.OFPTFPT_EXPERIMENTER
	TablePropExperimenterMiss  uint16 = ofp13.OFPTFPT_EXPERIMENTER_MISS
)

// error types and codes used by the controller
const (
	ErrTypeHelloFailed uint16 = ofp13.OFPET_HELLO_FAILED
	ErrTypeBadRequest  uint16 = ofp13.OFPET_BAD_REQUEST

	HelloFailedIncompatible uint16 = ofp13.OFPHFC_INCOMPATIBLE

	BadRequestBadVersion        uint16 = ofp13.OFPBRC_BAD_VERSION
	BadRequestBadType           uint16 = ofp13.OFPBRC_BAD_TYPE
	BadRequestBadLen            uint16 = ofp13.OFPBRC_BAD_LEN
	BadRequestMultipartOverflow uint16 = ofp13.OFPBRC_MULTIPART_BUFFER_OVERFLOW
)

// flow mod
const (
	FlowModAdd          uint8 = ofp13.OFPFC_ADD
	FlowModModify       uint8 = ofp13.OFPFC_MODIFY
	FlowModModifyStrict uint8 = ofp13.OFPFC_MODIFY_STRICT
	FlowModDelete       uint8 = ofp13.OFPFC_DELETE
	FlowModDeleteStrict uint8 = ofp13.OFPFC_DELETE_STRICT

	FlowFlagSendFlowRemoved uint16 = ofp13.OFPFF_SEND_FLOW_REM

	TableMax uint8 = ofp13.OFPTT_MAX
	TableAll uint8 = ofp13.OFPTT_ALL

	GroupAny uint32 = 0xffffffff

	ControllerMaxLen   uint16 = ofp13.OFPCML_MAX
	ControllerNoBuffer uint16 = ofp13.OFPCML_NO_BUFFER
)

const (
	MatchTypeStandard uint16 = ofp13.OFPMT_STANDARD
	MatchTypeOXM      uint16 = ofp13.OFPMT_OXM

	VlanPresent uint16 = ofp13.OFPVID_PRESENT
)

const (
	descStrLen   = ofp13.DESC_STR_LEN
	serialNumLen = ofp13.SERIAL_NUM_LEN
	tableNameLen = ofp13.OFP_MAX_TABLE_NAME_LEN
	portNameLen  = ofp13.OFP_MAX_PORT_NAME_LEN
)
