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
	loxi "github.com/skydive-project/goloxi/of10"

	"github.com/k-vswitch/switchd/ofp"
)

const Version = ofp.Version10

// message types
const (
	TypeHello                 = uint8(loxi.OFPTHello)
	TypeError                 = uint8(loxi.OFPTError)
	TypeEchoRequest           = uint8(loxi.OFPTEchoRequest)
	TypeEchoReply             = uint8(loxi.OFPTEchoReply)
	TypeVendor                = uint8(loxi.OFPTVendor)
	TypeFeaturesRequest       = uint8(loxi.OFPTFeaturesRequest)
	TypeFeaturesReply         = uint8(loxi.OFPTFeaturesReply)
	TypeGetConfigRequest      = uint8(loxi.OFPTGetConfigRequest)
	TypeGetConfigReply        = uint8(loxi.OFPTGetConfigReply)
	TypeSetConfig             = uint8(loxi.OFPTSetConfig)
	TypePacketIn              = uint8(loxi.OFPTPacketIn)
	TypeFlowRemoved           = uint8(loxi.OFPTFlowRemoved)
	TypePortStatus            = uint8(loxi.OFPTPortStatus)
	TypePacketOut             = uint8(loxi.OFPTPacketOut)
	TypeFlowMod               = uint8(loxi.OFPTFlowMod)
	TypePortMod               = uint8(loxi.OFPTPortMod)
	TypeStatsRequest          = uint8(loxi.OFPTStatsRequest)
	TypeStatsReply            = uint8(loxi.OFPTStatsReply)
	TypeBarrierRequest        = uint8(loxi.OFPTBarrierRequest)
	TypeBarrierReply          = uint8(loxi.OFPTBarrierReply)
	TypeQueueGetConfigRequest = uint8(loxi.OFPTQueueGetConfigRequest)
	TypeQueueGetConfigReply   = uint8(loxi.OFPTQueueGetConfigReply)
)

// action types
const (
	ActionTypeOutput     = uint16(loxi.OFPATOutput)
	ActionTypeSetVlanVID = uint16(loxi.OFPATSetVLANVid)
	ActionTypeSetVlanPCP = uint16(loxi.OFPATSetVLANPCP)
	ActionTypeStripVlan  = uint16(loxi.OFPATStripVLAN)
	ActionTypeSetDlSrc   = uint16(loxi.OFPATSetDlSrc)
	ActionTypeSetDlDst   = uint16(loxi.OFPATSetDlDst)
	ActionTypeSetNwSrc   = uint16(loxi.OFPATSetNwSrc)
	ActionTypeSetNwDst   = uint16(loxi.OFPATSetNwDst)
	ActionTypeSetNwTos   = uint16(loxi.OFPATSetNwTos)
	ActionTypeSetTpSrc   = uint16(loxi.OFPATSetTpSrc)
	ActionTypeSetTpDst   = uint16(loxi.OFPATSetTpDst)
	ActionTypeEnqueue    = uint16(loxi.OFPATEnqueue)
	ActionTypeVendor     = uint16(loxi.OFPATVendor)
)

// 16 bit reserved ports
const (
	PortMax        = uint16(loxi.OFPPMax)
	PortInPort     = uint16(loxi.OFPPInPort)
	PortTable      = uint16(loxi.OFPPTable)
	PortNormal     = uint16(loxi.OFPPNormal)
	PortFlood      = uint16(loxi.OFPPFlood)
	PortAll        = uint16(loxi.OFPPAll)
	PortController = uint16(loxi.OFPPController)
	PortLocal      = uint16(loxi.OFPPLocal)
	PortNone       = uint16(loxi.OFPPNone)
)

// match wildcards
const (
	WildcardInPort    = uint32(loxi.OFPFWInPort)
	WildcardDlVlan    = uint32(loxi.OFPFWDlVLAN)
	WildcardDlSrc     = uint32(loxi.OFPFWDlSrc)
	WildcardDlDst     = uint32(loxi.OFPFWDlDst)
	WildcardDlType    = uint32(loxi.OFPFWDlType)
	WildcardNwProto   = uint32(loxi.OFPFWNwProto)
	WildcardTpSrc     = uint32(loxi.OFPFWTpSrc)
	WildcardTpDst     = uint32(loxi.OFPFWTpDst)
	WildcardNwSrcAll  = uint32(loxi.OFPFWNwSrcAll)
	WildcardNwDstAll  = uint32(loxi.OFPFWNwDstAll)
	WildcardDlVlanPCP = uint32(loxi.OFPFWDlVLANPCP)
	WildcardNwTos     = uint32(loxi.OFPFWNwTos)
	WildcardAll       = uint32(loxi.OFPFWAll)
)

// stats types
const (
	StatsDesc      = uint16(loxi.OFPSTDesc)
	StatsFlow      = uint16(loxi.OFPSTFlow)
	StatsAggregate = uint16(loxi.OFPSTAggregate)
	StatsTable     = uint16(loxi.OFPSTTable)
	StatsPort      = uint16(loxi.OFPSTPort)
	StatsQueue     = uint16(loxi.OFPSTQueue)
	StatsVendor    = uint16(loxi.OFPSTVendor)

	StatsReplyMore = uint16(loxi.OFPSFReplyMore)
)

// error types and codes used by the controller
const (
	ErrTypeHelloFailed = uint16(loxi.OFPETHelloFailed)
	ErrTypeBadRequest  = uint16(loxi.OFPETBadRequest)

	HelloFailedIncompatible = uint16(loxi.OFPHFCIncompatible)

	BadRequestBadVersion = uint16(loxi.OFPBRCBadVersion)
	BadRequestBadType    = uint16(loxi.OFPBRCBadType)
	BadRequestBadStat    = uint16(loxi.OFPBRCBadStat)
	BadRequestBadLen     = uint16(loxi.OFPBRCBadLen)
)

const (
	FlowModAdd          = uint16(loxi.OFPFCAdd)
	FlowModModify       = uint16(loxi.OFPFCModify)
	FlowModModifyStrict = uint16(loxi.OFPFCModifyStrict)
	FlowModDelete       = uint16(loxi.OFPFCDelete)
	FlowModDeleteStrict = uint16(loxi.OFPFCDeleteStrict)

	FlowFlagSendFlowRemoved = uint16(loxi.OFPFFSendFlowRem)
)

const (
	PortReasonAdd    = uint8(loxi.OFPPRAdd)
	PortReasonDelete = uint8(loxi.OFPPRDelete)
	PortReasonModify = uint8(loxi.OFPPRModify)
)

const (
	descStrLen    = 256
	serialNumLen  = 32
	tableNameLen  = 32
	portNameLen   = 16
	matchLen      = 40
	phyPortLen    = 48
	descLen       = 4*descStrLen + serialNumLen
	flowStatsLen  = 88
	tableStatsLen = 64
)

// Port16 narrows a 32 bit port number, keeping the reserved ports reserved.
func Port16(port uint32) uint16 {
	if port >= ofp.PortMax {
		return uint16(port) | 0xff00
	}
	return uint16(port)
}

// Port32 widens a 16 bit port number into the OpenFlow 1.3 numbering used
// by the rest of the controller.
func Port32(port uint16) uint32 {
	if port >= PortMax {
		return 0xffff0000 | uint32(port)
	}
	return uint32(port)
}
