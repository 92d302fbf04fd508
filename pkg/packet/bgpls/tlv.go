// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package bgpls

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"

	"go.uber.org/zap/zapcore"
)

type TLVType uint16

// BGP-LS NLRI TLV and sub-TLV types
const (
	TLVLocalNodeDescriptors       TLVType = 256
	TLVRemoteNodeDescriptors      TLVType = 257
	TLVLinkLocalRemoteIdentifiers TLVType = 258
	TLVIPv4InterfaceAddress       TLVType = 259
	TLVIPv4NeighborAddress        TLVType = 260
	TLVIPv6InterfaceAddress       TLVType = 261
	TLVIPv6NeighborAddress        TLVType = 262
	TLVMultiTopologyID            TLVType = 263
	TLVOspfRouteType              TLVType = 264
	TLVIPReachabilityInformation  TLVType = 265
	TLVAutonomousSystem           TLVType = 512
	TLVBgpLsIdentifier            TLVType = 513
	TLVOspfAreaID                 TLVType = 514
	TLVIgpRouterID                TLVType = 515
)

var tlvDescriptions = map[TLVType]struct {
	Description string
	Reference   string
}{
	TLVLocalNodeDescriptors:       {"Local Node Descriptors", "RFC7752"},
	TLVRemoteNodeDescriptors:      {"Remote Node Descriptors", "RFC7752"},
	TLVLinkLocalRemoteIdentifiers: {"Link Local/Remote Identifiers", "RFC5307"},
	TLVIPv4InterfaceAddress:       {"IPv4 interface address", "RFC5305"},
	TLVIPv4NeighborAddress:        {"IPv4 neighbor address", "RFC5305"},
	TLVIPv6InterfaceAddress:       {"IPv6 interface address", "RFC6119"},
	TLVIPv6NeighborAddress:        {"IPv6 neighbor address", "RFC6119"},
	TLVMultiTopologyID:            {"Multi-Topology Identifier", "RFC7752"},
	TLVOspfRouteType:              {"OSPF Route Type", "RFC7752"},
	TLVIPReachabilityInformation:  {"IP Reachability Information", "RFC7752"},
	TLVAutonomousSystem:           {"Autonomous System", "RFC7752"},
	TLVBgpLsIdentifier:            {"BGP-LS Identifier", "RFC7752"},
	TLVOspfAreaID:                 {"OSPF Area-ID", "RFC7752"},
	TLVIgpRouterID:                {"IGP Router-ID", "RFC7752"},
}

func (t TLVType) String() string {
	if desc, ok := tlvDescriptions[t]; ok {
		return fmt.Sprintf("%s (%s)", desc.Description, desc.Reference)
	}
	return fmt.Sprintf("Unknown TLV (%d)", uint16(t))
}

// TLV header length (type + length)
const TLVHeaderLength = 4

// TLV value lengths, excluding the 4-byte TLV header (type + length)
const (
	TLVAutonomousSystemValueLength           uint16 = 4
	TLVBgpLsIdentifierValueLength            uint16 = 4
	TLVOspfAreaIDValueLength                 uint16 = 4
	TLVLinkLocalRemoteIdentifiersValueLength uint16 = 8
	TLVIPv4AddressValueLength                uint16 = 4
	TLVIPv6AddressValueLength                uint16 = 16
	TLVOspfRouteTypeValueLength              uint16 = 1
	IsisNonPseudonodeValueLength             uint16 = 6
	IsisPseudonodeValueLength                uint16 = 7
	OspfNonPseudonodeValueLength             uint16 = 4
	OspfPseudonodeValueLength                uint16 = 8
)

// SubTLV is a decoded descriptor sub-TLV. The set of implementations is closed.
type SubTLV interface {
	Type() TLVType
	String() string
	MarshalLogObject(enc zapcore.ObjectEncoder) error
	isSubTLV()
}

type AutonomousSystem struct {
	ASN uint32
}

func (AutonomousSystem) Type() TLVType { return TLVAutonomousSystem }
func (AutonomousSystem) isSubTLV()     {}

func (tlv AutonomousSystem) String() string {
	return fmt.Sprintf("AS: %d", tlv.ASN)
}

func (tlv AutonomousSystem) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint32("asn", tlv.ASN)
	return nil
}

type BgpLsIdentifier struct {
	ID uint32
}

func (BgpLsIdentifier) Type() TLVType { return TLVBgpLsIdentifier }
func (BgpLsIdentifier) isSubTLV()     {}

func (tlv BgpLsIdentifier) String() string {
	return fmt.Sprintf("BGP-LS ID: %d", tlv.ID)
}

func (tlv BgpLsIdentifier) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint32("bgpLsId", tlv.ID)
	return nil
}

type AreaID struct {
	Area uint32
}

func (AreaID) Type() TLVType { return TLVOspfAreaID }
func (AreaID) isSubTLV()     {}

func (tlv AreaID) String() string {
	return fmt.Sprintf("Area: %d", tlv.Area)
}

func (tlv AreaID) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint32("areaId", tlv.Area)
	return nil
}

// IgpRouterID is one of IsisNonPseudonode, IsisPseudonode, OspfNonPseudonode or OspfPseudonode.
type IgpRouterID interface {
	SubTLV
	IsPseudonode() bool
	IsOspf() bool
	// ID returns the Router-ID without the sub-TLV label.
	ID() string
	bytes() []byte
}

type IsisNonPseudonode struct {
	SystemID [6]byte
}

func (IsisNonPseudonode) Type() TLVType      { return TLVIgpRouterID }
func (IsisNonPseudonode) isSubTLV()          {}
func (IsisNonPseudonode) IsPseudonode() bool { return false }
func (IsisNonPseudonode) IsOspf() bool       { return false }
func (tlv IsisNonPseudonode) bytes() []byte  { return tlv.SystemID[:] }

func (tlv IsisNonPseudonode) ID() string {
	return isoSystemID(tlv.SystemID)
}

func (tlv IsisNonPseudonode) String() string {
	return "IGP Router-ID: " + tlv.ID()
}

func (tlv IsisNonPseudonode) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("isisSystemId", isoSystemID(tlv.SystemID))
	return nil
}

type IsisPseudonode struct {
	SystemID [6]byte
	PsnID    uint8
}

func (IsisPseudonode) Type() TLVType      { return TLVIgpRouterID }
func (IsisPseudonode) isSubTLV()          {}
func (IsisPseudonode) IsPseudonode() bool { return true }
func (IsisPseudonode) IsOspf() bool       { return false }
func (tlv IsisPseudonode) bytes() []byte  { return append(tlv.SystemID[:], tlv.PsnID) }

func (tlv IsisPseudonode) ID() string {
	return fmt.Sprintf("%s.%02x", isoSystemID(tlv.SystemID), tlv.PsnID)
}

func (tlv IsisPseudonode) String() string {
	return "IGP Router-ID: " + tlv.ID()
}

func (tlv IsisPseudonode) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("isisSystemId", isoSystemID(tlv.SystemID))
	enc.AddUint8("psnId", tlv.PsnID)
	return nil
}

type OspfNonPseudonode struct {
	RouterID netip.Addr
}

func (OspfNonPseudonode) Type() TLVType      { return TLVIgpRouterID }
func (OspfNonPseudonode) isSubTLV()          {}
func (OspfNonPseudonode) IsPseudonode() bool { return false }
func (OspfNonPseudonode) IsOspf() bool       { return true }
func (tlv OspfNonPseudonode) bytes() []byte  { return tlv.RouterID.AsSlice() }

func (tlv OspfNonPseudonode) ID() string {
	return tlv.RouterID.String()
}

func (tlv OspfNonPseudonode) String() string {
	return "IGP Router-ID: " + tlv.ID()
}

func (tlv OspfNonPseudonode) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ospfRouterId", tlv.RouterID.String())
	return nil
}

type OspfPseudonode struct {
	DRRouterID  netip.Addr
	DRInterface netip.Addr
}

func (OspfPseudonode) Type() TLVType      { return TLVIgpRouterID }
func (OspfPseudonode) isSubTLV()          {}
func (OspfPseudonode) IsPseudonode() bool { return true }
func (OspfPseudonode) IsOspf() bool       { return true }

func (tlv OspfPseudonode) bytes() []byte {
	return AppendByteSlices(tlv.DRRouterID.AsSlice(), tlv.DRInterface.AsSlice())
}

func (tlv OspfPseudonode) ID() string {
	return tlv.DRRouterID.String() + ":" + tlv.DRInterface.String()
}

func (tlv OspfPseudonode) String() string {
	return "IGP Router-ID: " + tlv.ID()
}

func (tlv OspfPseudonode) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ospfDrRouterId", tlv.DRRouterID.String())
	enc.AddString("ospfDrInterface", tlv.DRInterface.String())
	return nil
}

// MultiTopologyID carries the raw list of 2-octet MT-ID entries.
type MultiTopologyID struct {
	Value []byte
}

func (MultiTopologyID) Type() TLVType { return TLVMultiTopologyID }
func (MultiTopologyID) isSubTLV()     {}

// IDs returns the 12-bit multi-topology identifiers.
func (tlv MultiTopologyID) IDs() []uint16 {
	ids := make([]uint16, 0, len(tlv.Value)/2)
	for i := 0; i+1 < len(tlv.Value); i += 2 {
		ids = append(ids, binary.BigEndian.Uint16(tlv.Value[i:i+2])&0x0fff)
	}
	return ids
}

func (tlv MultiTopologyID) String() string {
	return fmt.Sprintf("MT-ID: %v", tlv.IDs())
}

func (tlv MultiTopologyID) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("multiTopologyId", hex.EncodeToString(tlv.Value))
	return nil
}

type LinkLocalRemoteIdentifiers struct {
	LocalID  uint32
	RemoteID uint32
}

func (LinkLocalRemoteIdentifiers) Type() TLVType { return TLVLinkLocalRemoteIdentifiers }
func (LinkLocalRemoteIdentifiers) isSubTLV()     {}

func (tlv LinkLocalRemoteIdentifiers) String() string {
	return fmt.Sprintf("Link ID: %d/%d", tlv.LocalID, tlv.RemoteID)
}

func (tlv LinkLocalRemoteIdentifiers) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint32("linkLocalId", tlv.LocalID)
	enc.AddUint32("linkRemoteId", tlv.RemoteID)
	return nil
}

type IPv4InterfaceAddress struct {
	Addr netip.Addr
}

func (IPv4InterfaceAddress) Type() TLVType { return TLVIPv4InterfaceAddress }
func (IPv4InterfaceAddress) isSubTLV()     {}

func (tlv IPv4InterfaceAddress) String() string {
	return "IPv4 Interface: " + tlv.Addr.String()
}

func (tlv IPv4InterfaceAddress) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ipv4InterfaceAddress", tlv.Addr.String())
	return nil
}

type IPv4NeighborAddress struct {
	Addr netip.Addr
}

func (IPv4NeighborAddress) Type() TLVType { return TLVIPv4NeighborAddress }
func (IPv4NeighborAddress) isSubTLV()     {}

func (tlv IPv4NeighborAddress) String() string {
	return "IPv4 Neighbor: " + tlv.Addr.String()
}

func (tlv IPv4NeighborAddress) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ipv4NeighborAddress", tlv.Addr.String())
	return nil
}

type IPv6InterfaceAddress struct {
	Addr netip.Addr
}

func (IPv6InterfaceAddress) Type() TLVType { return TLVIPv6InterfaceAddress }
func (IPv6InterfaceAddress) isSubTLV()     {}

func (tlv IPv6InterfaceAddress) String() string {
	return "IPv6 Interface: " + tlv.Addr.String()
}

func (tlv IPv6InterfaceAddress) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ipv6InterfaceAddress", tlv.Addr.String())
	return nil
}

type IPv6NeighborAddress struct {
	Addr netip.Addr
}

func (IPv6NeighborAddress) Type() TLVType { return TLVIPv6NeighborAddress }
func (IPv6NeighborAddress) isSubTLV()     {}

func (tlv IPv6NeighborAddress) String() string {
	return "IPv6 Neighbor: " + tlv.Addr.String()
}

func (tlv IPv6NeighborAddress) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ipv6NeighborAddress", tlv.Addr.String())
	return nil
}

type OspfRouteTypeValue uint8

const (
	OspfRouteIntraArea OspfRouteTypeValue = 1
	OspfRouteInterArea OspfRouteTypeValue = 2
	OspfRouteExternal1 OspfRouteTypeValue = 3
	OspfRouteExternal2 OspfRouteTypeValue = 4
	OspfRouteNssa1     OspfRouteTypeValue = 5
	OspfRouteNssa2     OspfRouteTypeValue = 6
)

func (v OspfRouteTypeValue) String() string {
	switch v {
	case OspfRouteIntraArea:
		return "Intra-Area"
	case OspfRouteInterArea:
		return "Inter-Area"
	case OspfRouteExternal1:
		return "External 1"
	case OspfRouteExternal2:
		return "External 2"
	case OspfRouteNssa1:
		return "NSSA 1"
	case OspfRouteNssa2:
		return "NSSA 2"
	default:
		return fmt.Sprintf("Unknown (%d)", uint8(v))
	}
}

type OspfRouteType struct {
	RouteType OspfRouteTypeValue
}

func (OspfRouteType) Type() TLVType { return TLVOspfRouteType }
func (OspfRouteType) isSubTLV()     {}

func (tlv OspfRouteType) String() string {
	return "OSPF Route Type: " + tlv.RouteType.String()
}

func (tlv OspfRouteType) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ospfRouteType", tlv.RouteType.String())
	return nil
}

type IPReachabilityInformation struct {
	Prefix netip.Prefix
}

func (IPReachabilityInformation) Type() TLVType { return TLVIPReachabilityInformation }
func (IPReachabilityInformation) isSubTLV()     {}

func (tlv IPReachabilityInformation) String() string {
	return "Prefix: " + tlv.Prefix.String()
}

func (tlv IPReachabilityInformation) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ipReachability", tlv.Prefix.String())
	return nil
}

func isoSystemID(id [6]byte) string {
	s := hex.EncodeToString(id[:])
	return strings.Join([]string{s[0:4], s[4:8], s[8:12]}, ".")
}

// readTLV reads one type/length/value record from c. A declared length that
// exceeds the remaining bytes fails with TruncatedTlv carrying the header and
// whatever bytes remain.
func readTLV(c *Cursor) (TLVType, []byte, error) {
	if c.Len() < TLVHeaderLength {
		return 0, nil, newDecodeError(KindTruncatedTLV, c.Rest(),
			fmt.Sprintf("TLV header needs %d bytes, but only %d remain", TLVHeaderLength, c.Len()))
	}
	typ, _ := c.ReadUint16()
	length, _ := c.ReadUint16()
	if int(length) > c.Len() {
		return 0, nil, newDecodeError(KindTruncatedTLV, AppendByteSlices(tlvHeader(TLVType(typ), length), c.Rest()),
			fmt.Sprintf("%s declares %d bytes, but only %d remain", TLVType(typ), length, c.Len()))
	}
	value, _ := c.ReadBytes(int(length))
	return TLVType(typ), value, nil
}

func invalidLength(typ TLVType, value []byte) error {
	return newDecodeError(KindInvalidTLVLength, AppendByteSlices(tlvHeader(typ, uint16(len(value))), value),
		fmt.Sprintf("invalid length %d for %s", len(value), typ))
}

func expectLength(typ TLVType, value []byte, want uint16) error {
	if len(value) != int(want) {
		return invalidLength(typ, value)
	}
	return nil
}

// decodeSubTLV decodes a known sub-TLV value. It returns nil, nil for type
// codes it does not know.
func decodeSubTLV(typ TLVType, value []byte, protocolID ProtocolID, ipv6 bool) (SubTLV, error) {
	switch typ {
	case TLVAutonomousSystem:
		if err := expectLength(typ, value, TLVAutonomousSystemValueLength); err != nil {
			return nil, err
		}
		return AutonomousSystem{ASN: binary.BigEndian.Uint32(value)}, nil
	case TLVBgpLsIdentifier:
		if err := expectLength(typ, value, TLVBgpLsIdentifierValueLength); err != nil {
			return nil, err
		}
		return BgpLsIdentifier{ID: binary.BigEndian.Uint32(value)}, nil
	case TLVOspfAreaID:
		if err := expectLength(typ, value, TLVOspfAreaIDValueLength); err != nil {
			return nil, err
		}
		return AreaID{Area: binary.BigEndian.Uint32(value)}, nil
	case TLVIgpRouterID:
		return decodeIgpRouterID(value, protocolID)
	case TLVMultiTopologyID:
		if len(value)%2 != 0 {
			return nil, invalidLength(typ, value)
		}
		return MultiTopologyID{Value: value}, nil
	case TLVLinkLocalRemoteIdentifiers:
		if err := expectLength(typ, value, TLVLinkLocalRemoteIdentifiersValueLength); err != nil {
			return nil, err
		}
		return LinkLocalRemoteIdentifiers{
			LocalID:  binary.BigEndian.Uint32(value[0:4]),
			RemoteID: binary.BigEndian.Uint32(value[4:8]),
		}, nil
	case TLVIPv4InterfaceAddress, TLVIPv4NeighborAddress:
		if err := expectLength(typ, value, TLVIPv4AddressValueLength); err != nil {
			return nil, err
		}
		addr := netip.AddrFrom4([4]byte(value))
		if typ == TLVIPv4InterfaceAddress {
			return IPv4InterfaceAddress{Addr: addr}, nil
		}
		return IPv4NeighborAddress{Addr: addr}, nil
	case TLVIPv6InterfaceAddress, TLVIPv6NeighborAddress:
		if err := expectLength(typ, value, TLVIPv6AddressValueLength); err != nil {
			return nil, err
		}
		addr := netip.AddrFrom16([16]byte(value))
		if typ == TLVIPv6InterfaceAddress {
			return IPv6InterfaceAddress{Addr: addr}, nil
		}
		return IPv6NeighborAddress{Addr: addr}, nil
	case TLVOspfRouteType:
		if err := expectLength(typ, value, TLVOspfRouteTypeValueLength); err != nil {
			return nil, err
		}
		return OspfRouteType{RouteType: OspfRouteTypeValue(value[0])}, nil
	case TLVIPReachabilityInformation:
		return decodeIPReachability(value, ipv6)
	default:
		return nil, nil
	}
}

// decodeIgpRouterID picks the IGP Router-ID variant from the protocol and the
// declared length.
func decodeIgpRouterID(value []byte, protocolID ProtocolID) (SubTLV, error) {
	isis := func() (SubTLV, error) {
		switch len(value) {
		case int(IsisPseudonodeValueLength):
			if value[6] != 0 {
				return IsisPseudonode{SystemID: [6]byte(value[:6]), PsnID: value[6]}, nil
			}
			return IsisNonPseudonode{SystemID: [6]byte(value[:6])}, nil
		case int(IsisNonPseudonodeValueLength):
			return IsisNonPseudonode{SystemID: [6]byte(value)}, nil
		}
		return nil, invalidLength(TLVIgpRouterID, value)
	}
	ospf := func() (SubTLV, error) {
		switch len(value) {
		case int(OspfNonPseudonodeValueLength):
			return OspfNonPseudonode{RouterID: netip.AddrFrom4([4]byte(value))}, nil
		case int(OspfPseudonodeValueLength):
			return OspfPseudonode{
				DRRouterID:  netip.AddrFrom4([4]byte(value[0:4])),
				DRInterface: netip.AddrFrom4([4]byte(value[4:8])),
			}, nil
		}
		return nil, invalidLength(TLVIgpRouterID, value)
	}

	switch protocolID {
	case ProtocolIsisL1, ProtocolIsisL2:
		return isis()
	case ProtocolOspfV2, ProtocolOspfV3:
		return ospf()
	default:
		// Direct and Static carry whichever IGP format the originator used.
		switch len(value) {
		case int(IsisNonPseudonodeValueLength), int(IsisPseudonodeValueLength):
			return isis()
		}
		return ospf()
	}
}

func decodeIPReachability(value []byte, ipv6 bool) (SubTLV, error) {
	if len(value) < 1 {
		return nil, invalidLength(TLVIPReachabilityInformation, value)
	}
	bits := int(value[0])
	prefixBytes := value[1:]
	maxBits := 32
	if ipv6 {
		maxBits = 128
	}
	if bits > maxBits || len(prefixBytes) != (bits+7)/8 {
		return nil, invalidLength(TLVIPReachabilityInformation, value)
	}

	var addr netip.Addr
	if ipv6 {
		var b [16]byte
		copy(b[:], prefixBytes)
		addr = netip.AddrFrom16(b)
	} else {
		var b [4]byte
		copy(b[:], prefixBytes)
		addr = netip.AddrFrom4(b)
	}
	return IPReachabilityInformation{Prefix: netip.PrefixFrom(addr, bits)}, nil
}

// compareSubTLV is a total order over sub-TLVs: type code, then IGP Router-ID
// variant, then value.
func compareSubTLV(a, b SubTLV) int {
	if c := compareUint(a.Type(), b.Type()); c != 0 {
		return c
	}
	switch a := a.(type) {
	case AutonomousSystem:
		return compareUint(a.ASN, b.(AutonomousSystem).ASN)
	case BgpLsIdentifier:
		return compareUint(a.ID, b.(BgpLsIdentifier).ID)
	case AreaID:
		return compareUint(a.Area, b.(AreaID).Area)
	case IgpRouterID:
		other := b.(IgpRouterID)
		if c := compareUint(igpRank(a), igpRank(other)); c != 0 {
			return c
		}
		return bytes.Compare(a.bytes(), other.bytes())
	case MultiTopologyID:
		return bytes.Compare(a.Value, b.(MultiTopologyID).Value)
	case LinkLocalRemoteIdentifiers:
		other := b.(LinkLocalRemoteIdentifiers)
		if c := compareUint(a.LocalID, other.LocalID); c != 0 {
			return c
		}
		return compareUint(a.RemoteID, other.RemoteID)
	case IPv4InterfaceAddress:
		return a.Addr.Compare(b.(IPv4InterfaceAddress).Addr)
	case IPv4NeighborAddress:
		return a.Addr.Compare(b.(IPv4NeighborAddress).Addr)
	case IPv6InterfaceAddress:
		return a.Addr.Compare(b.(IPv6InterfaceAddress).Addr)
	case IPv6NeighborAddress:
		return a.Addr.Compare(b.(IPv6NeighborAddress).Addr)
	case OspfRouteType:
		return compareUint(a.RouteType, b.(OspfRouteType).RouteType)
	case IPReachabilityInformation:
		other := b.(IPReachabilityInformation)
		if c := a.Prefix.Addr().Compare(other.Prefix.Addr()); c != 0 {
			return c
		}
		return compareUint(uint(a.Prefix.Bits()), uint(other.Prefix.Bits()))
	default:
		panic(fmt.Sprintf("bgpls: unhandled sub-TLV %T", a))
	}
}

func igpRank(id IgpRouterID) uint8 {
	return uint8(boolToInt(id.IsOspf())<<1 | boolToInt(id.IsPseudonode()))
}
