// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package bgpls

import (
	"errors"
	"fmt"

	"github.com/osrg/gobgp/v3/pkg/packet/bgp"
	"go.uber.org/zap/zapcore"
)

type ProtocolID uint8

// BGP-LS Protocol-ID (RFC7752 3.2)
const (
	ProtocolIsisL1 ProtocolID = 1
	ProtocolIsisL2 ProtocolID = 2
	ProtocolOspfV2 ProtocolID = 3
	ProtocolDirect ProtocolID = 4
	ProtocolStatic ProtocolID = 5
	ProtocolOspfV3 ProtocolID = 6
)

func (p ProtocolID) Valid() bool {
	return p >= ProtocolIsisL1 && p <= ProtocolOspfV3
}

func (p ProtocolID) String() string {
	switch p {
	case ProtocolIsisL1:
		return "ISIS-L1"
	case ProtocolIsisL2:
		return "ISIS-L2"
	case ProtocolOspfV2:
		return "OSPFv2"
	case ProtocolDirect:
		return "Direct"
	case ProtocolStatic:
		return "Static"
	case ProtocolOspfV3:
		return "OSPFv3"
	default:
		return fmt.Sprintf("Unknown (%d)", uint8(p))
	}
}

// SAFI for BGP-LS VPN (RFC7752 3.3)
const SAFILsVpn uint8 = 72

// Family is the negotiated AFI/SAFI the NLRI arrived with.
type Family struct {
	AFI  uint16
	SAFI uint8
}

var (
	FamilyLs    = Family{AFI: bgp.AFI_LS, SAFI: bgp.SAFI_LS}
	FamilyLsVpn = Family{AFI: bgp.AFI_LS, SAFI: SAFILsVpn}
)

func (f Family) IsVpn() bool {
	return f.SAFI == SAFILsVpn
}

func (f Family) String() string {
	return fmt.Sprintf("%d/%d", f.AFI, f.SAFI)
}

type NlriType uint16

// BGP-LS NLRI types
const (
	NlriTypeNode     NlriType = 1
	NlriTypeLink     NlriType = 2
	NlriTypePrefixV4 NlriType = 3
	NlriTypePrefixV6 NlriType = 4
)

func (t NlriType) String() string {
	switch t {
	case NlriTypeNode:
		return "Node"
	case NlriTypeLink:
		return "Link"
	case NlriTypePrefixV4:
		return "IPv4 Prefix"
	case NlriTypePrefixV6:
		return "IPv6 Prefix"
	default:
		return fmt.Sprintf("Unknown (%d)", uint16(t))
	}
}

const (
	NlriHeaderLength         = 4 // NLRI Type + Total NLRI Length
	RouteDistinguisherLength = 8
	commonHeaderLength       = 9 // Protocol-ID + Identifier
)

// Nlri is one decoded BGP-LS NLRI: *NodeNlri, *LinkNlri or *PrefixNlri.
type Nlri interface {
	Type() NlriType
	Header() NlriHeader
	Equal(other Nlri) bool
	String() string
	MarshalLogObject(enc zapcore.ObjectEncoder) error
}

// NlriHeader holds the fields common to every BGP-LS NLRI.
// RD is set only when the NLRI arrived in the VPN family.
type NlriHeader struct {
	ProtocolID ProtocolID
	Identifier uint64
	RD         bgp.RouteDistinguisherInterface
	IsVpn      bool
}

func (h NlriHeader) String() string {
	s := fmt.Sprintf("protocol: %s, identifier: %d", h.ProtocolID, h.Identifier)
	if h.IsVpn && h.RD != nil {
		s = "rd: " + h.RD.String() + ", " + s
	}
	return s
}

func (h NlriHeader) marshalLogObject(enc zapcore.ObjectEncoder) {
	enc.AddString("protocolId", h.ProtocolID.String())
	enc.AddUint64("identifier", h.Identifier)
	if h.IsVpn && h.RD != nil {
		enc.AddString("rd", h.RD.String())
	}
}

type NodeNlri struct {
	NlriHeader
	LocalNode NodeDescriptors
}

func (n *NodeNlri) Type() NlriType     { return NlriTypeNode }
func (n *NodeNlri) Header() NlriHeader { return n.NlriHeader }

func (n *NodeNlri) String() string {
	return fmt.Sprintf("Node NLRI [%s] %s", n.NlriHeader, n.LocalNode)
}

func (n *NodeNlri) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", n.Type().String())
	n.NlriHeader.marshalLogObject(enc)
	return enc.AddObject("localNode", n.LocalNode)
}

type LinkNlri struct {
	NlriHeader
	Link LinkIdentifier
}

func (n *LinkNlri) Type() NlriType     { return NlriTypeLink }
func (n *LinkNlri) Header() NlriHeader { return n.NlriHeader }

func (n *LinkNlri) String() string {
	return fmt.Sprintf("Link NLRI [%s] %s", n.NlriHeader, n.Link)
}

func (n *LinkNlri) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", n.Type().String())
	n.NlriHeader.marshalLogObject(enc)
	return enc.AddObject("link", n.Link)
}

type PrefixNlri struct {
	NlriHeader
	IPv6   bool
	Prefix PrefixIdentifier
}

func (n *PrefixNlri) Type() NlriType {
	if n.IPv6 {
		return NlriTypePrefixV6
	}
	return NlriTypePrefixV4
}

func (n *PrefixNlri) Header() NlriHeader { return n.NlriHeader }

func (n *PrefixNlri) String() string {
	return fmt.Sprintf("%s NLRI [%s] %s", n.Type(), n.NlriHeader, n.Prefix)
}

func (n *PrefixNlri) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", n.Type().String())
	n.NlriHeader.marshalLogObject(enc)
	return enc.AddObject("prefix", n.Prefix)
}

// decodeNlriHeader reads the optional Route Distinguisher, the Protocol-ID and
// the Identifier.
func decodeNlriHeader(c *Cursor, family Family) (NlriHeader, error) {
	var h NlriHeader
	if family.IsVpn() {
		rd, err := c.ReadBytes(RouteDistinguisherLength)
		if err != nil {
			return h, err
		}
		h.RD = bgp.GetRouteDistinguisher(rd)
		h.IsVpn = true
	}

	if c.Len() < commonHeaderLength {
		return h, newDecodeError(KindTruncatedTLV, c.Rest(),
			fmt.Sprintf("NLRI header needs %d bytes, but only %d remain", commonHeaderLength, c.Len()))
	}
	protocolID, _ := c.ReadUint8()
	if !ProtocolID(protocolID).Valid() {
		return h, newDecodeError(KindUnknownProtocolID, []byte{protocolID},
			fmt.Sprintf("unknown protocol-id %d", protocolID))
	}
	h.ProtocolID = ProtocolID(protocolID)
	h.Identifier, _ = c.ReadUint64()
	return h, nil
}

// DecodeNodeNlri decodes a Node NLRI body; c must span exactly that NLRI.
func DecodeNodeNlri(c *Cursor, family Family) (*NodeNlri, error) {
	h, err := decodeNlriHeader(c, family)
	if err != nil {
		return nil, err
	}
	local, err := decodeNodeDescriptors(c, RoleLocal, h.ProtocolID)
	if err != nil {
		return nil, err
	}
	return &NodeNlri{NlriHeader: h, LocalNode: local}, nil
}

// DecodeLinkNlri decodes a Link NLRI body; c must span exactly that NLRI.
func DecodeLinkNlri(c *Cursor, family Family) (*LinkNlri, error) {
	h, err := decodeNlriHeader(c, family)
	if err != nil {
		return nil, err
	}
	local, err := decodeNodeDescriptors(c, RoleLocal, h.ProtocolID)
	if err != nil {
		return nil, err
	}
	remote, err := decodeNodeDescriptors(c, RoleRemote, h.ProtocolID)
	if err != nil {
		return nil, err
	}
	linkDescriptors, err := decodeDescriptorList(c, linkDescriptor, h.ProtocolID, false)
	if err != nil {
		return nil, err
	}
	return &LinkNlri{
		NlriHeader: h,
		Link: LinkIdentifier{
			Local:           local,
			Remote:          remote,
			LinkDescriptors: linkDescriptors,
		},
	}, nil
}

// DecodePrefixNlri decodes an IPv4 or IPv6 Prefix NLRI body; c must span
// exactly that NLRI.
func DecodePrefixNlri(c *Cursor, family Family, ipv6 bool) (*PrefixNlri, error) {
	h, err := decodeNlriHeader(c, family)
	if err != nil {
		return nil, err
	}
	local, err := decodeNodeDescriptors(c, RoleLocal, h.ProtocolID)
	if err != nil {
		return nil, err
	}
	prefixDescriptors, err := decodeDescriptorList(c, prefixDescriptor, h.ProtocolID, ipv6)
	if err != nil {
		return nil, err
	}
	return &PrefixNlri{
		NlriHeader: h,
		IPv6:       ipv6,
		Prefix: PrefixIdentifier{
			Local:             local,
			PrefixDescriptors: prefixDescriptors,
		},
	}, nil
}

// DecodeNlri reads one NLRI Type / Total NLRI Length framed NLRI from c.
// Unknown NLRI types are consumed and reported as ErrUnsupportedNlriType.
func DecodeNlri(c *Cursor, family Family) (Nlri, error) {
	if c.Len() < NlriHeaderLength {
		return nil, newDecodeError(KindTruncatedTLV, c.Rest(),
			fmt.Sprintf("NLRI header needs %d bytes, but only %d remain", NlriHeaderLength, c.Len()))
	}
	typ, _ := c.ReadUint16()
	length, _ := c.ReadUint16()
	if int(length) > c.Len() {
		return nil, newDecodeError(KindTruncatedTLV, AppendByteSlices(tlvHeader(TLVType(typ), length), c.Rest()),
			fmt.Sprintf("%s NLRI declares %d bytes, but only %d remain", NlriType(typ), length, c.Len()))
	}
	body, _ := c.Sub(int(length))

	switch NlriType(typ) {
	case NlriTypeNode:
		return DecodeNodeNlri(body, family)
	case NlriTypeLink:
		return DecodeLinkNlri(body, family)
	case NlriTypePrefixV4:
		return DecodePrefixNlri(body, family, false)
	case NlriTypePrefixV6:
		return DecodePrefixNlri(body, family, true)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedNlriType, typ)
	}
}

// DecodeNlris decodes every NLRI in data, skipping unsupported NLRI types.
// Decoding stops at the first malformed NLRI.
func DecodeNlris(data []byte, family Family) ([]Nlri, error) {
	c := NewCursor(data)
	var nlris []Nlri
	for c.Len() > 0 {
		nlri, err := DecodeNlri(c, family)
		if errors.Is(err, ErrUnsupportedNlriType) {
			continue
		}
		if err != nil {
			return nil, err
		}
		nlris = append(nlris, nlri)
	}
	return nlris, nil
}
