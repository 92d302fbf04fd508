// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package bgpls

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

type NodeRole uint8

const (
	RoleLocal NodeRole = iota
	RoleRemote
)

func (r NodeRole) tlvType() TLVType {
	if r == RoleRemote {
		return TLVRemoteNodeDescriptors
	}
	return TLVLocalNodeDescriptors
}

func (r NodeRole) String() string {
	if r == RoleRemote {
		return "Remote"
	}
	return "Local"
}

type descriptorKind uint8

const (
	nodeDescriptor descriptorKind = iota
	linkDescriptor
	prefixDescriptor
)

// accepts reports whether a sub-TLV type is decoded in the given context.
// Anything else is consumed and dropped.
func (k descriptorKind) accepts(t TLVType) bool {
	switch k {
	case nodeDescriptor:
		switch t {
		case TLVAutonomousSystem, TLVBgpLsIdentifier, TLVOspfAreaID, TLVIgpRouterID, TLVMultiTopologyID:
			return true
		}
	case linkDescriptor:
		switch t {
		case TLVLinkLocalRemoteIdentifiers, TLVIPv4InterfaceAddress, TLVIPv4NeighborAddress,
			TLVIPv6InterfaceAddress, TLVIPv6NeighborAddress, TLVMultiTopologyID:
			return true
		}
	case prefixDescriptor:
		switch t {
		case TLVOspfRouteType, TLVIPReachabilityInformation, TLVMultiTopologyID:
			return true
		}
	}
	return false
}

// NodeDescriptors is the sub-TLV set of a Local or Remote Node Descriptors TLV.
// SubTLVs keeps encounter order; equality ignores it.
type NodeDescriptors struct {
	Role    NodeRole
	SubTLVs []SubTLV
}

// ASN returns the Autonomous System sub-TLV value, or 0 when absent.
func (nd NodeDescriptors) ASN() uint32 {
	for _, tlv := range nd.SubTLVs {
		if as, ok := tlv.(AutonomousSystem); ok {
			return as.ASN
		}
	}
	return 0
}

// RouterID returns the IGP Router-ID sub-TLV, or nil when absent.
func (nd NodeDescriptors) RouterID() IgpRouterID {
	for _, tlv := range nd.SubTLVs {
		if id, ok := tlv.(IgpRouterID); ok {
			return id
		}
	}
	return nil
}

func (nd NodeDescriptors) String() string {
	return nd.Role.String() + " " + subTLVsString(nd.SubTLVs)
}

func (nd NodeDescriptors) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("role", nd.Role.String())
	return enc.AddArray("subTlvs", subTLVArray(nd.SubTLVs))
}

// LinkIdentifier is the body of a Link NLRI.
type LinkIdentifier struct {
	Local           NodeDescriptors
	Remote          NodeDescriptors
	LinkDescriptors []SubTLV
}

func (l LinkIdentifier) String() string {
	return fmt.Sprintf("%s %s Link %s", l.Local, l.Remote, subTLVsString(l.LinkDescriptors))
}

func (l LinkIdentifier) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if err := enc.AddObject("localNode", l.Local); err != nil {
		return err
	}
	if err := enc.AddObject("remoteNode", l.Remote); err != nil {
		return err
	}
	return enc.AddArray("linkDescriptors", subTLVArray(l.LinkDescriptors))
}

// PrefixIdentifier is the body of a Prefix NLRI.
type PrefixIdentifier struct {
	Local             NodeDescriptors
	PrefixDescriptors []SubTLV
}

// Prefixes returns the IP Reachability Information entries.
func (p PrefixIdentifier) Prefixes() []IPReachabilityInformation {
	var ret []IPReachabilityInformation
	for _, tlv := range p.PrefixDescriptors {
		if r, ok := tlv.(IPReachabilityInformation); ok {
			ret = append(ret, r)
		}
	}
	return ret
}

func (p PrefixIdentifier) String() string {
	return fmt.Sprintf("%s Prefix %s", p.Local, subTLVsString(p.PrefixDescriptors))
}

func (p PrefixIdentifier) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if err := enc.AddObject("localNode", p.Local); err != nil {
		return err
	}
	return enc.AddArray("prefixDescriptors", subTLVArray(p.PrefixDescriptors))
}

type subTLVArray []SubTLV

func (a subTLVArray) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, tlv := range a {
		if err := enc.AppendObject(tlv); err != nil {
			return err
		}
	}
	return nil
}

func subTLVsString(tlvs []SubTLV) string {
	s := make([]string, 0, len(tlvs))
	for _, tlv := range tlvs {
		s = append(s, tlv.String())
	}
	return "{" + strings.Join(s, ", ") + "}"
}

// decodeNodeDescriptors reads one Local/Remote Node Descriptors TLV whose type
// must match role.
func decodeNodeDescriptors(c *Cursor, role NodeRole, protocolID ProtocolID) (NodeDescriptors, error) {
	if c.Len() < TLVHeaderLength {
		return NodeDescriptors{}, newDecodeError(KindTruncatedTLV, c.Rest(),
			fmt.Sprintf("%s Node Descriptors header needs %d bytes, but only %d remain", role, TLVHeaderLength, c.Len()))
	}
	typ, _ := c.ReadUint16()
	length, _ := c.ReadUint16()
	header := tlvHeader(TLVType(typ), length)

	if TLVType(typ) != role.tlvType() {
		n := min(int(length), c.Len())
		rest, _ := c.ReadBytes(n)
		return NodeDescriptors{}, newDecodeError(KindUnexpectedDescriptorType, AppendByteSlices(header, rest),
			fmt.Sprintf("expected %s, got %s", role.tlvType(), TLVType(typ)))
	}
	if int(length) > c.Len() {
		return NodeDescriptors{}, newDecodeError(KindTruncatedTLV, AppendByteSlices(header, c.Rest()),
			fmt.Sprintf("%s declares %d bytes, but only %d remain", TLVType(typ), length, c.Len()))
	}

	sub, _ := c.Sub(int(length))
	tlvs, err := decodeDescriptorList(sub, nodeDescriptor, protocolID, false)
	if err != nil {
		return NodeDescriptors{}, err
	}
	return NodeDescriptors{Role: role, SubTLVs: tlvs}, nil
}

// decodeDescriptorList decodes sub-TLVs until c is exhausted. At most one
// Multi-Topology ID is allowed, and a prefix descriptor list must carry IP
// Reachability Information.
func decodeDescriptorList(c *Cursor, kind descriptorKind, protocolID ProtocolID, ipv6 bool) ([]SubTLV, error) {
	span := c.Rest()
	tlvs := []SubTLV{}
	seenMultiTopology := false
	seenReachability := false

	for c.Len() > 0 {
		typ, value, err := readTLV(c)
		if err != nil {
			return nil, err
		}
		if !kind.accepts(typ) {
			continue
		}
		if typ == TLVMultiTopologyID {
			if seenMultiTopology {
				return nil, newDecodeError(KindDuplicateMultiTopologyID, AppendByteSlices(tlvHeader(typ, uint16(len(value))), value),
					"Multi-Topology ID appears more than once")
			}
			seenMultiTopology = true
		}

		tlv, err := decodeSubTLV(typ, value, protocolID, ipv6)
		if err != nil {
			return nil, err
		}
		if tlv == nil {
			continue
		}
		if typ == TLVIPReachabilityInformation {
			seenReachability = true
		}
		tlvs = append(tlvs, tlv)
	}

	if kind == prefixDescriptor && !seenReachability {
		return nil, newDecodeError(KindMissingReachabilityInfo, span, "prefix descriptors carry no IP Reachability Information")
	}
	return tlvs, nil
}
