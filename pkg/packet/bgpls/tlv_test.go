// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package bgpls

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestDecodeSubTLV(t *testing.T) {
	tests := []struct {
		name       string
		typ        TLVType
		value      []byte
		protocolID ProtocolID
		ipv6       bool
		expected   SubTLV
		err        error
	}{
		{
			name:     "Autonomous System",
			typ:      TLVAutonomousSystem,
			value:    u32(65000),
			expected: AutonomousSystem{ASN: 65000},
		},
		{
			name:     "BGP-LS Identifier",
			typ:      TLVBgpLsIdentifier,
			value:    u32(7),
			expected: BgpLsIdentifier{ID: 7},
		},
		{
			name:     "OSPF Area-ID",
			typ:      TLVOspfAreaID,
			value:    u32(1),
			expected: AreaID{Area: 1},
		},
		{
			name:     "Autonomous System with a short value",
			typ:      TLVAutonomousSystem,
			value:    []byte{0x00, 0x01, 0x02},
			expected: nil,
			err:      ErrInvalidTLVLength,
		},
		{
			name:       "ISIS non-pseudonode",
			typ:        TLVIgpRouterID,
			value:      []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
			protocolID: ProtocolIsisL2,
			expected:   IsisNonPseudonode{SystemID: [6]byte{0, 0, 0, 0, 0, 1}},
		},
		{
			name:       "ISIS pseudonode",
			typ:        TLVIgpRouterID,
			value:      []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x05},
			protocolID: ProtocolIsisL1,
			expected:   IsisPseudonode{SystemID: [6]byte{0, 0, 0, 0, 0, 1}, PsnID: 5},
		},
		{
			name:       "ISIS 7-byte Router-ID with a zero PSN is a non-pseudonode",
			typ:        TLVIgpRouterID,
			value:      []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00},
			protocolID: ProtocolIsisL1,
			expected:   IsisNonPseudonode{SystemID: [6]byte{0, 0, 0, 0, 0, 1}},
		},
		{
			name:       "ISIS Router-ID with an OSPF length",
			typ:        TLVIgpRouterID,
			value:      ip("192.0.2.1"),
			protocolID: ProtocolIsisL2,
			err:        ErrInvalidTLVLength,
		},
		{
			name:       "OSPF non-pseudonode",
			typ:        TLVIgpRouterID,
			value:      ip("192.0.2.1"),
			protocolID: ProtocolOspfV2,
			expected:   OspfNonPseudonode{RouterID: netip.MustParseAddr("192.0.2.1")},
		},
		{
			name:       "OSPF pseudonode",
			typ:        TLVIgpRouterID,
			value:      AppendByteSlices(ip("192.0.2.1"), ip("10.0.0.1")),
			protocolID: ProtocolOspfV3,
			expected: OspfPseudonode{
				DRRouterID:  netip.MustParseAddr("192.0.2.1"),
				DRInterface: netip.MustParseAddr("10.0.0.1"),
			},
		},
		{
			name:       "OSPF Router-ID with an ISIS length",
			typ:        TLVIgpRouterID,
			value:      []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
			protocolID: ProtocolOspfV2,
			err:        ErrInvalidTLVLength,
		},
		{
			name:       "Static route with an ISIS Router-ID",
			typ:        TLVIgpRouterID,
			value:      []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
			protocolID: ProtocolStatic,
			expected:   IsisNonPseudonode{SystemID: [6]byte{0, 0, 0, 0, 0, 1}},
		},
		{
			name:     "Multi-Topology ID",
			typ:      TLVMultiTopologyID,
			value:    []byte{0x00, 0x02},
			expected: MultiTopologyID{Value: []byte{0x00, 0x02}},
		},
		{
			name:  "Multi-Topology ID with an odd length",
			typ:   TLVMultiTopologyID,
			value: []byte{0x00, 0x02, 0x00},
			err:   ErrInvalidTLVLength,
		},
		{
			name:     "Link Local/Remote Identifiers",
			typ:      TLVLinkLocalRemoteIdentifiers,
			value:    AppendByteSlices(u32(1), u32(2)),
			expected: LinkLocalRemoteIdentifiers{LocalID: 1, RemoteID: 2},
		},
		{
			name:     "IPv4 interface address",
			typ:      TLVIPv4InterfaceAddress,
			value:    ip("10.0.0.1"),
			expected: IPv4InterfaceAddress{Addr: netip.MustParseAddr("10.0.0.1")},
		},
		{
			name:     "IPv4 neighbor address",
			typ:      TLVIPv4NeighborAddress,
			value:    ip("10.0.0.2"),
			expected: IPv4NeighborAddress{Addr: netip.MustParseAddr("10.0.0.2")},
		},
		{
			name:     "IPv6 interface address",
			typ:      TLVIPv6InterfaceAddress,
			value:    ip("2001:db8::1"),
			expected: IPv6InterfaceAddress{Addr: netip.MustParseAddr("2001:db8::1")},
		},
		{
			name:     "IPv6 neighbor address",
			typ:      TLVIPv6NeighborAddress,
			value:    ip("2001:db8::2"),
			expected: IPv6NeighborAddress{Addr: netip.MustParseAddr("2001:db8::2")},
		},
		{
			name:  "IPv6 neighbor address with an IPv4 length",
			typ:   TLVIPv6NeighborAddress,
			value: ip("10.0.0.2"),
			err:   ErrInvalidTLVLength,
		},
		{
			name:     "OSPF Route Type",
			typ:      TLVOspfRouteType,
			value:    []byte{0x02},
			expected: OspfRouteType{RouteType: OspfRouteInterArea},
		},
		{
			name:     "IPv4 reachability",
			typ:      TLVIPReachabilityInformation,
			value:    []byte{24, 192, 0, 2},
			expected: IPReachabilityInformation{Prefix: netip.MustParsePrefix("192.0.2.0/24")},
		},
		{
			name:     "IPv4 host reachability",
			typ:      TLVIPReachabilityInformation,
			value:    []byte{32, 10, 255, 0, 1},
			expected: IPReachabilityInformation{Prefix: netip.MustParsePrefix("10.255.0.1/32")},
		},
		{
			name:     "IPv6 reachability",
			typ:      TLVIPReachabilityInformation,
			value:    []byte{32, 0x20, 0x01, 0x0d, 0xb8},
			ipv6:     true,
			expected: IPReachabilityInformation{Prefix: netip.MustParsePrefix("2001:db8::/32")},
		},
		{
			name:  "IPv4 reachability longer than 32 bits",
			typ:   TLVIPReachabilityInformation,
			value: []byte{33, 10, 0, 0, 0, 0},
			err:   ErrInvalidTLVLength,
		},
		{
			name:  "reachability whose prefix bytes disagree with its length",
			typ:   TLVIPReachabilityInformation,
			value: []byte{24, 10, 0},
			err:   ErrInvalidTLVLength,
		},
		{
			name:     "Unknown type is skipped",
			typ:      TLVType(1100),
			value:    []byte{0xde, 0xad},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protocolID := tt.protocolID
			if protocolID == 0 {
				protocolID = ProtocolIsisL2
			}
			actual, err := decodeSubTLV(tt.typ, tt.value, protocolID, tt.ipv6)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "expected %v, got %v", tt.err, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestReadTLV_Truncated(t *testing.T) {
	input := AppendByteSlices(Uint16ToByteSlice(TLVAutonomousSystem), Uint16ToByteSlice(uint16(8)), []byte{0x00, 0x01})
	_, _, err := readTLV(NewCursor(input))

	var decodeErr *DecodeError
	if assert.True(t, errors.As(err, &decodeErr)) {
		assert.Equal(t, KindTruncatedTLV, decodeErr.Kind)
		assert.Equal(t, input, decodeErr.Data, "header and remaining bytes must be echoed")
	}
}

func TestMultiTopologyID_IDs(t *testing.T) {
	tlv := MultiTopologyID{Value: []byte{0x80, 0x02, 0x00, 0x03}}
	assert.Equal(t, []uint16{2, 3}, tlv.IDs())
}

func TestSubTLV_String(t *testing.T) {
	tests := []struct {
		name     string
		tlv      SubTLV
		expected string
	}{
		{"AS", AutonomousSystem{ASN: 65000}, "AS: 65000"},
		{"ISIS non-pseudonode", IsisNonPseudonode{SystemID: [6]byte{0x19, 0x21, 0x68, 0x00, 0x10, 0x01}}, "IGP Router-ID: 1921.6800.1001"},
		{"ISIS pseudonode", IsisPseudonode{SystemID: [6]byte{0x19, 0x21, 0x68, 0x00, 0x10, 0x01}, PsnID: 2}, "IGP Router-ID: 1921.6800.1001.02"},
		{"prefix", IPReachabilityInformation{Prefix: netip.MustParsePrefix("192.0.2.0/24")}, "Prefix: 192.0.2.0/24"},
		{"route type", OspfRouteType{RouteType: OspfRouteExternal2}, "OSPF Route Type: External 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.tlv.String())
		})
	}
}

func TestSubTLV_MarshalLogObject(t *testing.T) {
	tests := []struct {
		name  string
		tlv   SubTLV
		key   string
		value any
	}{
		{"AS", AutonomousSystem{ASN: 65000}, "asn", uint32(65000)},
		{"area", AreaID{Area: 3}, "areaId", uint32(3)},
		{"OSPF router", OspfNonPseudonode{RouterID: netip.MustParseAddr("192.0.2.1")}, "ospfRouterId", "192.0.2.1"},
		{"neighbor", IPv4NeighborAddress{Addr: netip.MustParseAddr("10.0.0.2")}, "ipv4NeighborAddress", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := zapcore.NewMapObjectEncoder()
			err := tt.tlv.MarshalLogObject(enc)

			assert.NoError(t, err, "expected no error while marshaling log object")
			assert.Equal(t, tt.value, enc.Fields[tt.key])
		})
	}
}
