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
	"github.com/stretchr/testify/require"
)

func TestDecodeNodeDescriptors(t *testing.T) {
	isisID := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01}

	tests := []struct {
		name     string
		input    []byte
		role     NodeRole
		expected []SubTLV
		err      error
	}{
		{
			name: "Local descriptors in encounter order",
			input: tlvBytes(TLVLocalNodeDescriptors,
				asTLV(65000),
				tlvBytes(TLVBgpLsIdentifier, u32(1)),
				tlvBytes(TLVIgpRouterID, isisID),
			),
			role: RoleLocal,
			expected: []SubTLV{
				AutonomousSystem{ASN: 65000},
				BgpLsIdentifier{ID: 1},
				IsisNonPseudonode{SystemID: [6]byte(isisID)},
			},
		},
		{
			name:     "Remote descriptors",
			input:    tlvBytes(TLVRemoteNodeDescriptors, asTLV(65001)),
			role:     RoleRemote,
			expected: []SubTLV{AutonomousSystem{ASN: 65001}},
		},
		{
			name:     "Empty envelope",
			input:    tlvBytes(TLVLocalNodeDescriptors),
			role:     RoleLocal,
			expected: []SubTLV{},
		},
		{
			name:     "Unknown and out-of-context sub-TLVs are skipped",
			input:    tlvBytes(TLVLocalNodeDescriptors, tlvBytes(TLVType(600), []byte{1, 2, 3}), tlvBytes(TLVIPv4InterfaceAddress, ip("10.0.0.1")), asTLV(1)),
			role:     RoleLocal,
			expected: []SubTLV{AutonomousSystem{ASN: 1}},
		},
		{
			name:  "Remote envelope where Local is expected",
			input: tlvBytes(TLVRemoteNodeDescriptors, asTLV(65001)),
			role:  RoleLocal,
			err:   ErrUnexpectedDescriptorType,
		},
		{
			name:  "Envelope longer than the buffer",
			input: AppendByteSlices(Uint16ToByteSlice(TLVLocalNodeDescriptors), Uint16ToByteSlice(uint16(64)), asTLV(1)),
			role:  RoleLocal,
			err:   ErrTruncatedTLV,
		},
		{
			name:  "Sub-TLV longer than the envelope",
			input: tlvBytes(TLVLocalNodeDescriptors, Uint16ToByteSlice(TLVAutonomousSystem), Uint16ToByteSlice(uint16(4)), []byte{0, 0}),
			role:  RoleLocal,
			err:   ErrTruncatedTLV,
		},
		{
			name: "Two Multi-Topology IDs",
			input: tlvBytes(TLVLocalNodeDescriptors,
				tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x02}),
				asTLV(1),
				tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x03}),
			),
			role: RoleLocal,
			err:  ErrDuplicateMultiTopologyID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := decodeNodeDescriptors(NewCursor(tt.input), tt.role, ProtocolIsisL2)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "expected %v, got %v", tt.err, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, actual.Role)
			assert.Equal(t, tt.expected, actual.SubTLVs)
		})
	}
}

func TestDecodeNodeDescriptors_ErrorData(t *testing.T) {
	second := tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x03})
	input := tlvBytes(TLVLocalNodeDescriptors, tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x02}), second)

	_, err := decodeNodeDescriptors(NewCursor(input), RoleLocal, ProtocolIsisL2)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, second, decodeErr.Data, "the offending Multi-Topology ID TLV must be echoed")
}

func TestDecodeDescriptorList(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		kind     descriptorKind
		expected []SubTLV
		err      error
	}{
		{
			name: "Link descriptors",
			input: AppendByteSlices(
				tlvBytes(TLVLinkLocalRemoteIdentifiers, u32(10), u32(20)),
				tlvBytes(TLVIPv4InterfaceAddress, ip("10.0.0.1")),
				tlvBytes(TLVIPv4NeighborAddress, ip("10.0.0.2")),
				tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x02}),
			),
			kind: linkDescriptor,
			expected: []SubTLV{
				LinkLocalRemoteIdentifiers{LocalID: 10, RemoteID: 20},
				IPv4InterfaceAddress{Addr: netip.MustParseAddr("10.0.0.1")},
				IPv4NeighborAddress{Addr: netip.MustParseAddr("10.0.0.2")},
				MultiTopologyID{Value: []byte{0x00, 0x02}},
			},
		},
		{
			name:     "Empty link descriptor span",
			input:    []byte{},
			kind:     linkDescriptor,
			expected: []SubTLV{},
		},
		{
			name: "Link descriptors with two Multi-Topology IDs",
			input: AppendByteSlices(
				tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x02}),
				tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x02}),
			),
			kind: linkDescriptor,
			err:  ErrDuplicateMultiTopologyID,
		},
		{
			name: "Prefix descriptors",
			input: AppendByteSlices(
				tlvBytes(TLVOspfRouteType, []byte{0x01}),
				tlvBytes(TLVIPReachabilityInformation, []byte{24, 192, 0, 2}),
			),
			kind: prefixDescriptor,
			expected: []SubTLV{
				OspfRouteType{RouteType: OspfRouteIntraArea},
				IPReachabilityInformation{Prefix: netip.MustParsePrefix("192.0.2.0/24")},
			},
		},
		{
			name:  "Prefix descriptors without reachability",
			input: tlvBytes(TLVOspfRouteType, []byte{0x01}),
			kind:  prefixDescriptor,
			err:   ErrMissingReachabilityInfo,
		},
		{
			name:  "Empty prefix descriptor span",
			input: []byte{},
			kind:  prefixDescriptor,
			err:   ErrMissingReachabilityInfo,
		},
		{
			name: "Prefix descriptors with two Multi-Topology IDs",
			input: AppendByteSlices(
				tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x02}),
				tlvBytes(TLVIPReachabilityInformation, []byte{24, 192, 0, 2}),
				tlvBytes(TLVMultiTopologyID, []byte{0x00, 0x04}),
			),
			kind: prefixDescriptor,
			err:  ErrDuplicateMultiTopologyID,
		},
		{
			name: "Prefix descriptors ignore link sub-TLVs",
			input: AppendByteSlices(
				tlvBytes(TLVIPv4InterfaceAddress, ip("10.0.0.1")),
				tlvBytes(TLVIPReachabilityInformation, []byte{8, 10}),
			),
			kind:     prefixDescriptor,
			expected: []SubTLV{IPReachabilityInformation{Prefix: netip.MustParsePrefix("10.0.0.0/8")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := decodeDescriptorList(NewCursor(tt.input), tt.kind, ProtocolOspfV2, false)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "expected %v, got %v", tt.err, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestNodeDescriptors_Accessors(t *testing.T) {
	nd := NodeDescriptors{
		SubTLVs: []SubTLV{
			AreaID{Area: 0},
			AutonomousSystem{ASN: 65000},
			OspfNonPseudonode{RouterID: netip.MustParseAddr("192.0.2.1")},
		},
	}
	assert.Equal(t, uint32(65000), nd.ASN())
	assert.Equal(t, OspfNonPseudonode{RouterID: netip.MustParseAddr("192.0.2.1")}, nd.RouterID())
	assert.Equal(t, "Local {Area: 0, AS: 65000, IGP Router-ID: 192.0.2.1}", nd.String())

	assert.Nil(t, NodeDescriptors{}.RouterID())
	assert.Zero(t, NodeDescriptors{}.ASN())
}
