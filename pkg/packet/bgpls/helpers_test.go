// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package bgpls

import (
	"encoding/binary"
	"net/netip"
)

func tlvBytes(typ TLVType, value ...[]byte) []byte {
	v := AppendByteSlices(value...)
	return AppendByteSlices(Uint16ToByteSlice(typ), Uint16ToByteSlice(uint16(len(v))), v)
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func ip(s string) []byte {
	return netip.MustParseAddr(s).AsSlice()
}

func asTLV(asn uint32) []byte    { return tlvBytes(TLVAutonomousSystem, u32(asn)) }
func areaTLV(area uint32) []byte { return tlvBytes(TLVOspfAreaID, u32(area)) }

// nlriBody builds Protocol-ID, Identifier and the given TLVs.
func nlriBody(protocolID ProtocolID, identifier uint64, tlvs ...[]byte) []byte {
	return AppendByteSlices([]byte{uint8(protocolID)}, u64(identifier), AppendByteSlices(tlvs...))
}

func framedNlri(typ NlriType, body []byte) []byte {
	return AppendByteSlices(Uint16ToByteSlice(uint16(typ)), Uint16ToByteSlice(uint16(len(body))), body)
}

func linkExample(neighbor string) []byte {
	return nlriBody(ProtocolOspfV2, 0,
		tlvBytes(TLVLocalNodeDescriptors, asTLV(65000), areaTLV(0)),
		tlvBytes(TLVRemoteNodeDescriptors, asTLV(65001), areaTLV(0)),
		tlvBytes(TLVIPv4InterfaceAddress, ip("10.0.0.1")),
		tlvBytes(TLVIPv4NeighborAddress, ip(neighbor)),
	)
}
