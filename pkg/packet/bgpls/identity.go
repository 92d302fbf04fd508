// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package bgpls

import (
	"bytes"
	"slices"
	"strings"
)

// Equal reports whether both sets hold the same multiset of sub-TLVs,
// regardless of encounter order. Pseudonode and non-pseudonode Router-IDs
// are distinct here even though Compare ties them.
func (nd NodeDescriptors) Equal(other NodeDescriptors) bool {
	return equalSubTLVs(nd.SubTLVs, other.SubTLVs)
}

// Compare orders descriptor sets for topology comparison. A set with more
// sub-TLVs compares as less. Equal-sized sets are compared per sub-TLV in
// the receiver's encounter order, against the same type on the other side.
// An IGP Router-ID pair that differs only in pseudonode encoding ties.
func (nd NodeDescriptors) Compare(other NodeDescriptors) int {
	return compareSubTLVLists(nd.SubTLVs, other.SubTLVs)
}

// Key returns a string that is identical for Equal descriptor sets.
func (nd NodeDescriptors) Key() string {
	sorted := sortedSubTLVs(nd.SubTLVs)
	s := make([]string, 0, len(sorted))
	for _, tlv := range sorted {
		s = append(s, tlv.String())
	}
	return strings.Join(s, ",")
}

func (l LinkIdentifier) Equal(other LinkIdentifier) bool {
	return l.Local.Equal(other.Local) &&
		l.Remote.Equal(other.Remote) &&
		equalSubTLVs(l.LinkDescriptors, other.LinkDescriptors)
}

func (l LinkIdentifier) Compare(other LinkIdentifier) int {
	if c := l.Local.Compare(other.Local); c != 0 {
		return c
	}
	if c := l.Remote.Compare(other.Remote); c != 0 {
		return c
	}
	return compareSubTLVLists(l.LinkDescriptors, other.LinkDescriptors)
}

func (p PrefixIdentifier) Equal(other PrefixIdentifier) bool {
	return p.Local.Equal(other.Local) &&
		equalSubTLVs(p.PrefixDescriptors, other.PrefixDescriptors)
}

func (p PrefixIdentifier) Compare(other PrefixIdentifier) int {
	if c := p.Local.Compare(other.Local); c != 0 {
		return c
	}
	return compareSubTLVLists(p.PrefixDescriptors, other.PrefixDescriptors)
}

func (h NlriHeader) Equal(other NlriHeader) bool {
	if h.ProtocolID != other.ProtocolID || h.Identifier != other.Identifier || h.IsVpn != other.IsVpn {
		return false
	}
	return equalRD(h, other)
}

func equalRD(a, b NlriHeader) bool {
	if a.RD == nil || b.RD == nil {
		return a.RD == nil && b.RD == nil
	}
	ra, errA := a.RD.Serialize()
	rb, errB := b.RD.Serialize()
	if errA != nil || errB != nil {
		return a.RD.String() == b.RD.String()
	}
	return bytes.Equal(ra, rb)
}

func (n *NodeNlri) Equal(other Nlri) bool {
	o, ok := other.(*NodeNlri)
	return ok && n.NlriHeader.Equal(o.NlriHeader) && n.LocalNode.Equal(o.LocalNode)
}

func (n *LinkNlri) Equal(other Nlri) bool {
	o, ok := other.(*LinkNlri)
	return ok && n.NlriHeader.Equal(o.NlriHeader) && n.Link.Equal(o.Link)
}

func (n *PrefixNlri) Equal(other Nlri) bool {
	o, ok := other.(*PrefixNlri)
	return ok && n.IPv6 == o.IPv6 && n.NlriHeader.Equal(o.NlriHeader) && n.Prefix.Equal(o.Prefix)
}

func sortedSubTLVs(tlvs []SubTLV) []SubTLV {
	sorted := slices.Clone(tlvs)
	slices.SortFunc(sorted, compareSubTLV)
	return sorted
}

// equalSubTLVs is multiset equality: both lists sorted by the canonical
// sub-TLV order must match element-wise.
func equalSubTLVs(a, b []SubTLV) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedSubTLVs(a), sortedSubTLVs(b)
	for i := range sa {
		if compareSubTLV(sa[i], sb[i]) != 0 {
			return false
		}
	}
	return true
}

func compareSubTLVLists(a, b []SubTLV) int {
	if len(a) != len(b) {
		if len(a) > len(b) {
			return -1
		}
		return 1
	}

	for _, tlv := range a {
		found := false
		result := 0
		for _, other := range b {
			if other.Type() != tlv.Type() {
				continue
			}
			if isPseudonodePair(tlv, other) {
				found = true
				break
			}
			c := compareSubTLV(tlv, other)
			if c == 0 {
				found = true
				break
			}
			if result == 0 {
				result = c
			}
		}
		if found {
			continue
		}
		if result != 0 {
			return result
		}
		// no counterpart of this type: the other side is greater
		return -1
	}
	return 0
}

// isPseudonodePair reports whether a and b are IGP Router-IDs of the same IGP
// where one is the pseudonode form and the other is not.
func isPseudonodePair(a, b SubTLV) bool {
	ra, ok := a.(IgpRouterID)
	if !ok {
		return false
	}
	rb, ok := b.(IgpRouterID)
	if !ok {
		return false
	}
	return ra.IsOspf() == rb.IsOspf() && ra.IsPseudonode() != rb.IsPseudonode()
}
