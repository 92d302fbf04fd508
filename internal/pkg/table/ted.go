// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package table

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"net/netip"
	"slices"

	"github.com/nttcom/bgpls/pkg/packet/bgpls"
)

type LsTed struct {
	ID    int
	Nodes map[uint32]map[string]*LsNode // { ASN1: {"NodeKey1": node1, "NodeKey2": node2}, ASN2: {"NodeKey3": node3}}
}

func NewLsTed() *LsTed {
	return &LsTed{
		Nodes: make(map[uint32]map[string]*LsNode),
	}
}

func (ted *LsTed) Update(tedElems []TedElem) {
	for _, tedElem := range tedElems {
		tedElem.UpdateTed(ted)
	}
}

// Node looks a node up by its descriptor key.
func (ted *LsTed) Node(asn uint32, key string) (*LsNode, bool) {
	node, ok := ted.Nodes[asn][key]
	return node, ok
}

// NodeByRouterID returns the first node of asn whose IGP Router-ID matches.
func (ted *LsTed) NodeByRouterID(asn uint32, routerID string) (*LsNode, bool) {
	for _, key := range slices.Sorted(maps.Keys(ted.Nodes[asn])) {
		if node := ted.Nodes[asn][key]; node.RouterID == routerID {
			return node, true
		}
	}
	return nil, false
}

// Counts returns the number of nodes, links and prefixes held by the TED.
func (ted *LsTed) Counts() (nodes, links, prefixes int) {
	for _, asNodes := range ted.Nodes {
		for _, node := range asNodes {
			nodes++
			links += len(node.Links)
			prefixes += len(node.Prefixes)
		}
	}
	return
}

// attach returns the TED's node for nd, creating an empty one when absent.
func (ted *LsTed) attach(nd bgpls.NodeDescriptors) *LsNode {
	asn, key := nd.ASN(), nd.Key()
	if _, ok := ted.Nodes[asn]; !ok {
		ted.Nodes[asn] = make(map[string]*LsNode)
	}
	node, ok := ted.Nodes[asn][key]
	if !ok {
		node = NewLsNode(nd)
		ted.Nodes[asn][key] = node
	}
	return node
}

func (ted *LsTed) Print(w io.Writer) {
	for _, asn := range slices.Sorted(maps.Keys(ted.Nodes)) {
		nodes := ted.Nodes[asn]
		nodeCnt := 1
		for _, key := range slices.Sorted(maps.Keys(nodes)) {
			node := nodes[key]
			fmt.Fprintf(w, "Node: %d\n", nodeCnt)
			fmt.Fprintf(w, "  %s\n", node.Descriptors)
			fmt.Fprintf(w, "  ASN: %d\n", node.Asn)
			fmt.Fprintf(w, "  Router-ID: %s\n", node.RouterID)
			fmt.Fprintf(w, "  Hostname: %s\n", node.Hostname)
			fmt.Fprintf(w, "  ISIS Area ID: %s\n", node.IsisAreaID)
			fmt.Fprintf(w, "  SRGB: %d - %d\n", node.SrgbBegin, node.SrgbEnd)
			fmt.Fprintf(w, "  Prefixes:\n")
			for _, prefix := range node.Prefixes {
				fmt.Fprintf(w, "    %s\n", prefix.Prefix.String())
				if prefix.SidIndex != 0 {
					fmt.Fprintf(w, "      index: %d\n", prefix.SidIndex)
				}
			}

			fmt.Fprintf(w, "  Links:\n")
			for _, link := range node.Links {
				fmt.Fprintf(w, "    Local: %s Remote: %s\n", link.LocalIP.String(), link.RemoteIP.String())
				fmt.Fprintf(w, "      RemoteNode: %s\n", link.RemoteNode.RouterID)
				fmt.Fprintf(w, "      Metrics:\n")
				for _, metric := range link.Metrics {
					fmt.Fprintf(w, "        %s: %d\n", metric.Type.String(), metric.Value)
				}
				fmt.Fprintf(w, "      Adj-SID: %d\n", link.AdjSid)
			}
			nodeCnt++
			fmt.Fprintf(w, "\n")
		}
	}
}

type TedElem interface {
	UpdateTed(ted *LsTed)
}

// NewTedElem wraps a decoded BGP-LS NLRI into the TED element it describes.
func NewTedElem(nlri bgpls.Nlri) (TedElem, error) {
	switch nlri := nlri.(type) {
	case *bgpls.NodeNlri:
		return NewLsNode(nlri.LocalNode), nil
	case *bgpls.LinkNlri:
		return NewLsLink(nlri.Link), nil
	case *bgpls.PrefixNlri:
		return NewLsPrefix(nlri.Prefix)
	default:
		return nil, fmt.Errorf("unsupported NLRI %T", nlri)
	}
}

type LsNode struct {
	Asn         uint32                // primary key, in MP_REACH_NLRI Attr
	Key         string                // primary key, in MP_REACH_NLRI Attr
	RouterID    string                // in MP_REACH_NLRI Attr
	Descriptors bgpls.NodeDescriptors // in MP_REACH_NLRI Attr
	IsisAreaID  string                // in BGP-LS Attr
	Hostname    string                // in BGP-LS Attr
	SrgbBegin   uint32                // in BGP-LS Attr
	SrgbEnd     uint32                // in BGP-LS Attr
	Links       []*LsLink
	Prefixes    []*LsPrefix
}

func NewLsNode(nd bgpls.NodeDescriptors) *LsNode {
	node := &LsNode{
		Asn:         nd.ASN(),
		Key:         nd.Key(),
		Descriptors: nd,
	}
	if id := nd.RouterID(); id != nil {
		node.RouterID = id.ID()
	}
	return node
}

// NodeSID returns the absolute SR-MPLS Node-SID label of the node.
func (n *LsNode) NodeSID() (uint32, error) {
	for _, prefix := range n.Prefixes {
		if prefix.SidIndex != 0 {
			return n.SrgbBegin + prefix.SidIndex, nil
		}
	}
	return 0, errors.New("node doesn't have a Node SID")
}

func (n *LsNode) LoopbackAddr() (netip.Addr, error) {
	for _, prefix := range n.Prefixes {
		if prefix.SidIndex != 0 {
			return prefix.Prefix.Addr(), nil
		}
	}

	return netip.Addr{}, errors.New("node doesn't have a loopback address")
}

func (n *LsNode) UpdateTed(ted *LsTed) {
	nodes, asn := ted.Nodes, n.Asn

	if _, ok := nodes[asn]; !ok {
		nodes[asn] = make(map[string]*LsNode)
	}

	if node, ok := nodes[asn][n.Key]; ok {
		node.Hostname = n.Hostname
		node.IsisAreaID = n.IsisAreaID
		node.SrgbBegin = n.SrgbBegin
		node.SrgbEnd = n.SrgbEnd
	} else {
		nodes[asn][n.Key] = n
	}
}

func (n *LsNode) AddLink(link *LsLink) {
	for i, l := range n.Links {
		if l.Identifier.Equal(link.Identifier) {
			n.Links[i] = link
			return
		}
	}
	n.Links = append(n.Links, link)
}

type LsLink struct {
	LocalNode  *LsNode              // primary key, in MP_REACH_NLRI Attr
	RemoteNode *LsNode              // primary key, in MP_REACH_NLRI Attr
	Identifier bgpls.LinkIdentifier // primary key, in MP_REACH_NLRI Attr
	LocalIP    netip.Addr           // in MP_REACH_NLRI Attr
	RemoteIP   netip.Addr           // in MP_REACH_NLRI Attr
	Metrics    []*Metric            // in BGP-LS Attr
	AdjSid     uint32               // in BGP-LS Attr
}

func NewLsLink(id bgpls.LinkIdentifier) *LsLink {
	link := &LsLink{
		LocalNode:  NewLsNode(id.Local),
		RemoteNode: NewLsNode(id.Remote),
		Identifier: id,
	}
	for _, tlv := range id.LinkDescriptors {
		switch tlv := tlv.(type) {
		case bgpls.IPv4InterfaceAddress:
			link.LocalIP = tlv.Addr
		case bgpls.IPv4NeighborAddress:
			link.RemoteIP = tlv.Addr
		case bgpls.IPv6InterfaceAddress:
			if !link.LocalIP.IsValid() {
				link.LocalIP = tlv.Addr
			}
		case bgpls.IPv6NeighborAddress:
			if !link.RemoteIP.IsValid() {
				link.RemoteIP = tlv.Addr
			}
		}
	}
	return link
}

func (l *LsLink) Metric(metricType MetricType) (uint32, error) {
	for _, metric := range l.Metrics {
		if metric.Type == metricType {
			return metric.Value, nil
		}
	}

	return 0, fmt.Errorf("metric %s not defined", metricType)
}

func (l *LsLink) UpdateTed(ted *LsTed) {
	l.LocalNode = ted.attach(l.Identifier.Local)
	l.RemoteNode = ted.attach(l.Identifier.Remote)
	l.LocalNode.AddLink(l)
}

type LsPrefix struct {
	LocalNode  *LsNode                // primary key, in MP_REACH_NLRI Attr
	Identifier bgpls.PrefixIdentifier // primary key, in MP_REACH_NLRI Attr
	Prefix     netip.Prefix           // in MP_REACH_NLRI Attr
	SidIndex   uint32                 // in BGP-LS Attr (only for Lo Address Prefix)
}

func NewLsPrefix(id bgpls.PrefixIdentifier) (*LsPrefix, error) {
	prefixes := id.Prefixes()
	if len(prefixes) != 1 {
		return nil, fmt.Errorf("invalid prefix descriptors: expected 1 IP Reachability Information, got %d", len(prefixes))
	}
	return &LsPrefix{
		LocalNode:  NewLsNode(id.Local),
		Identifier: id,
		Prefix:     prefixes[0].Prefix,
	}, nil
}

func (lp *LsPrefix) UpdateTed(ted *LsTed) {
	localNode := ted.attach(lp.Identifier.Local)
	lp.LocalNode = localNode

	for i, pref := range localNode.Prefixes {
		if pref.Identifier.Equal(lp.Identifier) {
			localNode.Prefixes[i] = lp
			return
		}
	}

	localNode.Prefixes = append(localNode.Prefixes, lp)
}

type Metric struct {
	Type  MetricType
	Value uint32
}

func NewMetric(metricType MetricType, value uint32) *Metric {
	return &Metric{
		Type:  metricType,
		Value: value,
	}
}

type MetricType int

const (
	IGP_METRIC MetricType = iota
	TE_METRIC
	DELAY_METRIC
	HOPCOUNT_METRIC
)

func (m MetricType) String() string {
	switch m {
	case IGP_METRIC:
		return "IGP"
	case TE_METRIC:
		return "TE"
	case DELAY_METRIC:
		return "DELAY"
	case HOPCOUNT_METRIC:
		return "HOPCOUNT"
	default:
		return "Unknown"
	}
}

// ParseMetricType maps a CLI or config metric name to a MetricType.
func ParseMetricType(s string) (MetricType, error) {
	switch s {
	case "igp", "IGP":
		return IGP_METRIC, nil
	case "te", "TE":
		return TE_METRIC, nil
	case "delay", "DELAY":
		return DELAY_METRIC, nil
	case "hopcount", "HOPCOUNT":
		return HOPCOUNT_METRIC, nil
	default:
		return 0, fmt.Errorf("unknown metric type %q", s)
	}
}
