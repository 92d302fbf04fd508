// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package cspf

import (
	"errors"
	"fmt"

	"github.com/nttcom/bgpls/internal/pkg/table"
)

type node struct {
	key        string
	calculated bool
	cost       uint32
	prevNode   string
	lsNode     *table.LsNode
}

func newNode(lsNode *table.LsNode, cost uint32) *node {
	return &node{
		key:    lsNode.Key,
		cost:   cost,
		lsNode: lsNode,
	}
}

// Spf returns the hops of the shortest path from src to dst, both given as
// IGP Router-IDs within as, including the source and destination nodes.
func Spf(srcRouterID string, dstRouterID string, as uint32, metric table.MetricType, ted *table.LsTed) ([]*table.LsNode, error) {
	src, ok := ted.NodeByRouterID(as, srcRouterID)
	if !ok {
		return nil, fmt.Errorf("source node %s not found in AS %d", srcRouterID, as)
	}
	dst, ok := ted.NodeByRouterID(as, dstRouterID)
	if !ok {
		return nil, fmt.Errorf("destination node %s not found in AS %d", dstRouterID, as)
	}
	// TODO: prune links according to constraints (affinity, bandwidth) before the calculation
	return spf(src, dst, metric)
}

func spf(src *table.LsNode, dst *table.LsNode, metricType table.MetricType) ([]*table.LsNode, error) {
	calculatingNodes := map[string]*node{}
	calculatingNodes[src.Key] = newNode(src, 0)

	for {
		// Selection of nodes for calculation
		calcNodeKey, err := nextNode(calculatingNodes)
		if err != nil {
			return nil, fmt.Errorf("%s is unreachable from %s: %w", dst.RouterID, src.RouterID, err)
		}

		if calcNodeKey == dst.Key {
			// End of calculation of shortest path
			break
		}

		calcNode := calculatingNodes[calcNodeKey]
		for _, link := range calcNode.lsNode.Links {
			metric, err := linkMetric(link, metricType)
			if err != nil {
				return nil, err
			}

			remoteKey := link.RemoteNode.Key
			if remote, exist := calculatingNodes[remoteKey]; exist {
				if !remote.calculated && calcNode.cost+metric < remote.cost {
					remote.cost = calcNode.cost + metric
					remote.prevNode = calcNodeKey
				}
			} else {
				calculatingNodes[remoteKey] = newNode(link.RemoteNode, calcNode.cost+metric)
				calculatingNodes[remoteKey].prevNode = calcNodeKey
			}
		}
	}

	// Generate the hop list from calculation results
	path := []*table.LsNode{}
	for pathNode := calculatingNodes[dst.Key]; ; pathNode = calculatingNodes[pathNode.prevNode] {
		path = append([]*table.LsNode{pathNode.lsNode}, path...)
		if pathNode.key == src.Key {
			break
		}
	}
	return path, nil
}

func linkMetric(link *table.LsLink, metricType table.MetricType) (uint32, error) {
	if metricType == table.HOPCOUNT_METRIC {
		return 1, nil
	}
	return link.Metric(metricType)
}

func nextNode(calculatingNodes map[string]*node) (nextNodeKey string, err error) {
	for nodeKey, node := range calculatingNodes {
		if node.calculated {
			continue
		}
		if nextNodeKey == "" {
			nextNodeKey = nodeKey
		}
		if calculatingNodes[nextNodeKey].cost > node.cost ||
			(calculatingNodes[nextNodeKey].cost == node.cost && nodeKey < nextNodeKey) {
			nextNodeKey = nodeKey
		}
	}
	if nextNodeKey == "" {
		return nextNodeKey, errors.New("next node not found")
	}
	// Set the node with the smallest arrival cost as calculated
	calculatingNodes[nextNodeKey].calculated = true
	return
}
