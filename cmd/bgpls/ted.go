// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nttcom/bgpls/internal/pkg/gobgp"
	"github.com/nttcom/bgpls/internal/pkg/table"
)

func newTedCmd() *cobra.Command {

	tedCmd := &cobra.Command{
		Use:   "ted",
		Short: "Show the TED built from the BGP-LS table of gobgpd",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			ted, err := getTed(cmd)
			if err != nil {
				return err
			}
			return showTed(cmd.OutOrStdout(), ted, jsonFlag)
		},
	}

	return tedCmd
}

func getTed(cmd *cobra.Command) (*table.LsTed, error) {
	tedElems, err := gobgp.GetBgplsNlris(cmd.Context(), cmd.Flag("host").Value.String(), cmd.Flag("port").Value.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get BGP-LS NLRI from gobgpd: %w", err)
	}
	ted := table.NewLsTed()
	ted.Update(tedElems)
	return ted, nil
}

func showTed(w io.Writer, ted *table.LsTed, jsonFlag bool) error {
	if !jsonFlag {
		//output user-friendly format
		ted.Print(w)
		return nil
	}

	// output json format
	nodes := []map[string]any{}
	for _, asn := range slices.Sorted(maps.Keys(ted.Nodes)) {
		for _, key := range slices.Sorted(maps.Keys(ted.Nodes[asn])) {
			node := ted.Nodes[asn][key]
			tmpNode := map[string]any{
				"asn":        node.Asn,
				"routerId":   node.RouterID,
				"descriptor": node.Descriptors.String(),
				"isisAreaId": node.IsisAreaID,
				"hostname":   node.Hostname,
				"srgbBegin":  node.SrgbBegin,
				"srgbEnd":    node.SrgbEnd,
			}
			links := []map[string]any{}
			for _, link := range node.Links {
				metrics := []map[string]any{}
				for _, metric := range link.Metrics {
					metrics = append(metrics, map[string]any{
						"type":  metric.Type.String(),
						"value": metric.Value,
					})
				}
				links = append(links, map[string]any{
					"localIP":    link.LocalIP.String(),
					"remoteIP":   link.RemoteIP.String(),
					"remoteNode": link.RemoteNode.RouterID,
					"metrics":    metrics,
					"adjSid":     link.AdjSid,
				})
			}
			tmpNode["links"] = links
			prefixes := []map[string]any{}
			for _, prefix := range node.Prefixes {
				tmpPrefix := map[string]any{
					"prefix": prefix.Prefix.String(),
				}
				if prefix.SidIndex != 0 {
					tmpPrefix["sidIndex"] = prefix.SidIndex
				}
				prefixes = append(prefixes, tmpPrefix)
			}
			tmpNode["prefixes"] = prefixes
			nodes = append(nodes, tmpNode)
		}
	}

	outputJSON, err := json.Marshal(map[string]any{"ted": nodes})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", outputJSON)
	return nil
}
