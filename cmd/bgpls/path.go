// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nttcom/bgpls/internal/pkg/cspf"
	"github.com/nttcom/bgpls/internal/pkg/table"
)

func newPathCmd() *cobra.Command {

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Compute the shortest path between two IGP Router-IDs over the TED",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			src, err := cmd.Flags().GetString("src")
			if err != nil {
				return err
			}
			dst, err := cmd.Flags().GetString("dst")
			if err != nil {
				return err
			}
			if src == "" || dst == "" {
				return errors.New("\"--src\" and \"--dst\" are mandatory")
			}
			asn, err := cmd.Flags().GetUint32("asn")
			if err != nil {
				return err
			}
			metricName, err := cmd.Flags().GetString("metric")
			if err != nil {
				return err
			}
			metric, err := table.ParseMetricType(metricName)
			if err != nil {
				return err
			}

			ted, err := getTed(cmd)
			if err != nil {
				return err
			}
			hops, err := cspf.Spf(src, dst, asn, metric, ted)
			if err != nil {
				return err
			}
			return showPath(cmd.OutOrStdout(), hops, jsonFlag)
		},
	}

	pathCmd.Flags().String("src", "", "[mandatory] source IGP Router-ID")
	pathCmd.Flags().String("dst", "", "[mandatory] destination IGP Router-ID")
	pathCmd.Flags().Uint32("asn", 0, "AS number of the source and destination nodes")
	pathCmd.Flags().String("metric", "igp", "metric type: igp, te, delay or hopcount")

	return pathCmd
}

func showPath(w io.Writer, hops []*table.LsNode, jsonFlag bool) error {
	if jsonFlag {
		path := []map[string]any{}
		for _, hop := range hops {
			tmp := map[string]any{
				"routerId": hop.RouterID,
				"hostname": hop.Hostname,
			}
			if sid, err := hop.NodeSID(); err == nil {
				tmp["nodeSid"] = sid
			}
			path = append(path, tmp)
		}
		outputJSON, err := json.Marshal(map[string]any{"path": path})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", outputJSON)
		return nil
	}

	for i, hop := range hops {
		fmt.Fprintf(w, "%d: %s", i, hop.RouterID)
		if hop.Hostname != "" {
			fmt.Fprintf(w, " (%s)", hop.Hostname)
		}
		if sid, err := hop.NodeSID(); err == nil {
			fmt.Fprintf(w, " Node-SID: %d", sid)
		}
		fmt.Fprintf(w, "\n")
	}
	return nil
}
