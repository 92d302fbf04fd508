// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nttcom/bgpls/pkg/logger"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "bgpls",
		Short:        "Decode BGP-LS NLRI and inspect the topology learned by gobgpd",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolP("json", "j", false, "output json format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("host", "127.0.0.1", "gobgpd connection address")
	rootCmd.PersistentFlags().StringP("port", "p", "50051", "gobgpd connection port")

	rootCmd.AddCommand(newDecodeCmd(), newTedCmd(), newPathCmd())
	rootCmd.PersistentPreRunE = persistentPreRunE
	rootCmd.Run = runRootCmd

	return rootCmd
}

func persistentPreRunE(cmd *cobra.Command, args []string) error {
	dbg, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger.NewConsoleLogger(dbg))
	return nil
}

func runRootCmd(cmd *cobra.Command, args []string) {
	cmd.HelpFunc()(cmd, args)
}
