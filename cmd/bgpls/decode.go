// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	yaml "gopkg.in/yaml.v2"

	"github.com/nttcom/bgpls/pkg/packet/bgpls"
)

// VectorFile is the yaml input of "bgpls decode -f".
type VectorFile struct {
	Family string   `yaml:"family"` // "ls" (default) or "ls-vpn"
	Nlris  []Vector `yaml:"nlris"`
}

type Vector struct {
	Name string `yaml:"name"`
	Hex  string `yaml:"hex"`
}

func newDecodeCmd() *cobra.Command {

	decodeCmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode framed BGP-LS NLRI (type, length, body) given as hex",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			vpnFlag, err := cmd.Flags().GetBool("vpn")
			if err != nil {
				return err
			}
			filepath, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}

			family := bgpls.FamilyLs
			if vpnFlag {
				family = bgpls.FamilyLsVpn
			}

			var vectors []Vector
			if filepath != "" {
				inputData, err := readVectorFile(filepath)
				if err != nil {
					return err
				}
				if inputData.Family == "ls-vpn" {
					family = bgpls.FamilyLsVpn
				}
				vectors = append(vectors, inputData.Nlris...)
			}
			for i, arg := range args {
				vectors = append(vectors, Vector{Name: fmt.Sprintf("arg%d", i), Hex: arg})
			}
			if len(vectors) == 0 {
				return errors.New("no input: give hex arguments or \"-f filepath\"")
			}

			return decodeVectors(cmd.OutOrStdout(), vectors, family, jsonFlag)
		},
	}

	decodeCmd.Flags().StringP("file", "f", "", "path to yaml formatted NLRI vector file")
	decodeCmd.Flags().Bool("vpn", false, "decode as BGP-LS-VPN (SAFI 72), each NLRI carries a Route Distinguisher")

	return decodeCmd
}

func readVectorFile(filepath string) (VectorFile, error) {
	inputData := VectorFile{}
	f, err := os.Open(filepath)
	if err != nil {
		return inputData, fmt.Errorf("file \"%s\" can't open: %w", filepath, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&inputData); err != nil {
		return inputData, fmt.Errorf("file \"%s\" can't be parsed: %w", filepath, err)
	}
	if inputData.Family != "" && inputData.Family != "ls" && inputData.Family != "ls-vpn" {
		return inputData, fmt.Errorf("unknown family %q in \"%s\"", inputData.Family, filepath)
	}
	return inputData, nil
}

type decodeResult struct {
	name  string
	nlris []bgpls.Nlri
	err   error
}

func decodeVectors(w io.Writer, vectors []Vector, family bgpls.Family, jsonFlag bool) error {
	results := make([]decodeResult, 0, len(vectors))
	var errs []error
	for _, v := range vectors {
		r := decodeResult{name: v.Name}
		data, err := parseHex(v.Hex)
		if err == nil {
			r.nlris, err = bgpls.DecodeNlris(data, family)
		}
		if err != nil {
			r.err = err
			errs = append(errs, fmt.Errorf("%s: %w", v.Name, err))
			zap.L().Debug("failed to decode NLRI", zap.String("vector", v.Name), zap.Error(err))
		}
		results = append(results, r)
	}

	if jsonFlag {
		if err := printResultsJSON(w, results); err != nil {
			return err
		}
	} else {
		printResults(w, results)
	}
	return errors.Join(errs...)
}

func printResults(w io.Writer, results []decodeResult) {
	for _, r := range results {
		fmt.Fprintf(w, "%s:\n", r.name)
		for _, nlri := range r.nlris {
			fmt.Fprintf(w, "  %s\n", nlri)
		}
		if r.err != nil {
			fmt.Fprintf(w, "  error: %s\n", r.err)
			var decodeErr *bgpls.DecodeError
			if errors.As(r.err, &decodeErr) {
				code, subcode := decodeErr.NotificationCodes()
				fmt.Fprintf(w, "  notification: %d/%d data: %s\n", code, subcode, hex.EncodeToString(decodeErr.Data))
			}
		}
	}
}

func printResultsJSON(w io.Writer, results []decodeResult) error {
	vectors := []map[string]any{}
	for _, r := range results {
		nlris := []map[string]any{}
		for _, nlri := range r.nlris {
			enc := zapcore.NewMapObjectEncoder()
			if err := nlri.MarshalLogObject(enc); err != nil {
				return err
			}
			nlris = append(nlris, enc.Fields)
		}
		tmp := map[string]any{
			"name":  r.name,
			"nlris": nlris,
		}
		if r.err != nil {
			tmpErr := map[string]any{
				"message": r.err.Error(),
			}
			var decodeErr *bgpls.DecodeError
			if errors.As(r.err, &decodeErr) {
				code, subcode := decodeErr.NotificationCodes()
				tmpErr["kind"] = decodeErr.Kind.String()
				tmpErr["code"] = code
				tmpErr["subcode"] = subcode
				tmpErr["data"] = hex.EncodeToString(decodeErr.Data)
			}
			tmp["error"] = tmpErr
		}
		vectors = append(vectors, tmp)
	}
	outputJSON, err := json.Marshal(map[string]any{"vectors": vectors})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", outputJSON)
	return nil
}
