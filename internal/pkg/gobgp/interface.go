// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package gobgp

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	api "github.com/osrg/gobgp/v3/api"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/nttcom/bgpls/internal/pkg/table"
	"github.com/nttcom/bgpls/pkg/packet/bgpls"
)

type GobgpOptions struct {
	GobgpAddr string
	GobgpPort string
}

// GetBgplsNlris dials gobgpd and converts every BGP-LS path of its global RIB
// into TED elements.
func GetBgplsNlris(ctx context.Context, serverAddr string, serverPort string) ([]table.TedElem, error) {
	gobgpAddress := net.JoinHostPort(serverAddr, serverPort)

	// Get connection
	cc, err := grpc.NewClient(
		gobgpAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client: %w", err)
	}
	defer func() {
		if err := cc.Close(); err != nil {
			zap.L().Warn("failed to close gRPC client connection", zap.Error(err))
		}
	}()

	return ListBgplsNlris(ctx, api.NewGobgpApiClient(cc))
}

// ListBgplsNlris streams the AFI_LS/SAFI_LS table with binary NLRI enabled.
func ListBgplsNlris(ctx context.Context, client api.GobgpApiClient) ([]table.TedElem, error) {
	req := &api.ListPathRequest{
		TableType: api.TableType_GLOBAL,
		Family: &api.Family{
			Afi:  api.Family_AFI_LS,
			Safi: api.Family_SAFI_LS,
		},
		Name:             "",
		SortType:         api.ListPathRequest_PREFIX,
		EnableNlriBinary: true,
	}

	stream, err := client.ListPath(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve paths: %w", err)
	}

	var tedElems []table.TedElem
	for {
		r, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error receiving stream data: %w", err)
		}
		convertedElems, err := ConvertToTedElem(r.GetDestination())
		if err != nil {
			var decodeErr *bgpls.DecodeError
			if errors.As(err, &decodeErr) {
				// one malformed NLRI must not discard the rest of the table
				zap.L().Warn("skip malformed BGP-LS NLRI",
					zap.String("prefix", r.GetDestination().GetPrefix()),
					zap.Error(err),
					zap.Binary("data", decodeErr.Data))
				continue
			}
			return nil, fmt.Errorf("failed to convert path to TED element: %w", err)
		}

		tedElems = append(tedElems, convertedElems...)
	}
	return tedElems, nil
}

// ConvertToTedElem decodes the binary NLRI of the destination's path and
// attaches the BGP-LS attribute carried in its path attributes.
func ConvertToTedElem(dst *api.Destination) ([]table.TedElem, error) {
	if len(dst.GetPaths()) != 1 {
		return nil, errors.New("invalid path length: expected 1 path")
	}

	path := dst.GetPaths()[0]
	if path.GetIsWithdraw() {
		return nil, nil
	}
	if len(path.GetNlriBinary()) == 0 {
		return nil, errors.New("path has no binary NLRI: gobgpd must support EnableNlriBinary")
	}

	nlri, err := bgpls.DecodeNlri(bgpls.NewCursor(path.GetNlriBinary()), bgpls.FamilyLs)
	if errors.Is(err, bgpls.ErrUnsupportedNlriType) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	zap.L().Debug("decoded BGP-LS NLRI", zap.Object("nlri", nlri))

	elem, err := table.NewTedElem(nlri)
	if err != nil {
		return nil, err
	}

	bgplsAttr, err := lsAttribute(path.GetPattrs())
	if err != nil {
		return nil, err
	}
	if bgplsAttr == nil {
		return []table.TedElem{elem}, nil
	}

	switch elem := elem.(type) {
	case *table.LsNode:
		applyNodeAttribute(elem, bgplsAttr)
	case *table.LsLink:
		applyLinkAttribute(elem, bgplsAttr)
	case *table.LsPrefix:
		elem.SidIndex = bgplsAttr.GetPrefix().GetSrPrefixSid()
	}
	return []table.TedElem{elem}, nil
}

func lsAttribute(pathAttrs []*anypb.Any) (*api.LsAttribute, error) {
	for _, pathAttr := range pathAttrs {
		typedPathAttr, err := pathAttr.UnmarshalNew()
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal path attribute: %w", err)
		}

		if bgplsAttr, ok := typedPathAttr.(*api.LsAttribute); ok {
			return bgplsAttr, nil
		}
	}
	return nil, nil
}

func applyNodeAttribute(lsNode *table.LsNode, bgplsAttr *api.LsAttribute) {
	lsNode.IsisAreaID = formatIsisArea(bgplsAttr.GetNode().GetIsisArea())
	lsNode.Hostname = bgplsAttr.GetNode().GetName()

	if srCapabilities := bgplsAttr.GetNode().GetSrCapabilities().GetRanges(); len(srCapabilities) > 0 {
		lsNode.SrgbBegin = srCapabilities[0].GetBegin()
		lsNode.SrgbEnd = srCapabilities[0].GetEnd()
	}
}

func applyLinkAttribute(lsLink *table.LsLink, bgplsAttr *api.LsAttribute) {
	lsLink.Metrics = append(lsLink.Metrics, table.NewMetric(table.IGP_METRIC, bgplsAttr.GetLink().GetIgpMetric()))

	teMetric := bgplsAttr.GetLink().GetDefaultTeMetric()
	if teMetric != 0 {
		lsLink.Metrics = append(lsLink.Metrics, table.NewMetric(table.TE_METRIC, teMetric))
	}

	lsLink.AdjSid = bgplsAttr.GetLink().GetSrAdjacencySid()
}

// formatIsisArea renders an ISIS area address as dotted groups of four
// hex digits counted from the right, e.g. 49.0001.
func formatIsisArea(isisArea []byte) string {
	tmpIsisArea := hex.EncodeToString(isisArea)
	var sb strings.Builder
	for i, s := range tmpIsisArea {
		if i != 0 && (len(tmpIsisArea)-i)%4 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(s)
	}
	return sb.String()
}
