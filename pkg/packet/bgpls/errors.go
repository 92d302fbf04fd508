// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package bgpls

import (
	"errors"
	"fmt"

	"github.com/osrg/gobgp/v3/pkg/packet/bgp"
)

type ErrorKind int

const (
	KindTruncatedTLV ErrorKind = iota + 1
	KindUnexpectedDescriptorType
	KindDuplicateMultiTopologyID
	KindMissingReachabilityInfo
	KindUnknownProtocolID
	KindInvalidTLVLength
)

func (k ErrorKind) String() string {
	switch k {
	case KindTruncatedTLV:
		return "TruncatedTlv"
	case KindUnexpectedDescriptorType:
		return "UnexpectedDescriptorType"
	case KindDuplicateMultiTopologyID:
		return "DuplicateMultiTopologyId"
	case KindMissingReachabilityInfo:
		return "MissingReachabilityInfo"
	case KindUnknownProtocolID:
		return "UnknownProtocolId"
	case KindInvalidTLVLength:
		return "InvalidTlvLength"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Sentinels for errors.Is matching against a *DecodeError.
var (
	ErrTruncatedTLV             = &DecodeError{Kind: KindTruncatedTLV}
	ErrUnexpectedDescriptorType = &DecodeError{Kind: KindUnexpectedDescriptorType}
	ErrDuplicateMultiTopologyID = &DecodeError{Kind: KindDuplicateMultiTopologyID}
	ErrMissingReachabilityInfo  = &DecodeError{Kind: KindMissingReachabilityInfo}
	ErrUnknownProtocolID        = &DecodeError{Kind: KindUnknownProtocolID}
	ErrInvalidTLVLength         = &DecodeError{Kind: KindInvalidTLVLength}
)

// ErrUnsupportedNlriType is returned by DecodeNlri for NLRI types it does not decode.
var ErrUnsupportedNlriType = errors.New("unsupported BGP-LS NLRI type")

// DecodeError is a fatal NLRI decode failure. Data holds the offending bytes
// for the NOTIFICATION sent by the session layer.
type DecodeError struct {
	Kind    ErrorKind
	Data    []byte
	Message string
}

func newDecodeError(kind ErrorKind, data []byte, msg string) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Data:    data,
		Message: msg,
	}
}

func (e *DecodeError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotificationCodes returns the BGP NOTIFICATION error code and sub-code.
func (e *DecodeError) NotificationCodes() (uint8, uint8) {
	switch e.Kind {
	case KindTruncatedTLV, KindDuplicateMultiTopologyID, KindMissingReachabilityInfo, KindInvalidTLVLength:
		return bgp.BGP_ERROR_UPDATE_MESSAGE_ERROR, bgp.BGP_ERROR_SUB_OPTIONAL_ATTRIBUTE_ERROR
	case KindUnexpectedDescriptorType:
		return bgp.BGP_ERROR_UPDATE_MESSAGE_ERROR, bgp.BGP_ERROR_SUB_MALFORMED_ATTRIBUTE_LIST
	default:
		return bgp.BGP_ERROR_UPDATE_MESSAGE_ERROR, 0
	}
}

// MessageError converts e into gobgp's NOTIFICATION-ready error.
func (e *DecodeError) MessageError() *bgp.MessageError {
	code, subcode := e.NotificationCodes()
	return bgp.NewMessageError(code, subcode, e.Data, e.Error()).(*bgp.MessageError)
}
