package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// ErrMalformed marks a frame that cannot be decoded or fails validation.
var ErrMalformed = errors.New("malformed message")

var validate = validator.New(validator.WithRequiredStructEnabled())

func EncodeRequest(r Request) ([]byte, error)   { return encode(r.Kind(), r) }
func EncodeResponse(r Response) ([]byte, error) { return encode(r.Kind(), r) }

func encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(map[string]any{kind: v})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return data, nil
}

// DecodeRequest parses and validates a client frame. Unknown kinds, unknown
// fields and invalid values are all ErrMalformed.
func DecodeRequest(data []byte) (Request, error) {
	kind, raw, err := envelope(data)
	if err != nil {
		return nil, err
	}

	var req Request
	switch kind {
	case KindConnectingParam:
		var r ConnectingParam
		err = strict(raw, &r)
		r.Nickname = NormalizeNickname(r.Nickname)
		req = r
	case KindJoinBoard:
		var r JoinBoard
		err = strict(raw, &r)
		req = r
	case KindPlayBoard:
		var r PlayBoard
		err = strict(raw, &r)
		req = r
	case KindGameOver:
		var r GameOver
		err = strict(raw, &r)
		req = r
	default:
		return nil, fmt.Errorf("%w: unknown request %q", ErrMalformed, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
	}
	return req, nil
}

// DecodeResponse parses a server frame.
func DecodeResponse(data []byte) (Response, error) {
	kind, raw, err := envelope(data)
	if err != nil {
		return nil, err
	}

	var resp Response
	switch kind {
	case KindConnectedParam:
		var r ConnectedParam
		err = json.Unmarshal(raw, &r)
		resp = r
	case KindJoinedBoard:
		var r JoinedBoard
		err = json.Unmarshal(raw, &r)
		resp = r
	case KindOpponentJoinedBoard:
		var r OpponentJoinedBoard
		err = json.Unmarshal(raw, &r)
		resp = r
	case KindPlayedBoard:
		var r PlayedBoard
		err = json.Unmarshal(raw, &r)
		resp = r
	case KindOpponentDisconnected:
		var r OpponentDisconnected
		err = json.Unmarshal(raw, &r)
		resp = r
	default:
		return nil, fmt.Errorf("%w: unknown response %q", ErrMalformed, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
	}
	return resp, nil
}

func envelope(data []byte) (string, json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(env) != 1 {
		return "", nil, fmt.Errorf("%w: want exactly one message kind, got %d", ErrMalformed, len(env))
	}
	for kind, raw := range env {
		return kind, raw, nil
	}
	panic("unreachable")
}

func strict(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NormalizeNickname trims, drops control characters, folds full-width forms
// and composes the result (NFC).
func NormalizeNickname(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = width.Fold.String(s)
	return strings.TrimSpace(norm.NFC.String(s))
}
