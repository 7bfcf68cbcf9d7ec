package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Request
	}{
		{
			name: "connecting",
			in:   `{"ConnectingParam":{"nickname":"alice"}}`,
			want: ConnectingParam{Nickname: "alice"},
		},
		{
			name: "nickname is normalized",
			in:   `{"ConnectingParam":{"nickname":"  ＡＬＩＣＥ\u0007 "}}`,
			want: ConnectingParam{Nickname: "ALICE"},
		},
		{
			name: "join",
			in:   `{"JoinBoard":{"session_id":"s1"}}`,
			want: JoinBoard{SessionID: "s1"},
		},
		{
			name: "play",
			in:   `{"PlayBoard":{"session_id":"s1","board_id":"b1","pos":[2,3]}}`,
			want: PlayBoard{SessionID: "s1", BoardID: "b1", Pos: Pos{2, 3}},
		},
		{
			// off-board positions are the game's business, not the codec's
			name: "play off the board",
			in:   `{"PlayBoard":{"session_id":"s1","board_id":"b1","pos":[8,-1]}}`,
			want: PlayBoard{SessionID: "s1", BoardID: "b1", Pos: Pos{8, -1}},
		},
		{
			name: "game over",
			in:   `{"GameOver":{"session_id":"s1","board_id":"b1","score":[40,24]}}`,
			want: GameOver{SessionID: "s1", BoardID: "b1", Score: Score{40, 24}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeRequest([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeRequest_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"JoinBoard":`,
		"not an object":     `[1,2]`,
		"no kind":           `{}`,
		"two kinds":         `{"JoinBoard":{"session_id":"a"},"GameOver":{}}`,
		"unknown kind":      `{"Resign":{"session_id":"a"}}`,
		"unknown field":     `{"JoinBoard":{"session_id":"a","extra":1}}`,
		"missing session":   `{"JoinBoard":{}}`,
		"null body":         `{"JoinBoard":null}`,
		"empty nickname":    `{"ConnectingParam":{"nickname":"   "}}`,
		"long nickname":     `{"ConnectingParam":{"nickname":"abcdefghijklmnopqrstuvwxyzabcdefg"}}`,
		"pos wrong arity":   `{"PlayBoard":{"session_id":"a","board_id":"b","pos":[1,2,3]}}`,
		"pos not array":     `{"PlayBoard":{"session_id":"a","board_id":"b","pos":"d3"}}`,
		"score too high":    `{"GameOver":{"session_id":"a","board_id":"b","score":[65,0]}}`,
		"missing board":     `{"PlayBoard":{"session_id":"a","pos":[1,1]}}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(in))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncodeResponse_WireShape(t *testing.T) {
	nick := "bob"
	tests := []struct {
		name string
		in   Response
		want string
	}{
		{
			name: "connected",
			in:   ConnectedParam{SessionID: "s", UsersCount: 2},
			want: `{"ConnectedParam":{"session_id":"s","users_count":2}}`,
		},
		{
			name: "joined waiting",
			in:   JoinedBoard{SessionID: "s", BoardID: "b", Color: ColorBlack},
			want: `{"JoinedBoard":{"session_id":"s","board_id":"b","color":"Black","opponent":null}}`,
		},
		{
			name: "joined paired",
			in:   JoinedBoard{SessionID: "s", BoardID: "b", Color: ColorWhite, Opponent: &nick},
			want: `{"JoinedBoard":{"session_id":"s","board_id":"b","color":"White","opponent":"bob"}}`,
		},
		{
			name: "opponent joined",
			in:   OpponentJoinedBoard{SessionID: "s", BoardID: "b", Opponent: "bob"},
			want: `{"OpponentJoinedBoard":{"session_id":"s","board_id":"b","opponent":"bob"}}`,
		},
		{
			name: "played",
			in:   PlayedBoard{SessionID: "s", BoardID: "b", Pos: Pos{2, 3}},
			want: `{"PlayedBoard":{"session_id":"s","board_id":"b","pos":[2,3]}}`,
		},
		{
			name: "opponent disconnected",
			in:   OpponentDisconnected{SessionID: "s", BoardID: "b"},
			want: `{"OpponentDisconnected":{"session_id":"s","board_id":"b"}}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeResponse(tc.in)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))

			back, err := DecodeResponse(data)
			require.NoError(t, err)
			assert.Equal(t, tc.in, back)
		})
	}
}

func TestEncodeRequest_DecodesBack(t *testing.T) {
	req := PlayBoard{SessionID: "s", BoardID: "b", Pos: Pos{7, 0}}

	data, err := EncodeRequest(req)
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Contains(t, env, KindPlayBoard)

	got, err := DecodeRequest(data)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestDecodeResponse_UnknownKind(t *testing.T) {
	_, err := DecodeResponse([]byte(`{"Hello":{}}`))
	assert.ErrorIs(t, err, ErrMalformed)
}
