package ethabi

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var TestAbi = MustParseAbiJson(`[
	{"type": "constructor", "inputs": [{"name": "supply", "type": "uint256"}], "stateMutability": "payable"},
	{"type": "function", "name": "one", "inputs": [{"name": "value", "type": "uint256"}], "outputs": []},
	{"type": "function", "name": "two", "inputs": [{"name": "to", "type": "address"}, {"name": "data", "type": "bytes"}], "outputs": [], "stateMutability": "payable"},
	{"type": "function", "name": "three", "inputs": [{
		"name": "points", "type": "tuple[]", "components": [
			{"name": "x", "type": "uint256"},
			{"name": "owner", "type": "address"}
		]
	}], "outputs": []},
	{"type": "function", "name": "four", "inputs": [], "outputs": [
		{"name": "a", "type": "uint256"},
		{"name": "t", "type": "tuple", "components": [
			{"name": "s", "type": "string"},
			{"name": "h", "type": "bytes32[2]"}
		]},
		{"name": "", "type": "bool"}
	], "stateMutability": "view"},
	{"type": "function", "name": "balanceOf", "inputs": [{"name": "owner", "type": "address"}], "outputs": [{"name": "balance", "type": "uint256"}], "stateMutability": "view"},
	{"type": "event", "name": "Transfer", "anonymous": false, "inputs": [
		{"name": "from", "type": "address", "indexed": true},
		{"name": "to", "type": "address", "indexed": true},
		{"name": "value", "type": "uint256", "indexed": false}
	]},
	{"type": "event", "name": "Deposit", "anonymous": false, "inputs": [
		{"name": "addr", "type": "address", "indexed": true},
		{"name": "amount", "type": "uint256", "indexed": false}
	]},
	{"type": "event", "name": "Tagged", "anonymous": false, "inputs": [
		{"name": "tag", "type": "string", "indexed": true},
		{"name": "ids", "type": "uint256[]", "indexed": true},
		{"name": "note", "type": "string", "indexed": false}
	]},
	{"type": "event", "name": "Placed", "anonymous": false, "inputs": [
		{"name": "point", "type": "tuple", "indexed": true, "components": [
			{"name": "x", "type": "uint256"},
			{"name": "owner", "type": "address"}
		]},
		{"name": "route", "type": "tuple[]", "indexed": true, "components": [
			{"name": "x", "type": "uint256"}
		]},
		{"name": "extra", "type": "tuple", "indexed": false, "components": [
			{"name": "x", "type": "uint256"}
		]}
	]},
	{"type": "event", "name": "Anon", "anonymous": true, "inputs": [
		{"name": "id", "type": "uint256", "indexed": true},
		{"name": "note", "type": "string", "indexed": false}
	]},
	{"type": "error", "name": "InsufficientBalance", "inputs": [
		{"name": "available", "type": "uint256"},
		{"name": "required", "type": "uint256"}
	]},
	{"type": "fallback", "stateMutability": "nonpayable"},
	{"type": "receive", "stateMutability": "payable"}
]`)

var (
	AbiA = MustParseAbiJson(`[{"constant":false,"inputs":[],"name":"a","outputs":[],"type":"function"}]`)
	AbiB = MustParseAbiJson(`[{"constant":false,"inputs":[{"name":"","type":"uint256"}],"name":"a","outputs":[],"type":"function"}]`)
	AbiC = MustParseAbiJson(`[
		{"constant":false,"inputs":[],"name":"a","outputs":[],"type":"function"},
		{"constant":false,"inputs":[{"name":"","type":"bytes32"}],"name":"a","outputs":[],"type":"function"},
		{"constant":false,"inputs":[{"name":"","type":"uint256"}],"name":"a","outputs":[],"type":"function"}
	]`)
	AbiD = MustParseAbiJson(`[{"constant":false,"inputs":[{"name":"b","type":"bytes32[]"}],"name":"byte_array","outputs":[],"payable":false,"type":"function"}]`)
)

var (
	testAlice = MustParseAddress(`0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed`)
	testBob   = MustParseAddress(`0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359`)
)

// Concatenates hex-encoded words, with or without "0x".
func hexWords(words ...string) []byte {
	var out []byte
	for _, word := range words {
		out = append(out, MustParseHexBytes("0x"+strings.TrimPrefix(word, "0x"))...)
	}
	return out
}

// Left-pads a hex number to a full word.
func hexWord(num string) string {
	return strings.Repeat("0", 64-len(num)) + num
}

func mustParams(t testing.TB, input string) []AbiParam {
	var out []AbiParam
	require.NoError(t, json.Unmarshal([]byte(input), &out))
	return out
}

/*
Converts decoded values into a form comparable with "require.Equal":
integers become decimal strings and byte slices become hex strings. Equal
*big.Int values may differ in internal representation.
*/
func plainValues(t testing.TB, value interface{}) interface{} {
	out, err := WalkTree(value, func(leaf interface{}) (interface{}, error) {
		switch leaf := leaf.(type) {
		case *big.Int:
			return leaf.String(), nil
		case []byte:
			return HexString(leaf), nil
		default:
			return leaf, nil
		}
	})
	require.NoError(t, err, spew.Sdump(value))
	return out
}

func repeatByte(char byte, count int) []byte {
	return []byte(strings.Repeat(string([]byte{char}), count))
}
