package ethabi

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abiTypes(names ...string) []AbiType {
	out := make([]AbiType, len(names))
	for i, name := range names {
		out[i] = MustParseAbiType(name)
	}
	return out
}

// Example from the Solidity ABI documentation: f(uint256,uint32[],bytes10,bytes).
func TestEncodeValuesMixed(t *testing.T) {
	types := abiTypes("uint256", "uint32[]", "bytes10", "bytes")
	values := []interface{}{0x123, []uint32{0x456, 0x789}, []byte("1234567890"), []byte("Hello, world!")}

	expected := hexWords(
		hexWord("123"),
		hexWord("80"),
		"3132333435363738393000000000000000000000000000000000000000000000",
		hexWord("e0"),
		hexWord("2"),
		hexWord("456"),
		hexWord("789"),
		hexWord("d"),
		"48656c6c6f2c20776f726c642100000000000000000000000000000000000000",
	)

	out, err := StrictCodec.EncodeValues(types, values)
	require.NoError(t, err)
	assert.Equal(t, HexString(expected), HexString(out))

	decoded, err := StrictCodec.DecodeValues(types, out)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		"291",
		[]interface{}{"1110", "1929"},
		HexString([]byte("1234567890")),
		HexString([]byte("Hello, world!")),
	}, plainValues(t, decoded))
}

// Example from the Solidity ABI documentation: g(uint256[][],string[]).
func TestEncodeValuesNested(t *testing.T) {
	types := abiTypes("uint256[][]", "string[]")
	values := []interface{}{
		[][]int{{1, 2}, {3}},
		[]string{"one", "two", "three"},
	}

	expected := hexWords(
		hexWord("40"),
		hexWord("140"),
		hexWord("2"),
		hexWord("40"),
		hexWord("a0"),
		hexWord("2"),
		hexWord("1"),
		hexWord("2"),
		hexWord("1"),
		hexWord("3"),
		hexWord("3"),
		hexWord("60"),
		hexWord("a0"),
		hexWord("e0"),
		hexWord("3"),
		"6f6e650000000000000000000000000000000000000000000000000000000000",
		hexWord("3"),
		"74776f0000000000000000000000000000000000000000000000000000000000",
		hexWord("5"),
		"7468726565000000000000000000000000000000000000000000000000000000",
	)

	out, err := StrictCodec.EncodeValues(types, values)
	require.NoError(t, err)
	assert.Equal(t, HexString(expected), HexString(out))

	decoded, err := StrictCodec.DecodeValues(types, out)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		[]interface{}{[]interface{}{"1", "2"}, []interface{}{"3"}},
		[]interface{}{"one", "two", "three"},
	}, plainValues(t, decoded))
}

func TestEncodeValuesStaticTuple(t *testing.T) {
	types := abiTypes("(uint256,bool)", "uint8[2]")

	out, err := StrictCodec.EncodeValues(types, []interface{}{
		[]interface{}{7, true},
		[2]uint8{1, 2},
	})
	require.NoError(t, err)

	// Static values are inlined without offsets.
	assert.Equal(t, HexString(hexWords(hexWord("7"), hexWord("1"), hexWord("1"), hexWord("2"))), HexString(out))
}

func TestEncodeValuesDynamicTupleOffsets(t *testing.T) {
	types := abiTypes("uint256", "(string,uint256)")

	out, err := StrictCodec.EncodeValues(types, []interface{}{
		1,
		[]interface{}{"ab", 2},
	})
	require.NoError(t, err)

	expected := hexWords(
		hexWord("1"),
		hexWord("40"),
		// Offsets inside the tuple are relative to the tuple start.
		hexWord("40"),
		hexWord("2"),
		hexWord("2"),
		"6162000000000000000000000000000000000000000000000000000000000000",
	)
	assert.Equal(t, HexString(expected), HexString(out))
}

func TestDecodeValuesRoundTrip(t *testing.T) {
	hashA := Word(Keccak256([]byte("a")))
	hashB := Word(Keccak256([]byte("b")))

	types := abiTypes(
		"(uint256,(string,bytes32[2]),address[])",
		"int64[]",
		"bool",
		"bytes",
		"string",
		"(bytes,uint8)[2]",
	)

	values := []interface{}{
		[]interface{}{
			big.NewInt(1),
			[]interface{}{"nested", [2]Word{hashA, hashB}},
			[]Address{testAlice, testBob},
		},
		[]int64{-1, 0, 1},
		true,
		[]byte{},
		"",
		[2][]interface{}{{[]byte{0xde, 0xad}, 1}, {[]byte{}, 2}},
	}

	encoded, err := StrictCodec.EncodeValues(types, values)
	require.NoError(t, err)

	decoded, err := StrictCodec.DecodeValues(types, encoded)
	require.NoError(t, err, spew.Sdump(encoded))

	assert.Equal(t, []interface{}{
		[]interface{}{
			"1",
			[]interface{}{"nested", []interface{}{HexString(hashA[:]), HexString(hashB[:])}},
			[]interface{}{testAlice, testBob},
		},
		[]interface{}{"-1", "0", "1"},
		true,
		"0x",
		"",
		[]interface{}{
			[]interface{}{"0xdead", "1"},
			[]interface{}{"0x", "2"},
		},
	}, plainValues(t, decoded))

	reencoded, err := StrictCodec.EncodeValues(types, decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded)
}

func TestDecodeValuesRest(t *testing.T) {
	types := abiTypes("uint256", "string")

	encoded, err := StrictCodec.EncodeValues(types, []interface{}{5, "tail"})
	require.NoError(t, err)

	input := append(append([]byte{}, encoded...), 0xde, 0xad, 0xbe, 0xef)

	values, rest, err := StrictCodec.DecodeValuesRest(types, input)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"5", "tail"}, plainValues(t, values))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, rest)

	values, err = StrictCodec.DecodeValues(types, input)
	require.NoError(t, err)
	assert.Len(t, values, 2)

	_, rest, err = StrictCodec.DecodeValuesRest(nil, input)
	require.NoError(t, err)
	assert.Equal(t, input, rest)
}

func TestDecodeValuesInvalid(t *testing.T) {
	cases := []struct {
		name  string
		types []string
		input []byte
	}{
		{"empty input", []string{"uint256"}, nil},
		{"short head", []string{"uint256", "uint256"}, hexWords(hexWord("1"))},
		{"static array beyond input", []string{"uint256[3]"}, hexWords(hexWord("1"), hexWord("2"))},
		{"offset beyond input", []string{"bytes"}, hexWords(hexWord("40"))},
		{"huge offset", []string{"bytes"}, hexWords("ff" + hexWord("")[2:])},
		{"length beyond input", []string{"bytes"}, hexWords(hexWord("20"), hexWord("21"), hexWord(""))},
		{"array length beyond input", []string{"uint256[]"}, hexWords(hexWord("20"), hexWord("10"))},
		{"array length of nested arrays", []string{"uint256[][]"}, hexWords(hexWord("20"), hexWord("2"), hexWord("40"))},
		{"nonzero padding", []string{"bytes"}, hexWords(hexWord("20"), hexWord("1"), "61"+hexWord("1")[2:])},
		{"invalid utf-8", []string{"string"}, hexWords(hexWord("20"), hexWord("1"), "ff"+hexWord("")[2:])},
		{"malformed word", []string{"bool"}, hexWords(hexWord("2"))},
		{"malformed tuple member", []string{"(uint256,bool)"}, hexWords(hexWord("1"), hexWord("3"))},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := StrictCodec.DecodeValues(abiTypes(c.types...), c.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecoding), "%+v", err)
		})
	}
}

func TestDecodeValuesSharedOffsets(t *testing.T) {
	// Both strings point at the same tail.
	input := hexWords(hexWord("40"), hexWord("40"), hexWord("4"), "74657374"+hexWord("")[8:])
	values, err := StrictCodec.DecodeValues(abiTypes("string", "string"), input)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"test", "test"}, values)

	// Every level is an array of 8 elements whose offsets all point at the next
	// level, so the leaf array would be decoded 8^7 times.
	const width = 8
	const depth = 8
	blockSize := (1 + width) * 32

	words := []string{hexWord("20")}
	for level := 0; level < depth; level++ {
		words = append(words, hexWord(fmt.Sprintf("%x", width)))
		for i := 0; i < width; i++ {
			if level == depth-1 {
				words = append(words, hexWord("1"))
			} else {
				words = append(words, hexWord(fmt.Sprintf("%x", blockSize-32)))
			}
		}
	}

	_, err = StrictCodec.DecodeValues(abiTypes("uint256"+strings.Repeat("[]", depth)), hexWords(words...))
	assert.True(t, errors.Is(err, ErrDecoding), "%+v", err)
}

func TestEncodeValuesInvalid(t *testing.T) {
	t.Run("arity", func(t *testing.T) {
		_, err := StrictCodec.EncodeValues(abiTypes("uint256", "bool"), []interface{}{1})
		assert.True(t, errors.Is(err, ErrLengthMismatch), "%+v", err)
	})

	t.Run("fixed array length", func(t *testing.T) {
		_, err := StrictCodec.EncodeValues(abiTypes("uint256[3]"), []interface{}{[]int{1, 2}})
		assert.True(t, errors.Is(err, ErrLengthMismatch), "%+v", err)
	})

	t.Run("tuple length", func(t *testing.T) {
		_, err := StrictCodec.EncodeValues(abiTypes("(uint256,bool)"), []interface{}{[]interface{}{1}})
		assert.True(t, errors.Is(err, ErrLengthMismatch), "%+v", err)
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := StrictCodec.EncodeValues(abiTypes("string"), []interface{}{Missing})
		assert.True(t, errors.Is(err, ErrValidation), "%+v", err)
	})

	t.Run("not a sequence", func(t *testing.T) {
		_, err := StrictCodec.EncodeValues(abiTypes("uint256[]"), []interface{}{5})
		assert.True(t, errors.Is(err, ErrValidation), "%+v", err)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		_, err := StrictCodec.EncodeValues(abiTypes("string"), []interface{}{"\xff"})
		assert.True(t, errors.Is(err, ErrValidation), "%+v", err)
	})

	t.Run("out of range element", func(t *testing.T) {
		_, err := StrictCodec.EncodeValues(abiTypes("uint8[]"), []interface{}{[]int{1, 256}})
		assert.True(t, errors.Is(err, ErrValueOutOfRange), "%+v", err)
	})

	t.Run("hex bytes in strict mode", func(t *testing.T) {
		_, err := StrictCodec.EncodeValues(abiTypes("bytes"), []interface{}{"0x1234"})
		assert.True(t, errors.Is(err, ErrValidation), "%+v", err)

		out, err := LenientCodec.EncodeValues(abiTypes("bytes"), []interface{}{"0x1234"})
		require.NoError(t, err)
		assert.Equal(t, HexString(hexWords(hexWord("20"), hexWord("2"), "1234"+hexWord("")[4:])), HexString(out))
	})
}

func TestEncodeValueEmpty(t *testing.T) {
	out, err := StrictCodec.EncodeValues(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = StrictCodec.EncodeValue(MustParseAbiType("uint256[]"), []int{})
	require.NoError(t, err)
	assert.Equal(t, HexString(hexWords(hexWord("20"), hexWord(""))), HexString(out))
}
