package ethabi

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Example from the Solidity documentation on non-standard packed mode.
func TestEncodePacked(t *testing.T) {
	out, err := StrictCodec.EncodePacked(
		abiTypes("int16", "bytes1", "uint16", "string"),
		[]interface{}{-1, []byte{0x42}, 3, "Hello, world!"},
	)
	require.NoError(t, err)
	assert.Equal(t, "0xffff42000348656c6c6f2c20776f726c6421", HexString(out))
}

func TestEncodePackedScalars(t *testing.T) {
	out, err := LenientCodec.EncodePacked(
		abiTypes("address", "bool", "uint8", "bytes", "bytes4"),
		[]interface{}{testAlice, true, 255, "0xbeef", []byte{1, 2}},
	)
	require.NoError(t, err)
	assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed01ffbeef01020000", HexString(out))
}

func TestEncodePackedArrays(t *testing.T) {
	out, err := StrictCodec.EncodePacked(
		abiTypes("uint8[]", "address[1]"),
		[]interface{}{[]int{1, 2}, []Address{testBob}},
	)
	require.NoError(t, err)

	// Array elements are padded to full words and carry no length.
	expected := hexWords(hexWord("1"), hexWord("2"), hexWord("fb6916095ca1df60bb79ce92ce3ea74c37c5d359"))
	assert.Equal(t, HexString(expected), HexString(out))
}

func TestEncodePackedErrors(t *testing.T) {
	cases := []struct {
		name   string
		types  []string
		values []interface{}
		err    error
	}{
		{"tuple", []string{"(uint256,bool)"}, []interface{}{[]interface{}{1, true}}, ErrValidation},
		{"array of strings", []string{"string[]"}, []interface{}{[]string{"a"}}, ErrValidation},
		{"array of bytes", []string{"bytes[1]"}, []interface{}{[][]byte{{1}}}, ErrValidation},
		{"arity", []string{"uint8", "uint8"}, []interface{}{1}, ErrLengthMismatch},
		{"fixed array length", []string{"uint8[2]"}, []interface{}{[]int{1}}, ErrLengthMismatch},
		{"range", []string{"uint8"}, []interface{}{256}, ErrValueOutOfRange},
		{"hex in strict mode", []string{"bytes"}, []interface{}{"0xbeef"}, ErrValidation},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := StrictCodec.EncodePacked(abiTypes(c.types...), c.values)
			assert.True(t, errors.Is(err, c.err), "%+v", err)
		})
	}
}

func TestSoliditySha3(t *testing.T) {
	hash, err := StrictCodec.SoliditySha3(abiTypes("string"), []interface{}{"hello"})
	require.NoError(t, err)
	assert.Equal(t, "0x1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8", hash.String())

	hash, err = StrictCodec.SoliditySha3(abiTypes("string", "string"), []interface{}{"hel", "lo"})
	require.NoError(t, err)
	assert.Equal(t, "0x1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8", hash.String())

	hash, err = StrictCodec.SoliditySha3(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Keccak256(), hash)

	_, err = StrictCodec.SoliditySha3(abiTypes("(bool)"), []interface{}{[]interface{}{true}})
	assert.True(t, errors.Is(err, ErrValidation), "%+v", err)
}
