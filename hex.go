package ethabi

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

/*
Hex codec shared by the text and JSON forms of every type in this package.
Encoded data always carries the "0x" prefix. Decoding accepts "0x" or "0X",
and treats empty input as empty data.
*/

// Length of the "0x"-prefixed hex encoding of "size" bytes.
func HexEncodedLen(size int) int {
	return 2 + size*2
}

// Number of bytes encoded by "size" characters of "0x"-prefixed hex.
func HexDecodedLen(size int) int {
	if size < 2 {
		return 0
	}
	return (size - 2) / 2
}

/*
Writes the "0x"-prefixed encoding of the input. The output length must be
exactly "HexEncodedLen(len(input))".
*/
func HexEncodeTo(output []byte, input []byte) error {
	if len(output) != HexEncodedLen(len(input)) {
		return errors.Errorf(`can't hex-encode %d bytes into a buffer of %d`, len(input), len(output))
	}
	copy(output, "0x")
	hex.Encode(output[2:], input)
	return nil
}

func HexEncode(input []byte) []byte {
	out := make([]byte, HexEncodedLen(len(input)))
	_ = HexEncodeTo(out, input)
	return out
}

func HexString(input []byte) string {
	return bytesToMutableString(HexEncode(input))
}

/*
Decodes "0x"-prefixed hex into the output, whose length must be exactly
"HexDecodedLen(len(input))". The output is left untouched on error.
*/
func HexDecodeTo(output []byte, input []byte) error {
	digits, err := hexDigits(input)
	if err != nil {
		return err
	}
	if len(digits)%2 != 0 || len(output) != len(digits)/2 {
		return errors.Errorf(`hex input %q encodes %d bytes, expected %d`, input, HexDecodedLen(len(input)), len(output))
	}
	for i, char := range digits {
		if fromHexChar(char) < 0 {
			return errors.Errorf(`invalid hex character %q at index %d of %q`, char, i+2, input)
		}
	}
	_, err = hex.Decode(output, digits)
	return errors.WithStack(err)
}

func HexDecode(input []byte) ([]byte, error) {
	out := make([]byte, HexDecodedLen(len(input)))
	err := HexDecodeTo(out, input)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func hexDigits(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}
	if !has0x(input) {
		return nil, errors.Errorf(`hex input %q doesn't start with "0x"`, input)
	}
	return input[2:], nil
}

func has0x(input []byte) bool {
	return len(input) >= 2 && input[0] == '0' && (input[1] == 'x' || input[1] == 'X')
}

func fromHexChar(char byte) int {
	switch {
	case '0' <= char && char <= '9':
		return int(char - '0')
	case 'a' <= char && char <= 'f':
		return int(char-'a') + 10
	case 'A' <= char && char <= 'F':
		return int(char-'A') + 10
	default:
		return -1
	}
}

// Hex encoding wrapped in double quotes, for "json.Marshaler".
func hexEncodeQuoted(input []byte) []byte {
	out := make([]byte, HexEncodedLen(len(input))+2)
	out[0] = '"'
	_ = HexEncodeTo(out[1:len(out)-1], input)
	out[len(out)-1] = '"'
	return out
}
