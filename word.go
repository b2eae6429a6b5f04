package ethabi

import (
	"encoding/json"
	"math/big"
	"reflect"
	"unicode/utf8"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const wordSize = 256 / 8

/*
ABI-encodes a single-word value: "uintN", "intN", "address", "bool" or
"bytesN". Other types fail with "ErrValidation"; use "Codec.EncodeValues" for
them.

Accepted Go values:

	uintN, intN  -> Go integers of any width, *big.Int, big.Int, *HexInt,
	                *uint256.Int, uint256.Int, json.Number
	address      -> Address, [20]byte, 20-byte []byte or HexBytes, "0x" string
	bool         -> bool
	bytesN       -> []byte, HexBytes, byte arrays such as Word or Hash;
	                in lenient mode, also a "0x" string of exactly N bytes
*/
func (self Codec) EncodeWord(atype AbiType, input interface{}) (Word, error) {
	if isMissing(input) {
		return Word{}, errors.Wrapf(ErrValidation, `missing value for %v`, atype)
	}

	switch atype.Kind {
	case AbiKindUint, AbiKindInt:
		num, ok := toBigInt(input)
		if !ok {
			return Word{}, errors.Wrapf(ErrValidation, `%v expects an integer, got %T`, atype, input)
		}
		return encodeIntWord(atype, num)

	case AbiKindAddress:
		addr, err := toAddress(input)
		if err != nil {
			return Word{}, err
		}
		return addr.Word(), nil

	case AbiKindBool:
		val := reflect.ValueOf(input)
		if !val.IsValid() || val.Kind() != reflect.Bool {
			return Word{}, errors.Wrapf(ErrValidation, `%v expects a boolean, got %T`, atype, input)
		}
		if val.Bool() {
			return trueWord, nil
		}
		return falseWord, nil

	case AbiKindFixedBytes:
		buf, err := self.toFixedBytes(atype, input)
		if err != nil {
			return Word{}, err
		}
		var out Word
		copy(out[:], buf)
		return out, nil

	case AbiKindBytes, AbiKindString, AbiKindFixedArray, AbiKindArray, AbiKindTuple:
		return Word{}, errors.Wrapf(ErrValidation, `%v is not a single-word type`, atype)

	default:
		return Word{}, errors.Wrapf(ErrValidation, `unknown ABI kind %v`, atype.Kind)
	}
}

/*
Inverse of "EncodeWord". Decodes the first word of the input, which must be at
least 32 bytes long. Fails with "ErrDecoding" on short input, nonzero padding,
a boolean other than 0 or 1, or a signed integer that isn't properly
sign-extended.

Integers decode as *big.Int, addresses as Address, booleans as bool and
"bytesN" as a []byte of length N.
*/
func (self Codec) DecodeWord(atype AbiType, input []byte) (interface{}, error) {
	if len(input) < wordSize {
		return nil, errors.Wrapf(ErrDecoding, `%v needs %v bytes, got %v`, atype, wordSize, len(input))
	}
	word := input[:wordSize]

	switch atype.Kind {
	case AbiKindUint:
		var num uint256.Int
		num.SetBytes32(word)
		if num.BitLen() > atype.Size {
			return nil, errors.Wrapf(ErrDecoding, `value overflows %v`, atype)
		}
		return num.ToBig(), nil

	case AbiKindInt:
		var num uint256.Int
		num.SetBytes32(word)
		out := num.ToBig()
		if num.Sign() < 0 {
			out = new(uint256.Int).Neg(&num).ToBig()
			out.Neg(out)
		}
		if !intFits(atype, out) {
			return nil, errors.Wrapf(ErrDecoding, `value is not a sign-extended %v`, atype)
		}
		return out, nil

	case AbiKindAddress:
		var out Address
		pad := wordSize - len(out)
		if !isZero(word[:pad]) {
			return nil, errors.Wrapf(ErrDecoding, `nonzero padding in address`)
		}
		copy(out[:], word[pad:])
		return out, nil

	case AbiKindBool:
		if !isZero(word[:wordSize-1]) {
			return nil, errors.Wrapf(ErrDecoding, `nonzero padding in bool`)
		}
		switch word[wordSize-1] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, errors.Wrapf(ErrDecoding, `malformed bool: byte %#02x in last position`, word[wordSize-1])
		}

	case AbiKindFixedBytes:
		if !isZero(word[atype.Size:]) {
			return nil, errors.Wrapf(ErrDecoding, `nonzero padding in %v`, atype)
		}
		out := make([]byte, atype.Size)
		copy(out, word)
		return out, nil

	case AbiKindBytes, AbiKindString, AbiKindFixedArray, AbiKindArray, AbiKindTuple:
		return nil, errors.Wrapf(ErrValidation, `%v is not a single-word type`, atype)

	default:
		return nil, errors.Wrapf(ErrValidation, `unknown ABI kind %v`, atype.Kind)
	}
}

func encodeIntWord(atype AbiType, num *big.Int) (Word, error) {
	if !intFits(atype, num) {
		return Word{}, errors.Wrapf(ErrValueOutOfRange, `%v doesn't fit into %v`, num, atype)
	}
	// Negative values become two's complement over 256 bits, which is the
	// sign extension of their N-bit representation.
	var word uint256.Int
	word.SetFromBig(num)
	return Word(word.Bytes32()), nil
}

// Range check: [0, 2^N) for "uintN", [-2^(N-1), 2^(N-1)) for "intN".
func intFits(atype AbiType, num *big.Int) bool {
	switch atype.Kind {
	case AbiKindUint:
		return num.Sign() >= 0 && num.BitLen() <= atype.Size
	case AbiKindInt:
		if num.Sign() >= 0 {
			return num.BitLen() < atype.Size
		}
		// -x-1 for negative x
		return new(big.Int).Not(num).BitLen() < atype.Size
	default:
		return false
	}
}

/*
Accepts the integer representations listed in "EncodeWord". Booleans and
strings are rejected even if their type is convertible.
*/
func toBigInt(input interface{}) (*big.Int, bool) {
	switch input := input.(type) {
	case *big.Int:
		return input, input != nil
	case big.Int:
		return &input, true
	case *HexInt:
		return (*big.Int)(input), input != nil
	case HexInt:
		return (*big.Int)(&input), true
	case *uint256.Int:
		if input == nil {
			return nil, false
		}
		return input.ToBig(), true
	case uint256.Int:
		return input.ToBig(), true
	case json.Number:
		return new(big.Int).SetString(string(input), 10)
	}

	val := reflect.ValueOf(input)
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(val.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(val.Uint()), true
	case reflect.Ptr:
		if val.IsNil() {
			return nil, false
		}
		return toBigInt(val.Elem().Interface())
	default:
		return nil, false
	}
}

func toAddress(input interface{}) (Address, error) {
	switch input := input.(type) {
	case Address:
		return input, nil
	case *Address:
		if input != nil {
			return *input, nil
		}
	case [20]byte:
		return Address(input), nil
	case string:
		return ParseChecksumAddress(input)
	case []byte:
		return addressFromBytes(input)
	case HexBytes:
		return addressFromBytes(input)
	}
	return Address{}, errors.Wrapf(ErrValidation, `address expects Address, bytes or a hex string, got %T`, input)
}

func addressFromBytes(input []byte) (Address, error) {
	var out Address
	if len(input) != len(out) {
		return out, errors.Wrapf(ErrValueOutOfRange, `address must be exactly %v bytes, got %v`, len(out), len(input))
	}
	copy(out[:], input)
	return out, nil
}

/*
Coerces a value for "bytes" or "bytesN". Native bytes are always accepted. A
"0x" string is accepted only in lenient mode. Whether the value came from text
affects length rules for "bytesN", see "toFixedBytes".
*/
func (self Codec) toBytes(atype AbiType, input interface{}) (buf []byte, fromText bool, err error) {
	switch input := input.(type) {
	case []byte:
		return input, false, nil
	case HexBytes:
		return input, false, nil
	case string:
		if self.Strict {
			return nil, true, errors.Wrapf(ErrValidation,
				`%v doesn't accept text in strict mode, got %q; use a byte slice`, atype, input)
		}
		if !has0x(stringToBytesUnsafe(input)) {
			return nil, true, errors.Wrapf(ErrValidation, `%v expects a 0x-prefixed hex string, got %q`, atype, input)
		}
		buf, err := HexDecode(stringToBytesUnsafe(input))
		if err != nil {
			return nil, true, errors.Wrapf(ErrValidation, `%v expects a 0x-prefixed hex string, got %q: %v`, atype, input, err)
		}
		return buf, true, nil
	}

	val := reflect.ValueOf(input)
	if val.IsValid() && val.Kind() == reflect.Ptr && !val.IsNil() {
		val = val.Elem()
	}
	if val.IsValid() && isByteSeq(val.Type()) {
		if val.Kind() == reflect.Slice {
			return val.Bytes(), false, nil
		}
		out := make([]byte, val.Len())
		reflect.Copy(reflect.ValueOf(out), val)
		return out, false, nil
	}

	return nil, false, errors.Wrapf(ErrValidation, `%v expects bytes, got %T`, atype, input)
}

/*
Length rules for "bytesN". Decoded hex must be exactly N bytes. Native bytes
must be exactly N bytes in strict mode; in lenient mode, shorter input is
right-padded.
*/
func (self Codec) toFixedBytes(atype AbiType, input interface{}) ([]byte, error) {
	buf, fromText, err := self.toBytes(atype, input)
	if err != nil {
		return nil, err
	}

	switch {
	case len(buf) == atype.Size:
	case len(buf) < atype.Size && !fromText && !self.Strict:
	default:
		return nil, errors.Wrapf(ErrValueOutOfRange, `%v expects exactly %v bytes, got %v`, atype, atype.Size, len(buf))
	}
	return buf, nil
}

func toText(atype AbiType, input interface{}) ([]byte, error) {
	val := reflect.ValueOf(input)
	if val.IsValid() && val.Kind() == reflect.String {
		str := val.String()
		if !utf8.ValidString(str) {
			return nil, errors.Wrapf(ErrValidation, `%v expects valid UTF-8 text`, atype)
		}
		return stringToBytesUnsafe(str), nil
	}
	return nil, errors.Wrapf(ErrValidation, `%v expects text, got %T`, atype, input)
}

func isByteSeq(typ reflect.Type) bool {
	return (typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array) && typ.Elem().Kind() == reflect.Uint8
}

func isZero(buf []byte) bool {
	for _, char := range buf {
		if char != 0 {
			return false
		}
	}
	return true
}

var (
	trueWord = func() Word {
		var out Word
		out[len(out)-1] = 1
		return out
	}()
	falseWord Word
)

func appendUintWord(out []byte, num uint64) []byte {
	var word uint256.Int
	word.SetUint64(num)
	buf := word.Bytes32()
	return append(out, buf[:]...)
}

func appendRightPadded(out []byte, buf []byte) []byte {
	out = append(out, buf...)
	return append(out, make([]byte, paddedLen(len(buf))-len(buf))...)
}

func paddedLen(length int) int {
	return (length + wordSize - 1) / wordSize * wordSize
}
