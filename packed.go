package ethabi

import (
	"github.com/pkg/errors"
)

/*
Non-standard packed encoding, as produced by Solidity's "abi.encodePacked".
Values are concatenated without offsets or lengths:

	uintN, intN  -> N/8 bytes, two's complement for negatives
	address      -> 20 bytes
	bool         -> 1 byte
	bytesN       -> N bytes
	bytes/string -> raw content, unpadded
	arrays       -> elements padded to 32 bytes each, no length

Tuples and arrays of "bytes" or "string" have no packed form and fail with
"ErrValidation". The encoding is ambiguous: different inputs may produce the
same output.
*/
func (self Codec) EncodePacked(types []AbiType, values []interface{}) ([]byte, error) {
	if len(types) != len(values) {
		return nil, errors.Wrapf(ErrLengthMismatch, `expected %v values, got %v`, len(types), len(values))
	}

	var out []byte
	for i, atype := range types {
		var err error
		out, err = self.appendPacked(out, atype, values[i], false)
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to pack value %v of type %v`, i, atype)
		}
	}
	return out, nil
}

// Keccak256 hash of "EncodePacked", as computed by Solidity's
// "keccak256(abi.encodePacked(...))".
func (self Codec) SoliditySha3(types []AbiType, values []interface{}) (Hash, error) {
	packed, err := self.EncodePacked(types, values)
	if err != nil {
		return Hash{}, err
	}
	return Keccak256(packed), nil
}

func (self Codec) appendPacked(out []byte, atype AbiType, value interface{}, inArray bool) ([]byte, error) {
	switch atype.Kind {
	case AbiKindUint, AbiKindInt, AbiKindAddress, AbiKindBool, AbiKindFixedBytes:
		word, err := self.EncodeWord(atype, value)
		if err != nil {
			return nil, err
		}
		if inArray {
			return append(out, word[:]...), nil
		}
		return append(out, packedWord(atype, word)...), nil

	case AbiKindBytes, AbiKindString:
		if inArray {
			return nil, errors.Wrapf(ErrValidation, `arrays of %v have no packed encoding`, atype)
		}
		var buf []byte
		var err error
		if atype.Kind == AbiKindBytes {
			buf, _, err = self.toBytes(atype, value)
		} else {
			buf, err = toText(atype, value)
		}
		if err != nil {
			return nil, err
		}
		return append(out, buf...), nil

	case AbiKindFixedArray, AbiKindArray:
		elems, err := toSequence(atype, value)
		if err != nil {
			return nil, err
		}
		if atype.Kind == AbiKindFixedArray && len(elems) != atype.Size {
			return nil, errors.Wrapf(ErrLengthMismatch, `%v expects %v elements, got %v`, atype, atype.Size, len(elems))
		}
		for _, elem := range elems {
			out, err = self.appendPacked(out, *atype.Elem, elem, true)
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	case AbiKindTuple:
		return nil, errors.Wrapf(ErrValidation, `tuple %v has no packed encoding`, atype)

	default:
		return nil, errors.Wrapf(ErrValidation, `unknown ABI kind %v`, atype.Kind)
	}
}

// Significant bytes of a single-word encoding.
func packedWord(atype AbiType, word Word) []byte {
	switch atype.Kind {
	case AbiKindUint, AbiKindInt:
		return word[wordSize-atype.Size/8:]
	case AbiKindAddress:
		return word[wordSize-len(Address{}):]
	case AbiKindBool:
		return word[wordSize-1:]
	case AbiKindFixedBytes:
		return word[:atype.Size]
	default:
		return word[:]
	}
}
