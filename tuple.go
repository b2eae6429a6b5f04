package ethabi

import (
	"reflect"
	"unicode/utf8"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

/*
ABI-encodes a sequence of values using the head/tail layout. Static values are
placed in the head in order. Dynamic values are placed in the tail, and their
head slot holds the byte offset of their tail block, counted from the start of
the encoded sequence.

Values must already be positionally aligned; see "AlignArgs". Tuple values may
be given as sequences, maps or structs, as in "AlignArgs". Fails with
"ErrLengthMismatch" on arity mismatch and with the errors of "EncodeWord" for
bad values. No partial output is returned.
*/
func (self Codec) EncodeValues(types []AbiType, values []interface{}) ([]byte, error) {
	return self.encodeSequence(types, values)
}

// Same as "EncodeValues", but for a single value.
func (self Codec) EncodeValue(atype AbiType, value interface{}) ([]byte, error) {
	return self.encodeSequence([]AbiType{atype}, []interface{}{value})
}

/*
Inverse of "EncodeValues". Integers decode as *big.Int, addresses as Address,
booleans as bool, "bytes" and "bytesN" as []byte, strings as string, arrays and
tuples as []interface{}.

Input longer than required is accepted; see "DecodeValuesRest" to obtain the
unconsumed suffix.
*/
func (self Codec) DecodeValues(types []AbiType, input []byte) ([]interface{}, error) {
	out, _, err := self.DecodeValuesRest(types, input)
	return out, err
}

/*
Same as "DecodeValues", but also returns the bytes following the furthest byte
read by the decoder. For well-formed input, this is whatever was appended to the
encoded sequence.
*/
func (self Codec) DecodeValuesRest(types []AbiType, input []byte) ([]interface{}, []byte, error) {
	dec := abiDecoder{codec: self, input: input, budget: mulSaturated(len(input), decodeReadFactor)}
	out, err := dec.decodeSequence(types, 0)
	if err != nil {
		return nil, nil, err
	}
	return out, input[dec.end:], nil
}

/*
Head/tail encoding state for one sequence. Each head slot is either static
content or a reference to a tail block by index. References are turned into
absolute offsets only in "bytes", once the head size is known.
*/
type headTailBuffer struct {
	heads []headSlot
	tails [][]byte
}

type headSlot struct {
	static []byte
	tail   int
}

func (self *headTailBuffer) appendStatic(chunk []byte) {
	self.heads = append(self.heads, headSlot{static: chunk, tail: -1})
}

func (self *headTailBuffer) appendTail(chunk []byte) {
	self.heads = append(self.heads, headSlot{tail: len(self.tails)})
	self.tails = append(self.tails, chunk)
}

func (self *headTailBuffer) headLen() int {
	var size int
	for _, slot := range self.heads {
		if slot.tail < 0 {
			size += len(slot.static)
		} else {
			size += wordSize
		}
	}
	return size
}

func (self *headTailBuffer) bytes() []byte {
	offset := self.headLen()
	offsets := make([]int, len(self.tails))
	for i, tail := range self.tails {
		offsets[i] = offset
		offset += len(tail)
	}

	out := make([]byte, 0, offset)
	for _, slot := range self.heads {
		if slot.tail < 0 {
			out = append(out, slot.static...)
		} else {
			out = appendUintWord(out, uint64(offsets[slot.tail]))
		}
	}
	for _, tail := range self.tails {
		out = append(out, tail...)
	}
	return out
}

func (self Codec) encodeSequence(types []AbiType, values []interface{}) ([]byte, error) {
	if len(types) != len(values) {
		return nil, errors.Wrapf(ErrLengthMismatch, `expected %v values, got %v`, len(types), len(values))
	}

	var buf headTailBuffer
	for i, atype := range types {
		chunk, err := self.encodeValue(atype, values[i])
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to encode value %v of type %v`, i, atype)
		}

		if atype.IsDynamic() {
			buf.appendTail(chunk)
		} else {
			buf.appendStatic(chunk)
		}
	}
	return buf.bytes(), nil
}

func (self Codec) encodeValue(atype AbiType, value interface{}) ([]byte, error) {
	if isMissing(value) {
		return nil, errors.Wrapf(ErrValidation, `missing value for %v`, atype)
	}

	switch atype.Kind {
	case AbiKindUint, AbiKindInt, AbiKindAddress, AbiKindBool, AbiKindFixedBytes:
		word, err := self.EncodeWord(atype, value)
		if err != nil {
			return nil, err
		}
		return word[:], nil

	case AbiKindBytes:
		buf, _, err := self.toBytes(atype, value)
		if err != nil {
			return nil, err
		}
		return appendLengthPrefixed(nil, buf), nil

	case AbiKindString:
		buf, err := toText(atype, value)
		if err != nil {
			return nil, err
		}
		return appendLengthPrefixed(nil, buf), nil

	case AbiKindFixedArray:
		elems, err := toSequence(atype, value)
		if err != nil {
			return nil, err
		}
		if len(elems) != atype.Size {
			return nil, errors.Wrapf(ErrLengthMismatch, `%v expects %v elements, got %v`, atype, atype.Size, len(elems))
		}
		return self.encodeSequence(repeatType(*atype.Elem, len(elems)), elems)

	case AbiKindArray:
		elems, err := toSequence(atype, value)
		if err != nil {
			return nil, err
		}
		body, err := self.encodeSequence(repeatType(*atype.Elem, len(elems)), elems)
		if err != nil {
			return nil, err
		}
		return append(appendUintWord(nil, uint64(len(elems))), body...), nil

	case AbiKindTuple:
		elems, err := alignTuple(atype, value)
		if err != nil {
			return nil, err
		}
		return self.encodeSequence(atype.ComponentTypes(), elems)

	default:
		return nil, errors.Wrapf(ErrValidation, `unknown ABI kind %v`, atype.Kind)
	}
}

func appendLengthPrefixed(out []byte, buf []byte) []byte {
	out = appendUintWord(out, uint64(len(buf)))
	return appendRightPadded(out, buf)
}

/*
Decoding state. Offsets are interpreted relative to the start of the sequence
that contains them, which is always inside "input". "end" tracks the furthest
byte read.

Offsets may point into the same region more than once, so the same bytes can be
decoded repeatedly. "budget" limits the total bytes read to a multiple of the
input length. Well-formed input reads every byte at most once.
*/
type abiDecoder struct {
	codec  Codec
	input  []byte
	end    int
	budget int
}

const decodeReadFactor = 4

func (self *abiDecoder) consume(size int) error {
	self.budget -= size
	if self.budget < 0 {
		return errors.Wrapf(ErrDecoding, `offsets reference more than %v times the input of %v bytes`,
			decodeReadFactor, len(self.input))
	}
	return nil
}

func (self *abiDecoder) decodeSequence(types []AbiType, start int) ([]interface{}, error) {
	var headSize int
	for _, atype := range types {
		headSize = addSaturated(headSize, atype.HeadSize())
	}
	if headSize > len(self.input)-start {
		return nil, errors.Wrapf(ErrDecoding, `need %v bytes for the head at offset %v, have %v`,
			headSize, start, len(self.input)-start)
	}

	out := make([]interface{}, len(types))
	pos := start

	for i, atype := range types {
		var err error
		if atype.IsDynamic() {
			var offset int
			offset, err = self.readSize(pos, len(self.input)-start)
			if err == nil {
				out[i], err = self.decodeValue(atype, start+offset)
			}
		} else {
			out[i], err = self.decodeValue(atype, pos)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to decode value %v of type %v`, i, atype)
		}
		pos += atype.HeadSize()
	}

	self.markRead(pos)
	return out, nil
}

func (self *abiDecoder) decodeValue(atype AbiType, pos int) (interface{}, error) {
	if pos > len(self.input) {
		return nil, errors.Wrapf(ErrDecoding, `offset %v is outside of the input of %v bytes`, pos, len(self.input))
	}

	switch atype.Kind {
	case AbiKindUint, AbiKindInt, AbiKindAddress, AbiKindBool, AbiKindFixedBytes:
		if err := self.consume(wordSize); err != nil {
			return nil, err
		}
		out, err := self.codec.DecodeWord(atype, self.input[pos:])
		if err == nil {
			self.markRead(pos + wordSize)
		}
		return out, err

	case AbiKindBytes, AbiKindString:
		body, err := self.readLengthPrefixed(atype, pos)
		if err != nil {
			return nil, err
		}
		if atype.Kind == AbiKindString {
			if !utf8.Valid(body) {
				return nil, errors.Wrapf(ErrDecoding, `string is not valid UTF-8`)
			}
			return string(body), nil
		}
		return body, nil

	case AbiKindFixedArray:
		if mulSaturated(atype.Size, atype.Elem.HeadSize()) > len(self.input)-pos {
			return nil, errors.Wrapf(ErrDecoding, `%v doesn't fit into the remaining %v bytes`, atype, len(self.input)-pos)
		}
		return self.decodeSequence(repeatType(*atype.Elem, atype.Size), pos)

	case AbiKindArray:
		remaining := len(self.input) - pos - wordSize
		length, err := self.readSize(pos, remaining/wordSize)
		if err != nil {
			return nil, errors.WithMessagef(err, `invalid length of %v`, atype)
		}
		return self.decodeSequence(repeatType(*atype.Elem, length), pos+wordSize)

	case AbiKindTuple:
		return self.decodeSequence(atype.ComponentTypes(), pos)

	default:
		return nil, errors.Wrapf(ErrValidation, `unknown ABI kind %v`, atype.Kind)
	}
}

func (self *abiDecoder) readLengthPrefixed(atype AbiType, pos int) ([]byte, error) {
	length, err := self.readSize(pos, len(self.input)-pos-wordSize)
	if err != nil {
		return nil, errors.WithMessagef(err, `invalid length of %v`, atype)
	}

	start := pos + wordSize
	end := start + paddedLen(length)
	if end > len(self.input) {
		return nil, errors.Wrapf(ErrDecoding, `%v of length %v needs %v bytes at offset %v, have %v`,
			atype, length, end-start, start, len(self.input)-start)
	}
	if err := self.consume(end - start); err != nil {
		return nil, err
	}
	if !isZero(self.input[start+length : end]) {
		return nil, errors.Wrapf(ErrDecoding, `nonzero padding in %v`, atype)
	}

	self.markRead(end)
	out := make([]byte, length)
	copy(out, self.input[start:])
	return out, nil
}

/*
Reads a word at "pos" as an offset or length, which must not exceed "limit".
The limit is derived from the remaining input, which also keeps the result
within "int".
*/
func (self *abiDecoder) readSize(pos int, limit int) (int, error) {
	if pos < 0 || pos+wordSize > len(self.input) {
		return 0, errors.Wrapf(ErrDecoding, `need a word at offset %v, have %v bytes`, pos, len(self.input))
	}
	self.markRead(pos + wordSize)
	if err := self.consume(wordSize); err != nil {
		return 0, err
	}

	var num uint256.Int
	num.SetBytes32(self.input[pos : pos+wordSize])
	if limit < 0 || !num.IsUint64() || num.Uint64() > uint64(limit) {
		return 0, errors.Wrapf(ErrDecoding, `value %v at offset %v exceeds the remaining input`, num.Hex(), pos)
	}
	return int(num.Uint64()), nil
}

func (self *abiDecoder) markRead(end int) {
	if end > self.end {
		self.end = end
	}
}

func repeatType(atype AbiType, count int) []AbiType {
	out := make([]AbiType, count)
	for i := range out {
		out[i] = atype
	}
	return out
}

/*
Converts an array value into a list of element values. Accepts "[]interface{}"
and any other slice or array, or a pointer to one.
*/
func toSequence(atype AbiType, value interface{}) ([]interface{}, error) {
	if elems, ok := value.([]interface{}); ok {
		return elems, nil
	}

	val := reflect.ValueOf(value)
	if val.IsValid() && val.Kind() == reflect.Ptr && !val.IsNil() {
		val = val.Elem()
	}
	if !val.IsValid() || (val.Kind() != reflect.Slice && val.Kind() != reflect.Array) {
		return nil, errors.Wrapf(ErrValidation, `%v expects a sequence, got %T`, atype, value)
	}

	out := make([]interface{}, val.Len())
	for i := range out {
		out[i] = val.Index(i).Interface()
	}
	return out, nil
}
