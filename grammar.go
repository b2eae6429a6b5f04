package ethabi

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

/*
Represents a broad category of ABI types. The set is closed: every switch over
AbiKind in this package handles all of these and rejects anything else.
*/
type AbiKind byte

const (
	AbiKindUint AbiKind = iota + 1
	AbiKindInt
	AbiKindAddress
	AbiKindBool
	AbiKindFixedBytes
	AbiKindBytes
	AbiKindString
	AbiKindFixedArray
	AbiKindArray
	AbiKindTuple
)

// Implements "fmt.Stringer".
func (self AbiKind) String() string {
	switch self {
	case AbiKindUint:
		return "AbiKindUint"
	case AbiKindInt:
		return "AbiKindInt"
	case AbiKindAddress:
		return "AbiKindAddress"
	case AbiKindBool:
		return "AbiKindBool"
	case AbiKindFixedBytes:
		return "AbiKindFixedBytes"
	case AbiKindBytes:
		return "AbiKindBytes"
	case AbiKindString:
		return "AbiKindString"
	case AbiKindFixedArray:
		return "AbiKindFixedArray"
	case AbiKindArray:
		return "AbiKindArray"
	case AbiKindTuple:
		return "AbiKindTuple"
	default:
		return ""
	}
}

/*
Parsed ABI type. Obtained via "ParseAbiType" or "ParseAbiParamType" and treated
as immutable afterwards: parsed types are shared through a cache.

The meaning of "Size" depends on "Kind":

	AbiKindUint, AbiKindInt  -> bit width, multiple of 8 in [8, 256]
	AbiKindFixedBytes        -> byte count in [1, 32]
	AbiKindFixedArray        -> element count, at least 1
	others                   -> 0

"Elem" is present for both array kinds. "Components" is present for tuples.
*/
type AbiType struct {
	Kind       AbiKind
	Size       int
	Elem       *AbiType
	Components []AbiComponent
}

// Named member of a tuple type. Names come from JSON ABI definitions and are
// empty for tuples parsed from type strings.
type AbiComponent struct {
	Name string
	Type AbiType
}

/*
Returns the canonical type string, with tuple components collapsed
recursively, as used in function and event signatures:

	uint256
	bytes32[3]
	(uint256,address[])[]
*/
func (self AbiType) String() string {
	return bytesToMutableString(self.AppendTo(nil))
}

// Appends the canonical type string to the buffer. See "AbiType.String".
func (self AbiType) AppendTo(buf []byte) []byte {
	switch self.Kind {
	case AbiKindUint:
		buf = append(buf, "uint"...)
		return strconv.AppendInt(buf, int64(self.Size), 10)
	case AbiKindInt:
		buf = append(buf, "int"...)
		return strconv.AppendInt(buf, int64(self.Size), 10)
	case AbiKindAddress:
		return append(buf, "address"...)
	case AbiKindBool:
		return append(buf, "bool"...)
	case AbiKindFixedBytes:
		buf = append(buf, "bytes"...)
		return strconv.AppendInt(buf, int64(self.Size), 10)
	case AbiKindBytes:
		return append(buf, "bytes"...)
	case AbiKindString:
		return append(buf, "string"...)
	case AbiKindFixedArray:
		buf = self.Elem.AppendTo(buf)
		buf = append(buf, '[')
		buf = strconv.AppendInt(buf, int64(self.Size), 10)
		return append(buf, ']')
	case AbiKindArray:
		buf = self.Elem.AppendTo(buf)
		return append(buf, "[]"...)
	case AbiKindTuple:
		buf = append(buf, '(')
		for i, comp := range self.Components {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = comp.Type.AppendTo(buf)
		}
		return append(buf, ')')
	default:
		return buf
	}
}

/*
True if values of this type are placed in the tail of the enclosing sequence
and referenced by offset: "bytes", "string", dynamic arrays, and fixed arrays
or tuples containing any of those.
*/
func (self AbiType) IsDynamic() bool {
	switch self.Kind {
	case AbiKindBytes, AbiKindString, AbiKindArray:
		return true
	case AbiKindFixedArray:
		return self.Elem.IsDynamic()
	case AbiKindTuple:
		for _, comp := range self.Components {
			if comp.Type.IsDynamic() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

/*
Number of bytes a value of this type occupies in the head of the enclosing
sequence. Always a multiple of 32. Dynamic types occupy a single offset word.
*/
func (self AbiType) HeadSize() int {
	if self.IsDynamic() {
		return wordSize
	}
	switch self.Kind {
	case AbiKindFixedArray:
		return mulSaturated(self.Size, self.Elem.HeadSize())
	case AbiKindTuple:
		var size int
		for _, comp := range self.Components {
			size = addSaturated(size, comp.Type.HeadSize())
		}
		return size
	default:
		return wordSize
	}
}

// Component types in declared order. Empty for non-tuples.
func (self AbiType) ComponentTypes() []AbiType {
	out := make([]AbiType, len(self.Components))
	for i, comp := range self.Components {
		out[i] = comp.Type
	}
	return out
}

func (self AbiType) hasTuple() bool {
	switch self.Kind {
	case AbiKindTuple:
		return true
	case AbiKindFixedArray, AbiKindArray:
		return self.Elem.hasTuple()
	default:
		return false
	}
}

const abiTypeCacheSize = 1024

// Parsed type strings are immutable, so the cache may be shared freely.
var abiTypeCache = func() *lru.Cache {
	cache, err := lru.New(abiTypeCacheSize)
	if err != nil {
		panic(err)
	}
	return cache
}()

/*
Parses a canonical type string such as "uint256", "bytes32[3]" or
"(uint256,address)[]". Accepts "uint" and "int" as aliases for "uint256" and
"int256". Whitespace is tolerated around tuple components. Anything else fails
with "ErrGrammar".

Results are cached; repeated parsing of the same string is cheap.
*/
func ParseAbiType(typeName string) (AbiType, error) {
	val, ok := abiTypeCache.Get(typeName)
	if ok {
		return val.(AbiType), nil
	}

	parser := typeParser{src: typeName}
	out, err := parser.parseType()
	if err != nil {
		return AbiType{}, err
	}
	err = parser.expectEnd()
	if err != nil {
		return AbiType{}, err
	}

	abiTypeCache.Add(typeName, out)
	return out, nil
}

// Version of "ParseAbiType" that panics on error. Convenient for initializing
// global variables.
func MustParseAbiType(typeName string) AbiType {
	out, err := ParseAbiType(typeName)
	if err != nil {
		panic(err)
	}
	return out
}

/*
Parses a parameter type as it appears in a JSON ABI definition, where tuples
are spelled "tuple", "tuple[]", "tuple[2][]" and so on, with members listed
separately as "components". The resulting tuple type carries component names,
which are used for keyword alignment and named output.
*/
func ParseAbiParamType(typeName string, components []AbiParam) (AbiType, error) {
	const tuplePrefix = "tuple"

	if !strings.HasPrefix(typeName, tuplePrefix) {
		if len(components) > 0 {
			return AbiType{}, errors.Wrapf(ErrGrammar, `type %q can't have components`, typeName)
		}
		return ParseAbiType(typeName)
	}

	tuple := AbiType{Kind: AbiKindTuple, Components: make([]AbiComponent, len(components))}
	for i, param := range components {
		atype, err := ParseAbiParamType(param.Type, param.Components)
		if err != nil {
			return AbiType{}, errors.WithMessagef(err, `in component %v of %q`, i, typeName)
		}
		tuple.Components[i] = AbiComponent{Name: param.Name, Type: atype}
	}

	parser := typeParser{src: typeName, pos: len(tuplePrefix)}
	out, err := parser.parseSuffixes(tuple)
	if err != nil {
		return AbiType{}, err
	}
	return out, parser.expectEnd()
}

/*
Recursive-descent parser for type strings:

	type     = (base | tuple) suffix*
	tuple    = "(" [type ("," type)*] ")"
	suffix   = "[" [N] "]"
	base     = letters [digits]
*/
type typeParser struct {
	src string
	pos int
}

func (self *typeParser) parseType() (AbiType, error) {
	var out AbiType
	var err error

	if self.peek() == '(' {
		out, err = self.parseTuple()
	} else {
		out, err = self.parseBase()
	}
	if err != nil {
		return out, err
	}
	return self.parseSuffixes(out)
}

func (self *typeParser) parseBase() (AbiType, error) {
	start := self.pos
	for self.pos < len(self.src) && isLower(self.src[self.pos]) {
		self.pos++
	}
	name := self.src[start:self.pos]

	digitStart := self.pos
	for self.pos < len(self.src) && isDigit(self.src[self.pos]) {
		self.pos++
	}
	digits := self.src[digitStart:self.pos]

	switch name {
	case "uint", "int":
		bits := 256
		if digits != "" {
			num, err := self.parseNum(digits, digitStart)
			if err != nil {
				return AbiType{}, err
			}
			if num%8 != 0 || num < 8 || num > 256 {
				return AbiType{}, self.fail(start, `integer width must be a multiple of 8 in [8, 256]`)
			}
			bits = num
		}
		if name == "uint" {
			return AbiType{Kind: AbiKindUint, Size: bits}, nil
		}
		return AbiType{Kind: AbiKindInt, Size: bits}, nil

	case "bytes":
		if digits == "" {
			return AbiType{Kind: AbiKindBytes}, nil
		}
		num, err := self.parseNum(digits, digitStart)
		if err != nil {
			return AbiType{}, err
		}
		if num > wordSize {
			return AbiType{}, self.fail(start, `fixed byte length must be in [1, 32]`)
		}
		return AbiType{Kind: AbiKindFixedBytes, Size: num}, nil

	case "address", "bool", "string":
		if digits != "" {
			return AbiType{}, self.fail(digitStart, `unexpected size`)
		}
		switch name {
		case "address":
			return AbiType{Kind: AbiKindAddress}, nil
		case "bool":
			return AbiType{Kind: AbiKindBool}, nil
		default:
			return AbiType{Kind: AbiKindString}, nil
		}

	default:
		return AbiType{}, self.fail(start, `unknown base type`)
	}
}

func (self *typeParser) parseTuple() (AbiType, error) {
	start := self.pos
	self.pos++ // "("

	out := AbiType{Kind: AbiKindTuple, Components: []AbiComponent{}}

	self.skipSpace()
	if self.peek() == ')' {
		self.pos++
		return out, nil
	}

	for {
		self.skipSpace()
		comp, err := self.parseType()
		if err != nil {
			return AbiType{}, err
		}
		out.Components = append(out.Components, AbiComponent{Type: comp})
		self.skipSpace()

		switch self.peek() {
		case ',':
			self.pos++
		case ')':
			self.pos++
			return out, nil
		case 0:
			return AbiType{}, self.fail(start, `unterminated tuple`)
		default:
			return AbiType{}, self.fail(self.pos, `expected "," or ")"`)
		}
	}
}

func (self *typeParser) parseSuffixes(elem AbiType) (AbiType, error) {
	for self.peek() == '[' {
		start := self.pos
		self.pos++

		digitStart := self.pos
		for self.pos < len(self.src) && isDigit(self.src[self.pos]) {
			self.pos++
		}
		digits := self.src[digitStart:self.pos]

		if self.peek() != ']' {
			return AbiType{}, self.fail(start, `malformed array dimension`)
		}
		self.pos++

		inner := elem
		if digits == "" {
			elem = AbiType{Kind: AbiKindArray, Elem: &inner}
			continue
		}

		num, err := self.parseNum(digits, digitStart)
		if err != nil {
			return AbiType{}, err
		}
		elem = AbiType{Kind: AbiKindFixedArray, Size: num, Elem: &inner}
	}
	return elem, nil
}

// Positive decimal without leading zeros.
func (self *typeParser) parseNum(digits string, pos int) (int, error) {
	if digits == "" || digits[0] == '0' {
		return 0, self.fail(pos, `expected a positive decimal number without leading zeros`)
	}
	num, err := strconv.ParseUint(digits, 10, 31)
	if err != nil {
		return 0, self.fail(pos, `number too large`)
	}
	return int(num), nil
}

func (self *typeParser) expectEnd() error {
	if self.pos < len(self.src) {
		return self.fail(self.pos, `unexpected trailing input`)
	}
	return nil
}

func (self *typeParser) peek() byte {
	if self.pos < len(self.src) {
		return self.src[self.pos]
	}
	return 0
}

func (self *typeParser) skipSpace() {
	for self.pos < len(self.src) && isSpace(self.src[self.pos]) {
		self.pos++
	}
}

func (self *typeParser) fail(pos int, msg string) error {
	return errors.Wrapf(ErrGrammar, `failed to parse %q as ABI type at position %v: %v`, self.src, pos, msg)
}

func isLower(char byte) bool { return char >= 'a' && char <= 'z' }
func isDigit(char byte) bool { return char >= '0' && char <= '9' }
func isSpace(char byte) bool { return char == ' ' || char == '\t' || char == '\n' || char == '\r' }

const maxInt = int(^uint(0) >> 1)

func mulSaturated(a, b int) int {
	if a != 0 && b > maxInt/a {
		return maxInt
	}
	return a * b
}

func addSaturated(a, b int) int {
	if a > maxInt-b {
		return maxInt
	}
	return a + b
}
