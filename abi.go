package ethabi

/*
See https://docs.soliditylang.org/en/latest/abi-spec.html
*/

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Encoding and decoding settings. The zero value is a lenient codec without
logging. Safe for concurrent use; a Codec is never mutated by its methods.

In strict mode, "bytes", "bytesN" and "string" parameters accept only native
Go values ([]byte, byte arrays, string), and "bytesN" requires exactly N bytes.
In lenient mode, "bytes" and "bytesN" also accept "0x"-prefixed hex strings,
and native byte values shorter than N are right-padded. The mode affects
overload resolution: a call may resolve differently in each mode.
*/
type Codec struct {
	Strict bool
	Logger *zap.Logger
}

// Codecs with default settings.
var (
	StrictCodec  = Codec{Strict: true}
	LenientCodec = Codec{}
)

func (self Codec) logger() *zap.Logger {
	if self.Logger == nil {
		return zap.NewNop()
	}
	return self.Logger
}

/*
Decodes output from a Solidity compiler. Expects JSON produced by the following
incantation:

	solc --combined-json=abi,bin --optimize

Maps contract identifiers to decoded "ContractDef" values. Each identifier has
the form "filePath:contractName". Newer compilers emit the ABI as a JSON array
rather than a string; both are accepted.
*/
func ReadContractDefs(src io.Reader) (map[string]ContractDef, error) {
	var input struct {
		Contracts map[string]struct {
			Abi json.RawMessage
			Bin string
		}
	}

	err := json.NewDecoder(src).Decode(&input)
	if err != nil {
		return nil, errors.Wrap(err, `failed to read Solidity output`)
	}

	out := make(map[string]ContractDef, len(input.Contracts))
	for name, inp := range input.Contracts {
		path := strings.SplitN(name, ":", 2)
		if len(path) != 2 {
			return nil, errors.Errorf(`malformed contract identifier %q, expected "filePath:contractName"`, name)
		}

		abiJson := []byte(inp.Abi)
		var str string
		if json.Unmarshal(inp.Abi, &str) == nil {
			abiJson = []byte(str)
		}

		def := ContractDef{
			FileName:     path[0],
			ContractName: path[1],
			AbiJson:      string(abiJson),
		}

		err := json.Unmarshal(abiJson, &def.Abi)
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to decode ABI of %q`, name)
		}

		def.Code, err = ParseHexBytes("0x" + strings.TrimPrefix(inp.Bin, "0x"))
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to decode code of %q`, name)
		}

		out[name] = def
	}

	return out, nil
}

// Decodes output from a Solidity compiler. See "ReadContractDefs" for details.
func DecodeContractDefs(input []byte) (map[string]ContractDef, error) {
	return ReadContractDefs(bytes.NewReader(input))
}

/*
A structure representing the output of a Solidity compiler for a single
contract. See "ReadContractDefs" for details.
*/
type ContractDef struct {
	FileName     string
	ContractName string
	Abi          Abi
	AbiJson      string
	Code         HexBytes
}

/*
Abi represents the functions, events and errors of a contract, as declared in
its JSON ABI definition. Entries keep their declared order; overloads are
distinct entries sharing a name.

See the "AbiMethod" definition for possible entry types.
*/
type Abi []AbiMethod

/*
Represents one entry of an ABI definition. Possible types:

	AbiConstructor
	AbiFunction  (also for "fallback" and "receive" entries)
	AbiEvent
	AbiError
*/
type AbiMethod interface{}

/*
Parses an ABI definition. Panics on failure. Convenient for initializing global
variables on startup:

	var TokenAbi = ethabi.MustParseAbiJson(`[{"type": "function", "name": "balanceOf", ...}]`)
*/
func MustParseAbiJson(input string) Abi {
	var abi Abi
	err := abi.UnmarshalJSON(stringToBytesUnsafe(input))
	if err != nil {
		panic(err)
	}
	return abi
}

// Attempts to find the constructor definition. Boolean indicates success or failure.
func (self Abi) MaybeConstructor() (AbiConstructor, bool) {
	for _, entry := range self {
		if entry, ok := entry.(AbiConstructor); ok {
			return entry, true
		}
	}
	return AbiConstructor{}, false
}

// Returns all regular functions with the given name, in declared order.
func (self Abi) Functions(name string) []AbiFunction {
	var out []AbiFunction
	for _, entry := range self {
		if entry, ok := entry.(AbiFunction); ok && entry.IsRegular() && entry.Name == name {
			out = append(out, entry)
		}
	}
	return out
}

/*
Attempts to find a regular function by name. Boolean indicates success or
failure. Returns the first declared overload; use "Codec.ResolveFunction" to
choose among overloads by arguments.
*/
func (self Abi) MaybeFunction(name string) (AbiFunction, bool) {
	funcs := self.Functions(name)
	if len(funcs) == 0 {
		return AbiFunction{}, false
	}
	return funcs[0], true
}

// Finds the function by name. Panics if not found.
func (self Abi) Function(name string) AbiFunction {
	out, ok := self.MaybeFunction(name)
	if !ok {
		panic(fmt.Sprintf("function %v not found in ABI definition", name))
	}
	return out
}

// Attempts to find the "fallback" entry.
func (self Abi) Fallback() (AbiFunction, bool) { return self.special(AbiTypeFallback) }

// Attempts to find the "receive" entry.
func (self Abi) Receive() (AbiFunction, bool) { return self.special(AbiTypeReceive) }

func (self Abi) special(typ string) (AbiFunction, bool) {
	for _, entry := range self {
		if entry, ok := entry.(AbiFunction); ok && entry.Type == typ {
			return entry, true
		}
	}
	return AbiFunction{}, false
}

// Attempts to find the event by name. Boolean indicates success or failure.
func (self Abi) MaybeEvent(name string) (AbiEvent, bool) {
	for _, entry := range self {
		if entry, ok := entry.(AbiEvent); ok && entry.Name == name {
			return entry, true
		}
	}
	return AbiEvent{}, false
}

// Finds the event by name. Panics if not found.
func (self Abi) Event(name string) AbiEvent {
	out, ok := self.MaybeEvent(name)
	if !ok {
		panic(fmt.Sprintf("event %v not found in ABI definition", name))
	}
	return out
}

// Attempts to find a custom error by name. Boolean indicates success or failure.
func (self Abi) MaybeError(name string) (AbiError, bool) {
	for _, entry := range self {
		if entry, ok := entry.(AbiError); ok && entry.Name == name {
			return entry, true
		}
	}
	return AbiError{}, false
}

/*
Implements "json.Unmarshaler". Decodes a JSON ABI definition produced by a
Solidity compiler. Automatically selects the appropriate data structures for
each entry, based on its type.
*/
func (self *Abi) UnmarshalJSON(input []byte) error {
	var chunks []json.RawMessage

	err := json.Unmarshal(input, &chunks)
	if err != nil {
		return errors.WithStack(err)
	}

	out := make(Abi, 0, len(chunks))
	for i, chunk := range chunks {
		val, err := unmarshalAbiMethod(chunk)
		if err != nil {
			return errors.WithMessagef(err, `in ABI entry %v`, i)
		}
		out = append(out, val)
	}
	*self = out
	return nil
}

// Entry types of a JSON ABI definition.
const (
	AbiTypeFunction    = "function"
	AbiTypeConstructor = "constructor"
	AbiTypeFallback    = "fallback"
	AbiTypeReceive     = "receive"
	AbiTypeEvent       = "event"
	AbiTypeError       = "error"
)

func unmarshalAbiMethod(input []byte) (AbiMethod, error) {
	var tag struct{ Type string }

	err := json.Unmarshal(input, &tag)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var out AbiMethod
	switch tag.Type {
	case AbiTypeConstructor:
		var val AbiConstructor
		err = json.Unmarshal(input, &val)
		out = val
	case AbiTypeFunction, AbiTypeFallback, AbiTypeReceive, "":
		var val AbiFunction
		err = json.Unmarshal(input, &val)
		out = val
	case AbiTypeEvent:
		var val AbiEvent
		err = json.Unmarshal(input, &val)
		out = val
	case AbiTypeError:
		var val AbiError
		err = json.Unmarshal(input, &val)
		out = val
	default:
		return nil, errors.Errorf("unknown ABI type: %v", tag.Type)
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Represents a contract constructor.
type AbiConstructor struct {
	Type            string     `json:"type"` // "constructor"
	Inputs          []AbiParam `json:"inputs"`
	Payable         bool       `json:"payable,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
}

// True if the constructor accepts value.
func (self AbiConstructor) IsPayable() bool {
	return self.Payable || self.StateMutability == "payable"
}

/*
Represents a contract function, or the "fallback" or "receive" entry,
distinguished by "Type". Useful for ABI-encoding arguments and ABI-decoding
return values. Usually obtained via "Codec.ResolveFunction".

"Selector" is derived from the canonical signature when the entry is decoded
from JSON or built with "NewAbiFunction". The "fallback" and "receive" entries
have no selector.
*/
type AbiFunction struct {
	Type            string     `json:"type"`
	Name            string     `json:"name,omitempty"`
	Constant        bool       `json:"constant,omitempty"`
	Inputs          []AbiParam `json:"inputs"`
	Outputs         []AbiParam `json:"outputs"`
	Payable         bool       `json:"payable,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Selector        [4]byte    `json:"-"`
}

// Builds a regular function entry, computing its selector.
func NewAbiFunction(name string, inputs []AbiParam, outputs []AbiParam) AbiFunction {
	out := AbiFunction{Type: AbiTypeFunction, Name: name, Inputs: inputs, Outputs: outputs}
	out.Selector = FunctionSelector(out.Signature())
	return out
}

// True for regular functions, false for "fallback" and "receive".
func (self AbiFunction) IsRegular() bool {
	return self.Type == AbiTypeFunction || self.Type == ""
}

// True if the function accepts value.
func (self AbiFunction) IsPayable() bool {
	return self.Payable || self.StateMutability == "payable"
}

// Canonical signature such as "transfer(address,uint256)".
func (self AbiFunction) Signature() string {
	if !self.IsRegular() {
		return self.Type + "()"
	}
	return AbiSignature(self.Name, self.Inputs)
}

/*
Implements "json.Unmarshaler". In addition to parsing the JSON structure, this
precomputes the function's ".Selector", which is used when ABI-encoding
arguments for function calls.
*/
func (self *AbiFunction) UnmarshalJSON(input []byte) error {
	type plain AbiFunction
	var val plain

	err := json.Unmarshal(input, &val)
	if err != nil {
		return errors.WithStack(err)
	}

	*self = AbiFunction(val)
	self.Selector = [4]byte{}
	if self.IsRegular() {
		self.Selector = FunctionSelector(self.Signature())
	}
	return nil
}

/*
Represents a contract event. Useful for filtering and decoding event logs.
Usually obtained via "Abi.Event()". "Topic" is the Keccak256 hash of the
canonical signature, which non-anonymous events emit as the first log topic.
*/
type AbiEvent struct {
	Type      string     `json:"type"` // "event"
	Name      string     `json:"name"`
	Inputs    []AbiParam `json:"inputs"`
	Anonymous bool       `json:"anonymous"`
	Topic     Word       `json:"-"`
}

// Builds an event entry, computing its topic.
func NewAbiEvent(name string, inputs []AbiParam, anonymous bool) AbiEvent {
	out := AbiEvent{Type: AbiTypeEvent, Name: name, Inputs: inputs, Anonymous: anonymous}
	out.Topic = EventTopic(out.Signature())
	return out
}

// Canonical signature such as "Transfer(address,address,uint256)".
func (self AbiEvent) Signature() string {
	return AbiSignature(self.Name, self.Inputs)
}

// Indexed inputs in declared order.
func (self AbiEvent) IndexedInputs() []AbiParam {
	return filterParams(self.Inputs, true)
}

// Non-indexed inputs in declared order.
func (self AbiEvent) NonIndexedInputs() []AbiParam {
	return filterParams(self.Inputs, false)
}

/*
Implements "json.Unmarshaler". In addition to parsing the JSON structure, this
precomputes the event's ".Topic", which is used for filtering and decoding
logs.
*/
func (self *AbiEvent) UnmarshalJSON(input []byte) error {
	type plain AbiEvent
	var val plain

	err := json.Unmarshal(input, &val)
	if err != nil {
		return errors.WithStack(err)
	}

	*self = NewAbiEvent(val.Name, val.Inputs, val.Anonymous)
	return nil
}

/*
Represents a custom error declared by a contract. Reverts carrying such an
error start with its selector, followed by the ABI-encoded inputs.
*/
type AbiError struct {
	Type     string     `json:"type"` // "error"
	Name     string     `json:"name"`
	Inputs   []AbiParam `json:"inputs"`
	Selector [4]byte    `json:"-"`
}

// Canonical signature such as "InsufficientBalance(uint256,uint256)".
func (self AbiError) Signature() string {
	return AbiSignature(self.Name, self.Inputs)
}

// Implements "json.Unmarshaler". Also precomputes ".Selector".
func (self *AbiError) UnmarshalJSON(input []byte) error {
	type plain AbiError
	var val plain

	err := json.Unmarshal(input, &val)
	if err != nil {
		return errors.WithStack(err)
	}

	*self = AbiError(val)
	self.Selector = FunctionSelector(self.Signature())
	return nil
}

/*
Represents a function input or output, event input, or tuple component.
"AbiType" is parsed from "Type" and "Components" when decoding JSON; for values
built in code, use "NewAbiParam".
*/
type AbiParam struct {
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	InternalType string     `json:"internalType,omitempty"`
	Components   []AbiParam `json:"components,omitempty"` // tuple types only
	Indexed      bool       `json:"indexed,omitempty"`    // event inputs only
	AbiType      AbiType    `json:"-"`
}

/*
Builds a parameter from a type string. Tuples may be given in the collapsed
form, e.g. "(uint256,address)[]", in which case components are unnamed.
*/
func NewAbiParam(name string, typeName string) (AbiParam, error) {
	atype, err := ParseAbiType(typeName)
	if err != nil {
		return AbiParam{}, err
	}
	return AbiParam{Name: name, Type: typeName, AbiType: atype}, nil
}

// Version of "NewAbiParam" that panics on error.
func MustAbiParam(name string, typeName string) AbiParam {
	out, err := NewAbiParam(name, typeName)
	if err != nil {
		panic(err)
	}
	return out
}

// Implements "json.Unmarshaler".
func (self *AbiParam) UnmarshalJSON(input []byte) error {
	type plain AbiParam
	var val plain

	err := json.Unmarshal(input, &val)
	if err != nil {
		return errors.WithStack(err)
	}

	val.AbiType, err = ParseAbiParamType(val.Type, val.Components)
	if err != nil {
		return errors.WithMessagef(err, `in parameter %q`, val.Name)
	}

	*self = AbiParam(val)
	return nil
}

// Parsed types of the parameters, in order.
func AbiParamTypes(params []AbiParam) []AbiType {
	out := make([]AbiType, len(params))
	for i, param := range params {
		out[i] = param.AbiType
	}
	return out
}

/*
Builds the canonical signature "name(type1,type2,...)" from the parsed
parameter types, not the declared type strings, so that formatting differences
in the JSON never affect selectors or topics.
*/
func AbiSignature(name string, params []AbiParam) string {
	buf := make([]byte, 0, len(name)+2+len(params)*8)
	buf = append(buf, name...)
	buf = append(buf, '(')
	for i, param := range params {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = param.AbiType.AppendTo(buf)
	}
	buf = append(buf, ')')
	return bytesToMutableString(buf)
}

// First 4 bytes of the Keccak256 hash of the signature.
func FunctionSelector(signature string) [4]byte {
	hash := Keccak256(stringToBytesUnsafe(signature))
	return [4]byte{hash[0], hash[1], hash[2], hash[3]}
}

// Full Keccak256 hash of the signature.
func EventTopic(signature string) Word {
	return Word(Keccak256(stringToBytesUnsafe(signature)))
}

/*
Resolves the function (see "ResolveFunction") and ABI-encodes the call: the
4-byte selector followed by the encoded arguments. The "fallback" and "receive"
identifiers produce empty call data. The result should be used as a transaction
payload, i.e. "TxMsg.Data".
*/
func (self Codec) EncodeCall(abi Abi, name string, args []interface{}, kwargs map[string]interface{}) ([]byte, error) {
	fn, err := self.ResolveFunction(abi, name, args, kwargs)
	if err != nil {
		return nil, err
	}
	return self.EncodeFunctionCall(fn, args, kwargs)
}

// Same as "EncodeCall", but returns a "0x"-prefixed hex string.
func (self Codec) EncodeCallHex(abi Abi, name string, args []interface{}, kwargs map[string]interface{}) (string, error) {
	out, err := self.EncodeCall(abi, name, args, kwargs)
	if err != nil {
		return "", err
	}
	return HexString(out), nil
}

// ABI-encodes a call to an already chosen function.
func (self Codec) EncodeFunctionCall(fn AbiFunction, args []interface{}, kwargs map[string]interface{}) ([]byte, error) {
	if !fn.IsRegular() {
		if len(args)+len(kwargs) > 0 {
			return nil, errors.Wrapf(ErrTooManyArguments, `%v doesn't accept arguments`, fn.Signature())
		}
		return []byte{}, nil
	}

	out, err := self.encodeArgs(fn.Selector[:], fn.Inputs, args, kwargs)
	if err != nil {
		return nil, errors.WithMessagef(err, `failed to encode call to %v`, fn.Signature())
	}

	self.logger().Debug("encoded call",
		zap.String("signature", fn.Signature()),
		zap.Int("bytes", len(out)))
	return out, nil
}

/*
Same as "EncodeCall", but the encoded arguments follow the caller-supplied data
instead of the selector. Without arguments, the result is the data itself.
*/
func (self Codec) EncodeWithData(abi Abi, name string, data []byte, args []interface{}, kwargs map[string]interface{}) ([]byte, error) {
	fn, err := self.ResolveFunction(abi, name, args, kwargs)
	if err != nil {
		return nil, err
	}
	if !fn.IsRegular() {
		return append([]byte{}, data...), nil
	}
	return self.encodeArgs(data, fn.Inputs, args, kwargs)
}

/*
ABI-encodes a contract deployment: the code followed by the encoded constructor
arguments. An ABI without a constructor accepts no arguments.
*/
func (self Codec) EncodeConstructor(abi Abi, code []byte, args []interface{}, kwargs map[string]interface{}) ([]byte, error) {
	ctor, _ := abi.MaybeConstructor()
	out, err := self.encodeArgs(code, ctor.Inputs, args, kwargs)
	return out, errors.WithMessage(err, `failed to encode constructor arguments`)
}

func (self Codec) encodeArgs(prefix []byte, params []AbiParam, args []interface{}, kwargs map[string]interface{}) ([]byte, error) {
	aligned, err := AlignArgs(params, args, kwargs)
	if err != nil {
		return nil, err
	}

	body, err := self.EncodeValues(AbiParamTypes(params), aligned)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(prefix)+len(body))
	out = append(out, prefix...)
	return append(out, body...), nil
}

/*
ABI-decodes the return data of a call into a list of values, one per declared
output. See "Codec.DecodeValues" for the Go types of decoded values.
*/
func (self Codec) DecodeOutput(fn AbiFunction, data []byte) ([]interface{}, error) {
	out, err := self.DecodeValues(AbiParamTypes(fn.Outputs), data)
	return out, errors.WithMessagef(err, `failed to decode output of %v`, fn.Signature())
}

/*
Same as "DecodeOutput", but returns a structure keyed by the declared output
names, including nested tuple names. See "NamedTree".
*/
func (self Codec) DecodeOutputNamed(fn AbiFunction, data []byte) (map[string]interface{}, error) {
	values, err := self.DecodeOutput(fn, data)
	if err != nil {
		return nil, err
	}
	return NamedTree(fn.Outputs, values)
}

/*
Converts decoded values into a map keyed by parameter names. Tuples become
nested maps keyed by component names, arrays of tuples become lists of such
maps. Unnamed entries are keyed by their position, e.g. "0".
*/
func NamedTree(params []AbiParam, values []interface{}) (map[string]interface{}, error) {
	if len(params) != len(values) {
		return nil, errors.Wrapf(ErrLengthMismatch, `expected %v values, got %v`, len(params), len(values))
	}

	out := make(map[string]interface{}, len(params))
	for i, param := range params {
		val, err := namedSubtree(param.AbiType, values[i])
		if err != nil {
			return nil, err
		}
		out[entryName(param.Name, i)] = val
	}
	return out, nil
}

func namedSubtree(atype AbiType, value interface{}) (interface{}, error) {
	if !atype.hasTuple() {
		return value, nil
	}

	// Indexed tuples and arrays of tuples are only available as topic hashes.
	if word, ok := value.(Word); ok {
		return word, nil
	}

	elems, ok := value.([]interface{})
	if !ok {
		return nil, errors.Wrapf(ErrValidation, `%v expects a decoded sequence, got %T`, atype, value)
	}

	switch atype.Kind {
	case AbiKindTuple:
		if len(elems) != len(atype.Components) {
			return nil, errors.Wrapf(ErrLengthMismatch, `%v has %v components, got %v values`,
				atype, len(atype.Components), len(elems))
		}
		out := make(map[string]interface{}, len(elems))
		for i, comp := range atype.Components {
			val, err := namedSubtree(comp.Type, elems[i])
			if err != nil {
				return nil, err
			}
			out[entryName(comp.Name, i)] = val
		}
		return out, nil

	case AbiKindFixedArray, AbiKindArray:
		out := make([]interface{}, len(elems))
		for i, elem := range elems {
			val, err := namedSubtree(*atype.Elem, elem)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil

	default:
		return value, nil
	}
}

func entryName(name string, index int) string {
	if name == "" {
		return strconv.Itoa(index)
	}
	return name
}

func filterParams(params []AbiParam, indexed bool) []AbiParam {
	var out []AbiParam
	for _, param := range params {
		if param.Indexed == indexed {
			out = append(out, param)
		}
	}
	return out
}
