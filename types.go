package ethabi

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

var null = []byte{'n', 'u', 'l', 'l'}

// Version of "[]byte" that uses "0x"-prefixed hex encoding and decoding.
type HexBytes []byte

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x".
*/
func ParseHexBytes(input string) (HexBytes, error) {
	var out HexBytes
	err := out.UnmarshalText(stringToBytesUnsafe(input))
	return out, err
}

// Version of "ParseHexBytes" that panics on error. Convenient for initializing
// global variables.
func MustParseHexBytes(input string) HexBytes {
	out, err := ParseHexBytes(input)
	if err != nil {
		panic(err)
	}
	return out
}

// Implements "encoding.TextMarshaler". Uses hex encoding prefixed with "0x".
func (self HexBytes) MarshalText() ([]byte, error) {
	return HexEncode([]byte(self)), nil
}

// Implements "encoding.TextUnmarshaler". Empty input is ok. Otherwise, it must
// be prefixed with "0x".
func (self *HexBytes) UnmarshalText(input []byte) error {
	out, err := HexDecode(input)
	if err != nil {
		return err
	}
	*self = HexBytes(out)
	return nil
}

/*
Implements "json.Marshaler". A zero-length value encodes as "null". Otherwise,
it encodes as a hex string, prefixed with "0x".
*/
func (self HexBytes) MarshalJSON() ([]byte, error) {
	if len(self) == 0 {
		return null, nil
	}
	return hexEncodeQuoted(self), nil
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self HexBytes) String() string {
	return bytesToMutableString(HexEncode([]byte(self)))
}

// Version of `big.Int` that encodes/decodes in base 16 with the "0x" prefix.
type HexInt big.Int

// Implements "encoding.TextMarshaler". Uses hex encoding prefixed with "0x".
func (self *HexInt) MarshalText() ([]byte, error) {
	out := make([]byte, 0, 16)
	out = append(out, '0', 'x')
	return (*big.Int)(self).Append(out, 16), nil
}

// Implements "encoding.TextUnmarshaler". The input must be in base 16,
// prefixed with "0x".
func (self *HexInt) UnmarshalText(input []byte) error {
	input, err := hexDigits(input)
	if err != nil {
		return err
	}

	_, ok := (*big.Int)(self).SetString(bytesToMutableString(input), 16)
	if !ok {
		return errors.Errorf("failed to decode %q as a hex integer", input)
	}
	return nil
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self *HexInt) String() string {
	bytes, _ := self.MarshalText()
	return bytesToMutableString(bytes)
}

// Version of `uint64` that encodes/decodes in base 16 with the "0x" prefix.
type HexUint64 uint64

// Implements "encoding.TextMarshaler". Uses hex encoding prefixed with "0x".
func (self HexUint64) MarshalText() ([]byte, error) {
	out := make([]byte, 0, 16)
	out = append(out, '0', 'x')
	return strconv.AppendUint(out, uint64(self), 16), nil
}

// Implements "encoding.TextUnmarshaler". The input must be in base 16,
// prefixed with "0x".
func (self *HexUint64) UnmarshalText(input []byte) error {
	input, err := hexDigits(input)
	if err != nil {
		return err
	}
	out, err := strconv.ParseUint(bytesToMutableString(input), 16, 64)
	*self = HexUint64(out)
	return errors.WithStack(err)
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self HexUint64) String() string {
	bytes, _ := self.MarshalText()
	return bytesToMutableString(bytes)
}

/*
Compact representation of an Ethereum address. Text encoding uses lowercase hex
with the mandatory "0x" prefix; use "Checksum" for the mixed-case EIP-55 form.

A zero-initialized Address{} JSON-encodes as "null" and text-encodes as "".
*/
type Address [20]byte

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x". Case is ignored; see "ParseChecksumAddress" for a version
that validates mixed-case input.
*/
func ParseAddress(input string) (Address, error) {
	var out Address
	err := out.UnmarshalText(stringToBytesUnsafe(input))
	return out, err
}

// Version of "ParseAddress" that panics on error. Convenient for initializing
// global variables.
func MustParseAddress(input string) Address {
	out, err := ParseAddress(input)
	if err != nil {
		panic(err)
	}
	return out
}

/*
Decodes a "0x"-prefixed address of exactly 40 hex digits. Input in a single case
is accepted as-is. Mixed-case input must be a valid EIP-55 checksum. Failures
wrap "ErrValidation".
*/
func ParseChecksumAddress(input string) (Address, error) {
	var out Address

	if len(input) != HexEncodedLen(len(out)) || input[0] != '0' || input[1] != 'x' {
		return out, errors.Wrapf(ErrValidation, `%q is not a 0x-prefixed 20-byte hex address`, input)
	}

	_, err := hex.Decode(out[:], stringToBytesUnsafe(input[2:]))
	if err != nil {
		return out, errors.Wrapf(ErrValidation, `%q is not a 0x-prefixed 20-byte hex address: %v`, input, err)
	}

	if isMixedCase(input[2:]) && out.Checksum() != input {
		return out, errors.Wrapf(ErrValidation, `%q has an invalid checksum, expected %v`, input, out.Checksum())
	}
	return out, nil
}

/*
Returns the EIP-55 mixed-case encoding: a hex digit is uppercased when the
corresponding nibble of the Keccak256 hash of the lowercase hex is 8 or above.
*/
func (self Address) Checksum() string {
	buf := HexEncode(self[:])
	digits := buf[2:]
	hash := Keccak256(digits)

	for i, char := range digits {
		if char < 'a' || char > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			digits[i] = char - ('a' - 'A')
		}
	}
	return bytesToMutableString(buf)
}

// Implements "encoding.TextMarshaler". A zero-initialized value encodes as "",
// otherwise uses hex encoding prefixed with "0x".
func (self Address) MarshalText() ([]byte, error) {
	if self == ZeroAddress {
		return nil, nil
	}
	return HexEncode(self[:]), nil
}

// Implements "encoding.TextUnmarshaler". Empty input is ok. Otherwise, it must
// be prefixed with "0x".
func (self *Address) UnmarshalText(input []byte) error {
	if len(input) == 0 {
		*self = Address{}
		return nil
	}
	return HexDecodeTo(self[:], input)
}

// Implements "json.Marshaler". A zero-initialized value encodes as "null".
func (self Address) MarshalJSON() ([]byte, error) {
	if self == ZeroAddress {
		return null, nil
	}
	return hexEncodeQuoted(self[:]), nil
}

/*
Implements "fmt.Stringer". Uses lowercase hex encoding prefixed with "0x".
Unlike "MarshalText" and "MarshalJSON", doesn't have special rules for
zero-initialized values.
*/
func (self Address) String() string {
	return bytesToMutableString(HexEncode(self[:]))
}

// Converts into a Word for event log filtering, zero-padded on the left.
func (self Address) Word() Word {
	var out Word
	copy(out[len(out)-len(self):], self[:])
	return out
}

/*
A Word represents the standard memory granularity of the EVM: 32 bytes of
arbitrary content. All ABI-encoded values are padded to a multiple of this
size. Event topics are exactly one Word.

Uses the 0x-prefixed hex notation for encoding and decoding. An empty Word{}
will text-encode as "" and JSON-encode as `null`.
*/
type Word [32]byte

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x" and contain exactly 64 hex digits.
*/
func ParseWord(input string) (Word, error) {
	var out Word
	err := out.UnmarshalText(stringToBytesUnsafe(input))
	return out, err
}

// Version of "ParseWord" that panics on error. Convenient for initializing
// global variables.
func MustParseWord(input string) Word {
	out, err := ParseWord(input)
	if err != nil {
		panic(err)
	}
	return out
}

// Implements "encoding.TextMarshaler". A zero-initialized value encodes as "",
// otherwise uses hex encoding prefixed with "0x".
func (self Word) MarshalText() ([]byte, error) {
	if self == ZeroWord {
		return nil, nil
	}
	return HexEncode(self[:]), nil
}

// Implements "encoding.TextUnmarshaler". Empty input is ok. Otherwise, it must
// be prefixed with "0x".
func (self *Word) UnmarshalText(input []byte) error {
	if len(input) == 0 {
		*self = Word{}
		return nil
	}
	return HexDecodeTo(self[:], input)
}

// Implements "json.Marshaler". A zero-initialized value encodes as "null".
func (self Word) MarshalJSON() ([]byte, error) {
	if self == ZeroWord {
		return null, nil
	}
	return hexEncodeQuoted(self[:]), nil
}

// Implements "fmt.Stringer". Doesn't have special rules for zero-initialized
// values.
func (self Word) String() string {
	return bytesToMutableString(HexEncode(self[:]))
}

/*
Usually represents a block or transaction hash, or a Keccak256 digest.

Shares structure and encoding with Word, but a Word is not assumed to be a
hash.
*/
type Hash [32]byte

// Same as "ParseWord", but for hashes.
func ParseHash(input string) (Hash, error) {
	hash, err := ParseWord(input)
	return Hash(hash), err
}

func (self Hash) MarshalText() ([]byte, error)       { return Word(self).MarshalText() }
func (self *Hash) UnmarshalText(input []byte) error { return (*Word)(self).UnmarshalText(input) }
func (self Hash) MarshalJSON() ([]byte, error)       { return Word(self).MarshalJSON() }
func (self Hash) String() string                     { return Word(self).String() }

/*
Represents the input for an Ethereum transaction, or the input to a
non-mutating contract call. See "Codec.PrepareTx" for filling it from an ABI
definition.
*/
type TxMsg struct {
	From     Address  `json:"from"`
	To       Address  `json:"to"`
	Data     HexBytes `json:"data"`
	Value    *HexInt  `json:"value"`
	GasPrice *HexInt  `json:"gasPrice"`
	GasLimit *HexInt  `json:"gas"`
}

/*
A log entry, typically obtained via "eth_getLogs" and decoded with
"Codec.DecodeLogEntry".

Original definition in "go-ethereum":
https://github.com/ethereum/go-ethereum/blob/0ae462fb80b8a95e38af08d894ea9ecf9e45f2e7/core/types/log.go#L31
*/
type LogEntry struct {
	Address          Address   `json:"address"`
	Topics           []Word    `json:"topics"`
	Data             HexBytes  `json:"data"`
	BlockHash        Hash      `json:"blockHash"`
	BlockNumber      HexUint64 `json:"blockNumber"`
	TransactionHash  Hash      `json:"transactionHash"`
	TransactionIndex HexUint64 `json:"transactionIndex"`
	LogIndex         HexUint64 `json:"logIndex"`
	Removed          bool      `json:"removed"`
}

/*
Stand-in for anything representing a block number: a regular number, a
hex-encoded number, or one of the "BlockNumberX" constants.
*/
type BlockNumber interface{}

/*
Filter for "eth_getLogs". Usually built with "Codec.EventLogFilter".

"Topics" represent indexed event parameters. Each position is either nil,
which matches anything, or a list of alternatives. For a static parameter, a
topic is its ABI-encoded word. For "string" and "bytes", it's the Keccak256
hash of the raw content.
*/
type LogFilter struct {
	FromBlock BlockNumber `json:"fromBlock,omitempty"`
	ToBlock   BlockNumber `json:"toBlock,omitempty"`
	Address   []Address   `json:"address,omitempty"`
	Topics    [][]Word    `json:"topics"`
}

func isMixedCase(input string) bool {
	var lower, upper bool
	for i := 0; i < len(input); i++ {
		char := input[i]
		lower = lower || (char >= 'a' && char <= 'f')
		upper = upper || (char >= 'A' && char <= 'F')
	}
	return lower && upper
}
