package ethabi

import (
	"unsafe"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// "Magic" words understood by RPC methods that expect a block number.
const (
	BlockNumberEarliest = "earliest"
	BlockNumberLatest   = "latest"
	BlockNumberPending  = "pending"
)

// Zero-initialized arrays for equality comparisons.
var (
	ZeroAddress Address
	ZeroWord    Word
	ZeroHash    Hash
)

/*
Computes the "legacy" Keccak256 hash used by the EVM, which differs from the
standardized SHA3-256 in padding. Multiple chunks are hashed as if
concatenated.
*/
func Keccak256(chunks ...[]byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	for _, chunk := range chunks {
		hash.Write(chunk)
	}
	var out Hash
	hash.Sum(out[:0])
	return out
}

/*
Address of a contract deployed by a regular transaction: the last 20 bytes of
the hash of the RLP-encoded pair (sender, nonce).
*/
func CreateAddress(sender Address, nonce uint64) (Address, error) {
	encoded, err := rlp.EncodeToBytes([]interface{}{sender, nonce})
	if err != nil {
		return Address{}, errors.Wrap(err, `failed to RLP-encode contract creator`)
	}
	return hashToAddress(Keccak256(encoded)), nil
}

/*
Address of a contract deployed via the CREATE2 opcode:

	keccak256(0xff ++ sender ++ salt ++ keccak256(initCode))[12:]
*/
func Create2Address(sender Address, salt Word, initCode []byte) Address {
	codeHash := Keccak256(initCode)
	return hashToAddress(Keccak256([]byte{0xff}, sender[:], salt[:], codeHash[:]))
}

func hashToAddress(hash Hash) Address {
	var out Address
	copy(out[:], hash[len(hash)-len(out):])
	return out
}

/*
Reinterprets a byte slice as a string, saving an allocation.
Borrowed from the standard library. Reasonably safe.
*/
func bytesToMutableString(bytes []byte) string {
	return *(*string)(unsafe.Pointer(&bytes))
}

/*
Returns a byte slice backed by the provided string. Mutations are reflected in
the source string, unless it's backed by constant storage, in which case they
trigger a segfault. Should be safe as long as the bytes are treated as
read-only.
*/
func stringToBytesUnsafe(str string) []byte {
	return unsafe.Slice(unsafe.StringData(str), len(str))
}
