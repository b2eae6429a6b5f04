package ethabi

import "github.com/pkg/errors"

/*
Sentinel errors. Encoding, decoding and resolution failures wrap one of these,
with additional context, via "errors.Wrapf". Hex and JSON parsing of primitive
types returns plain errors. Test for them with "errors.Is":

	_, err := codec.EncodeCall(abi, "transfer", args, nil)
	if errors.Is(err, ethabi.ErrValueOutOfRange) {
		...
	}

None of these are retryable: they indicate either a programming error at the
call site or malformed data.
*/
var (
	// Malformed ABI type string.
	ErrGrammar = errors.New(`malformed ABI type`)

	// Value doesn't match the parameter type, or isn't accepted in strict mode.
	ErrValidation = errors.New(`invalid value`)

	// Integer or byte length outside the bounds of the parameter type.
	ErrValueOutOfRange = errors.New(`value out of range`)

	// Malformed or truncated ABI-encoded data.
	ErrDecoding = errors.New(`malformed ABI data`)

	ErrTooManyArguments   = errors.New(`too many arguments`)
	ErrDuplicateArgument  = errors.New(`duplicate argument`)
	ErrUnknownArgument    = errors.New(`unknown argument`)
	ErrLengthMismatch     = errors.New(`length mismatch`)
	ErrNoMatchingFunction = errors.New(`no matching function`)
	ErrAmbiguousFunction  = errors.New(`ambiguous function`)

	// Topic 0 of a log entry doesn't match the event signature.
	ErrTopicMismatch = errors.New(`topic mismatch`)
)
