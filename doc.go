/*
Contract ABI encoding, decoding and dispatch for Ethereum. Translates between
contract function and event definitions and the 32-byte-word encoding used by
the EVM, and selects which overload of a function a call invokes.

The package has no network or filesystem dependencies. Talking to a node is
left to the caller, see the "Caller" interface.

Features:

	* parsing of ABI type strings, including tuples and nested arrays

	* encoding and decoding of all ABI types, with the head/tail layout for
	  dynamic types

	* strict and lenient coercion of byte values

	* alignment of positional and keyword arguments, including nested tuples

	* overload resolution by name, arity, keywords and encodability

	* event log decoding and log filter construction

	* packed encoding, CREATE and CREATE2 addresses

	* optional CLI tool "eth_abi" for encoding and decoding from the shell, and
	  for outputting contract ABI definitions as Go code

Types

ABI types are parsed into "AbiType" values, a closed set of kinds:

	t, err := ethabi.ParseAbiType("(uint256,address[])[]")
	t.String()    // "(uint256,address[])[]"
	t.IsDynamic() // true

Parsing is cached, so there's no need to hold onto parsed types.

Codec

All encoding and decoding goes through a "Codec", which carries the strict or
lenient mode and an optional zap logger:

	codec := ethabi.Codec{Strict: true, Logger: logger}

In strict mode, "bytes", "bytesN" and "string" parameters accept only native Go
values, and "bytesN" requires exactly N bytes. In lenient mode, "bytes" and
"bytesN" also accept "0x"-prefixed hex strings. Since overload resolution
trial-encodes arguments, the same call may resolve differently in each mode.

Calls

Encoding a call resolves the overload, aligns arguments and prepends the
selector:

	data, err := codec.EncodeCall(MyContractAbi, "transfer",
		[]interface{}{recipient},
		map[string]interface{}{"amount": big.NewInt(100)})

Decoding return data:

	fn, err := codec.ResolveFunction(MyContractAbi, "balanceOf", args, nil)
	values, err := codec.DecodeOutput(fn, output)
	named, err := codec.DecodeOutputNamed(fn, output)

Or, given a "Caller" connected to a node:

	values, err := codec.CallFunction(ctx, caller, MyContractAbi,
		ethabi.TxMsg{To: contractAddress}, "balanceOf", args, nil)

Integers decode as *big.Int, addresses as Address, "bytes" and "bytesN" as
[]byte, arrays and tuples as []interface{}.

Events

	event := MyContractAbi.Event("Transfer")
	data, err := codec.DecodeLogEntry(event, entry)
	data.Args["value"]

Indexed "string", "bytes", arrays and tuples are stored in topics as hashes and
decode as the opaque Word. To filter logs by indexed parameters:

	filter, err := codec.EventLogFilter(event, []ethabi.Address{contract},
		nil, ethabi.AnyOf{alice, bob})

Errors

Every failure wraps one of the sentinel errors in "errors.go", such as
"ErrValueOutOfRange" or "ErrAmbiguousFunction". Test with "errors.Is".
*/
package ethabi
