package ethabi

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Anything that can perform a JSON-RPC call against an Ethereum node. The result
must be decoded into "out", which is a pointer. Transports, retries and
subscriptions are the caller's concern; this package only formulates requests
and decodes their results.
*/
type Caller interface {
	Call(ctx context.Context, out interface{}, method string, params ...interface{}) error
}

/*
Strongly-typed version of the "eth_call" RPC method.

Invokes a "view" or "pure" contract function without creating a transaction.
The payload must already be ABI-encoded; see "Codec.CallFunction" for a version
that encodes and decodes.
*/
func EthCall(ctx context.Context, caller Caller, msg TxMsg, blockNumber BlockNumber) ([]byte, error) {
	var out HexBytes
	err := caller.Call(ctx, &out, "eth_call", msg, blockNumber)
	return out, errors.Wrap(err, `error in "eth_call"`)
}

// Same as "EthCall", but always uses the latest block number.
func EthCallLatest(ctx context.Context, caller Caller, msg TxMsg) ([]byte, error) {
	return EthCall(ctx, caller, msg, BlockNumberLatest)
}

// Strongly-typed version of the "eth_getLogs" RPC method.
func EthGetLogs(ctx context.Context, caller Caller, filter LogFilter) ([]LogEntry, error) {
	var out []LogEntry
	err := caller.Call(ctx, &out, "eth_getLogs", filter)
	return out, errors.Wrap(err, `error in "eth_getLogs"`)
}

/*
Calls a contract function via "eth_call" at the latest block: resolves the
function, encodes the arguments into "msg.Data", performs the call, and decodes
the return data. Normalizers, if any, are applied to the decoded values; see
"MapAbiData".
*/
func (self Codec) CallFunction(
	ctx context.Context, caller Caller, abi Abi, msg TxMsg,
	name string, args []interface{}, kwargs map[string]interface{},
	normalizers ...AbiNormalizer,
) ([]interface{}, error) {
	fn, err := self.ResolveFunction(abi, name, args, kwargs)
	if err != nil {
		return nil, err
	}

	msg, err = self.prepareTx(fn, msg.To, msg, args, kwargs)
	if err != nil {
		return nil, err
	}

	output, err := EthCallLatest(ctx, caller, msg)
	if err != nil {
		return nil, err
	}

	self.logger().Debug("contract call returned",
		zap.String("signature", fn.Signature()),
		zap.Stringer("to", msg.To),
		zap.Int("bytes", len(output)))

	values, err := self.DecodeOutput(fn, output)
	if err != nil {
		return nil, err
	}
	if len(normalizers) == 0 {
		return values, nil
	}
	return MapAbiData(ctx, AbiParamTypes(fn.Outputs), values, normalizers...)
}

/*
Fetches logs via "eth_getLogs" and decodes those emitted by the event. See
"Codec.DecodeLogs" and "Codec.EventLogFilter".
*/
func (self Codec) GetEventLogs(ctx context.Context, caller Caller, event AbiEvent, filter LogFilter) ([]EventData, error) {
	entries, err := EthGetLogs(ctx, caller, filter)
	if err != nil {
		return nil, err
	}
	return self.DecodeLogs(event, entries)
}

/*
Fills a transaction message for calling a contract function: sets "To" and the
encoded "Data". Fails with "ErrValidation" when the message already has data,
when it's addressed to a different contract, or when it sends value to a
function that isn't payable.
*/
func (self Codec) PrepareTx(abi Abi, to Address, name string, msg TxMsg, args []interface{}, kwargs map[string]interface{}) (TxMsg, error) {
	fn, err := self.ResolveFunction(abi, name, args, kwargs)
	if err != nil {
		return msg, err
	}
	return self.prepareTx(fn, to, msg, args, kwargs)
}

func (self Codec) prepareTx(fn AbiFunction, to Address, msg TxMsg, args []interface{}, kwargs map[string]interface{}) (TxMsg, error) {
	if len(msg.Data) > 0 {
		return msg, errors.Wrap(ErrValidation, `transaction message may not contain data, it's derived from the function call`)
	}
	if msg.To != ZeroAddress && msg.To != to {
		return msg, errors.Wrapf(ErrValidation, `transaction recipient %v doesn't match the contract address %v`, msg.To, to)
	}
	if msg.Value != nil && (*big.Int)(msg.Value).Sign() > 0 && !fn.IsPayable() {
		return msg, errors.Wrapf(ErrValidation, `sending a non-zero value to %v, which is not payable`, fn.Signature())
	}

	data, err := self.EncodeFunctionCall(fn, args, kwargs)
	if err != nil {
		return msg, err
	}

	msg.To = to
	msg.Data = data
	return msg, nil
}

/*
Formulates a TxMsg that will deploy a contract with the provided code and
constructor arguments. Fails with "ErrValidation" when the sender or the code is
missing, or when value is sent to a constructor that isn't payable.
*/
func (self Codec) DeploymentTxMsg(abi Abi, code []byte, sender Address, value *HexInt, args []interface{}, kwargs map[string]interface{}) (TxMsg, error) {
	if sender == ZeroAddress {
		return TxMsg{}, errors.Wrap(ErrValidation, `contract deployment requires a sender address`)
	}
	if len(code) == 0 {
		return TxMsg{}, errors.Wrap(ErrValidation, `contract deployment requires contract code`)
	}

	ctor, _ := abi.MaybeConstructor()
	if value != nil && (*big.Int)(value).Sign() > 0 && !ctor.IsPayable() {
		return TxMsg{}, errors.Wrap(ErrValidation, `sending a non-zero value to a constructor that is not payable`)
	}

	data, err := self.EncodeConstructor(abi, code, args, kwargs)
	if err != nil {
		return TxMsg{}, err
	}
	return TxMsg{From: sender, Data: data, Value: value}, nil
}
