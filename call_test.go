package ethabi

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Records requests and answers with a canned result, round-tripping through
// JSON like a real transport would.
type fakeCaller struct {
	result  interface{}
	err     error
	methods []string
	params  [][]interface{}
}

func (self *fakeCaller) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	self.methods = append(self.methods, method)
	self.params = append(self.params, params)
	if self.err != nil {
		return self.err
	}

	encoded, err := json.Marshal(self.result)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}

func TestCallFunction(t *testing.T) {
	output := hexWords(hexWord("3e8"))
	caller := &fakeCaller{result: HexBytes(output)}
	token := testBob

	values, err := StrictCodec.CallFunction(context.Background(), caller, TestAbi, TxMsg{To: token},
		"balanceOf", []interface{}{testAlice}, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"1000"}, plainValues(t, values))

	require.Equal(t, []string{"eth_call"}, caller.methods)
	msg := caller.params[0][0].(TxMsg)
	assert.Equal(t, token, msg.To)
	assert.Equal(t, "0x70a08231"+hexWord("5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), HexString(msg.Data))
	assert.Equal(t, BlockNumberLatest, caller.params[0][1])
}

func TestCallFunctionNormalizers(t *testing.T) {
	abi := MustParseAbiJson(`[{"type": "function", "name": "owner", "inputs": [], "outputs": [{"name": "", "type": "address"}]}]`)
	word := testAlice.Word()
	caller := &fakeCaller{result: HexBytes(word[:])}

	values, err := StrictCodec.CallFunction(context.Background(), caller, abi, TxMsg{To: testBob},
		"owner", nil, nil, NormalizeChecksumAddress)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, values)
}

func TestCallFunctionErrors(t *testing.T) {
	t.Run("resolution", func(t *testing.T) {
		caller := &fakeCaller{}
		_, err := StrictCodec.CallFunction(context.Background(), caller, TestAbi, TxMsg{To: testBob}, "missing", nil, nil)
		assert.True(t, errors.Is(err, ErrNoMatchingFunction), "%+v", err)
		assert.Empty(t, caller.methods)
	})

	t.Run("transport", func(t *testing.T) {
		failure := errors.New(`connection refused`)
		caller := &fakeCaller{err: failure}
		_, err := StrictCodec.CallFunction(context.Background(), caller, TestAbi, TxMsg{To: testBob},
			"balanceOf", []interface{}{testAlice}, nil)
		assert.True(t, errors.Is(err, failure), "%+v", err)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := StrictCodec.CallFunction(ctx, &fakeCaller{}, TestAbi, TxMsg{To: testBob},
			"balanceOf", []interface{}{testAlice}, nil)
		assert.True(t, errors.Is(err, context.Canceled), "%+v", err)
	})

	t.Run("malformed output", func(t *testing.T) {
		caller := &fakeCaller{result: HexBytes{1, 2, 3}}
		_, err := StrictCodec.CallFunction(context.Background(), caller, TestAbi, TxMsg{To: testBob},
			"balanceOf", []interface{}{testAlice}, nil)
		assert.True(t, errors.Is(err, ErrDecoding), "%+v", err)
	})
}

func TestGetEventLogs(t *testing.T) {
	event := TestAbi.Event("Deposit")
	entries := []LogEntry{
		depositEntry(t, testAlice, 5),
		{Topics: []Word{TestAbi.Event("Transfer").Topic, testAlice.Word(), testBob.Word()}, Data: hexWords(hexWord("1"))},
	}
	caller := &fakeCaller{result: entries}

	filter, err := StrictCodec.EventLogFilter(event, []Address{testBob}, testAlice)
	require.NoError(t, err)

	out, err := StrictCodec.GetEventLogs(context.Background(), caller, event, filter)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, map[string]interface{}{"addr": testAlice, "amount": "5"}, plainValues(t, out[0].Args))
	assert.Equal(t, HexUint64(12), out[0].BlockNumber)

	require.Equal(t, []string{"eth_getLogs"}, caller.methods)
	assert.Equal(t, filter, caller.params[0][0])
}

func TestPrepareTx(t *testing.T) {
	contract := testBob

	t.Run("fills recipient and data", func(t *testing.T) {
		msg, err := StrictCodec.PrepareTx(TestAbi, contract, "one", TxMsg{From: testAlice}, []interface{}{7}, nil)
		require.NoError(t, err)
		assert.Equal(t, testAlice, msg.From)
		assert.Equal(t, contract, msg.To)
		assert.Equal(t, HexString(sliceOf(TestAbi.Function("one").Selector))+hexWord("7"), HexString(msg.Data))
	})

	t.Run("value for payable function", func(t *testing.T) {
		msg := TxMsg{Value: (*HexInt)(big.NewInt(1))}
		out, err := StrictCodec.PrepareTx(TestAbi, contract, "two", msg, []interface{}{testAlice, []byte{}}, nil)
		require.NoError(t, err)
		assert.Equal(t, msg.Value, out.Value)
	})

	t.Run("value for non-payable function", func(t *testing.T) {
		msg := TxMsg{Value: (*HexInt)(big.NewInt(1))}
		_, err := StrictCodec.PrepareTx(TestAbi, contract, "one", msg, []interface{}{7}, nil)
		assert.True(t, errors.Is(err, ErrValidation), "%+v", err)

		msg.Value = (*HexInt)(big.NewInt(0))
		_, err = StrictCodec.PrepareTx(TestAbi, contract, "one", msg, []interface{}{7}, nil)
		require.NoError(t, err)
	})

	t.Run("preset data", func(t *testing.T) {
		_, err := StrictCodec.PrepareTx(TestAbi, contract, "one", TxMsg{Data: HexBytes{1}}, []interface{}{7}, nil)
		assert.True(t, errors.Is(err, ErrValidation), "%+v", err)
	})

	t.Run("other recipient", func(t *testing.T) {
		_, err := StrictCodec.PrepareTx(TestAbi, contract, "one", TxMsg{To: testAlice}, []interface{}{7}, nil)
		assert.True(t, errors.Is(err, ErrValidation), "%+v", err)

		_, err = StrictCodec.PrepareTx(TestAbi, contract, "one", TxMsg{To: contract}, []interface{}{7}, nil)
		require.NoError(t, err)
	})

	t.Run("receive", func(t *testing.T) {
		msg, err := StrictCodec.PrepareTx(TestAbi, contract, ReceiveFn, TxMsg{Value: (*HexInt)(big.NewInt(5))}, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, msg.Data)
	})
}

func TestDeploymentTxMsg(t *testing.T) {
	code := MustParseHexBytes("0x6080604052")
	value := (*HexInt)(big.NewInt(10))

	msg, err := StrictCodec.DeploymentTxMsg(TestAbi, code, testAlice, value, []interface{}{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, testAlice, msg.From)
	assert.Equal(t, ZeroAddress, msg.To)
	assert.Equal(t, value, msg.Value)
	assert.Equal(t, "0x6080604052"+hexWord("1"), HexString(msg.Data))

	_, err = StrictCodec.DeploymentTxMsg(TestAbi, code, ZeroAddress, nil, []interface{}{1}, nil)
	assert.True(t, errors.Is(err, ErrValidation), "%+v", err)

	_, err = StrictCodec.DeploymentTxMsg(TestAbi, nil, testAlice, nil, []interface{}{1}, nil)
	assert.True(t, errors.Is(err, ErrValidation), "%+v", err)

	_, err = StrictCodec.DeploymentTxMsg(AbiA, code, testAlice, value, nil, nil)
	assert.True(t, errors.Is(err, ErrValidation), "%+v", err)

	_, err = StrictCodec.DeploymentTxMsg(TestAbi, code, testAlice, nil, []interface{}{"many"}, nil)
	assert.True(t, errors.Is(err, ErrValidation), "%+v", err)
}
