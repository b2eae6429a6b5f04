package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/purelabio/ethabi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testAbiJson = `[
	{"type": "function", "name": "balanceOf", "inputs": [{"name": "owner", "type": "address"}], "outputs": [{"name": "balance", "type": "uint256"}]},
	{"type": "event", "name": "Deposit", "inputs": [
		{"name": "addr", "type": "address", "indexed": true},
		{"name": "amount", "type": "uint256", "indexed": false}
	]}
]`

func writeTemp(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCanonicalSignature(t *testing.T) {
	sig, err := canonicalSignature("transfer(address, uint)")
	require.NoError(t, err)
	assert.Equal(t, "transfer(address,uint256)", sig)

	sig, err = canonicalSignature("f()")
	require.NoError(t, err)
	assert.Equal(t, "f()", sig)

	for _, input := range []string{"transfer", "(uint256)", "f(uint7)", "f(uint256"} {
		_, err := canonicalSignature(input)
		assert.True(t, errors.Is(err, ethabi.ErrGrammar), "%q: %+v", input, err)
	}
}

func TestLoadConfig(t *testing.T) {
	conf, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig, conf)

	path := writeTemp(t, "config.toml", "strict = true\nlog_level = \"debug\"\n")
	conf, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config{Strict: true, LogLevel: "debug", Solc: "solc"}, conf)

	path = writeTemp(t, "unknown.toml", "strictness = true\n")
	_, err = loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictness")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug")
	require.NoError(t, err)

	_, err = newLogger("loud")
	require.Error(t, err)
}

func TestSelectorCommand(t *testing.T) {
	out, err := run(t, "selector", "transfer(address,uint)")
	require.NoError(t, err)
	assert.Equal(t, "0xa9059cbb\ttransfer(address,uint256)\n", out)
}

func TestEncodeDecodeCommands(t *testing.T) {
	abiPath := writeTemp(t, "token.abi.json", testAbiJson)

	out, err := run(t, "encode", abiPath, "balanceOf", `["0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"]`)
	require.NoError(t, err)
	assert.Equal(t, "0x70a08231000000000000000000000000"+"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed\n", out)

	output := "0x00000000000000000000000000000000000000000000000000000000000003e8"
	out, err = run(t, "decode", abiPath, "balanceOf", output, "--named")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"balance\": 1000\n}\n", out)

	_, err = run(t, "encode", abiPath, "transfer", `[]`)
	assert.True(t, errors.Is(err, ethabi.ErrNoMatchingFunction), "%+v", err)

	_, err = run(t, "decode", abiPath, "transfer", output)
	assert.True(t, errors.Is(err, ethabi.ErrNoMatchingFunction), "%+v", err)
}

func TestDecodeLogCommand(t *testing.T) {
	abiPath := writeTemp(t, "token.abi.json", testAbiJson)
	abi := ethabi.MustParseAbiJson(testAbiJson)
	addr := ethabi.MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")

	out, err := run(t, "decode-log", abiPath, "Deposit",
		"--data", "0x0000000000000000000000000000000000000000000000000000000000000005",
		abi.Event("Deposit").Topic.String(), addr.Word().String())
	require.NoError(t, err)
	assert.JSONEq(t, `{"addr": "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "amount": 5}`, out)
}
