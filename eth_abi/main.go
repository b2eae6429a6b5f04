/*
A CLI tool for working with contract ABIs from the shell: encodes function
calls, decodes return data and event logs, computes selectors, and outputs ABI
definitions of Solidity contracts as Go code.

Installation:

	go get -u github.com/purelabio/ethabi/eth_abi

Example usage:

	eth_abi -help
	eth_abi selector 'transfer(address,uint256)'
	eth_abi encode Token.abi.json transfer '["0x...", 100]'
	eth_abi encode Token.abi.json transfer --kwargs '{"amount": 100}' '["0x..."]'
	eth_abi decode Token.abi.json balanceOf 0x0000...0064
	eth_abi decode-log Token.abi.json Transfer --data 0x... 0xddf2... 0x... 0x...
	eth_abi gen -out gen_contracts.go sol/Test.sol:Test

Arguments are given as JSON. Integers may be arbitrarily large. Addresses and
hex-encoded bytes are given as strings.

Settings may be provided in a TOML file via "-config":

	strict    = true
	log_level = "debug"
	solc      = "/usr/local/bin/solc"

Flags take priority over the config file.
*/
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/purelabio/ethabi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type config struct {
	Strict   bool   `toml:"strict"`
	LogLevel string `toml:"log_level"`
	Solc     string `toml:"solc"`
}

var defaultConfig = config{
	LogLevel: "warn",
	Solc:     "solc",
}

var (
	flagConfig   string
	flagStrict   bool
	flagLogLevel string

	conf   = defaultConfig
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "eth_abi",
	Short:         "Encode and decode Ethereum contract ABI data",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		conf, err = loadConfig(flagConfig)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("strict") {
			conf.Strict = flagStrict
		}
		if flags.Changed("log-level") {
			conf.LogLevel = flagLogLevel
		}
		if os.Getenv("SOLC") != "" {
			conf.Solc = os.Getenv("SOLC")
		}

		logger, err = newLogger(conf.LogLevel)
		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "path to a TOML config file")
	flags.BoolVar(&flagStrict, "strict", false, "reject hex strings for bytes and bytesN parameters")
	flags.StringVar(&flagLogLevel, "log-level", defaultConfig.LogLevel, "log level: debug, info, warn or error")

	rootCmd.AddCommand(selectorCmd, encodeCmd, decodeCmd, decodeLogCmd, genCmd)
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config, error) {
	out := defaultConfig
	if path == "" {
		return out, nil
	}

	meta, err := toml.DecodeFile(path, &out)
	if err != nil {
		return out, errors.Wrapf(err, `failed to read config %q`, path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return out, errors.Errorf(`unknown keys in config %q: %q`, path, undecoded)
	}
	return out, nil
}

// Logs to stderr, keeping stdout for results.
func newLogger(levelName string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, errors.Wrapf(err, `invalid log level %q`, levelName)
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

func codec() ethabi.Codec {
	return ethabi.Codec{Strict: conf.Strict, Logger: logger}
}
