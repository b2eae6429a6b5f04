package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"io/ioutil"
	"os"
	"os/exec"
	"sort"
	"strings"
	"text/template"

	"github.com/Mitranim/repr"
	"github.com/pkg/errors"
	"github.com/purelabio/ethabi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const pkgPath = "github.com/purelabio/ethabi"

var genFlags struct {
	out  string
	pkg  string
	self bool
}

var genCmd = &cobra.Command{
	Use:   "gen <specs ...>",
	Short: "Compile Solidity contracts and output their ABI definitions as Go code",
	Long: `Reads Solidity contracts as *.sol files and outputs ABI definitions as *.go
code. Requires a Solidity compiler; see https://solidity.readthedocs.io. The
compiler is "solc" by default, and can be overridden with the SOLC environment
variable or the "solc" config setting.

Specs must have the form "filePath:contractName". Examples:

	eth_abi gen -out=gen_contracts.go sol/Test.sol:Test
	eth_abi gen -out=gen_contracts.go sol/file0.sol:A sol/file0.sol:B sol/file1.sol:C

To use with "go generate", include a "go:generate" comment in your source code:

	//go:generate eth_abi gen -out gen_contracts.go sol/Test.sol:Test

The generated file contains ABI definitions and contract code in various
formats: Abi data structure, JSON ABI string, contract code as bytes, contract
code as hex-encoded string. The generated code doesn't contain any function
calls and has no impact on the program startup.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, specs []string) error {
		if genFlags.out == "" {
			return errors.New(`must specify "-out": output path for the generated Go file`)
		}

		defs, err := compileContracts(conf.Solc, specs)
		if err != nil {
			return err
		}

		source, err := generateSource(defs, genFlags.pkg, genFlags.self)
		if err != nil {
			return err
		}

		const readWriteMode = os.FileMode(0600)
		err = ioutil.WriteFile(genFlags.out, source, readWriteMode)
		if err != nil {
			return errors.Wrapf(err, "failed to write %q", genFlags.out)
		}

		logger.Info("generated contract definitions",
			zap.String("out", genFlags.out),
			zap.Int("contracts", len(defs)))
		return nil
	},
}

func init() {
	flags := genCmd.Flags()
	flags.StringVar(&genFlags.out, "out", "", "output path for the generated Go file (required)")
	flags.StringVar(&genFlags.pkg, "pkg", "main", "package name for the generated code")
	flags.BoolVar(&genFlags.self, "self", false, "generate without imports or package prefixes")
}

var codeTemplate = template.Must(template.New("").
	Funcs(template.FuncMap{
		"repr": func(val interface{}, self bool) string { return reprString(val, self) },
	}).
	Parse(`
{{$self := .Self}}
{{range .Defs}}

var {{.ContractName}}Abi = {{repr .Abi $self}}

const {{.ContractName}}AbiJson = ` + "`" + `{{.AbiJson}}` + "`" + `

var {{.ContractName}}Code = {{repr .Code $self}}

const {{.ContractName}}CodeHex = ` + "`" + `{{.Code.String}}` + "`" + `

{{end}}
`))

// Invokes solc and picks the specified contracts, validating their presence.
func compileContracts(solc string, specs []string) (map[string]ethabi.ContractDef, error) {
	filePaths := []string{}
	for _, spec := range specs {
		pair := strings.Split(spec, ":")
		if len(pair) < 2 {
			return nil, errors.Errorf(`contract specs must have the form "<filePath>:<contractName>", got %q`, spec)
		}
		filePaths = append(filePaths, pair[0])
	}

	solcArgs := append([]string{"--combined-json=abi,bin", "--optimize"}, filePaths...)
	cmd := exec.Command(solc, solcArgs...)

	var buf bytes.Buffer
	cmd.Stdin = os.Stdin
	cmd.Stdout = &buf
	cmd.Stderr = os.Stderr

	logger.Debug("invoking solc", zap.String("solc", solc), zap.Strings("args", solcArgs))

	err := cmd.Run()
	if err != nil {
		return nil, errors.Wrap(err, "failed to invoke solc")
	}

	defs, err := ethabi.ReadContractDefs(&buf)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to decode ABI output from solc")
	}
	return pickContracts(defs, specs)
}

func pickContracts(defs map[string]ethabi.ContractDef, specs []string) (map[string]ethabi.ContractDef, error) {
	out := map[string]ethabi.ContractDef{}
	for _, spec := range specs {
		def, ok := defs[spec]
		if !ok {
			return nil, errors.Errorf("contract %q is missing from the solc output; found contracts: %q",
				spec, sortedDefNames(defs))
		}
		out[spec] = def
	}
	return out, nil
}

func generateSource(defs map[string]ethabi.ContractDef, pkg string, self bool) ([]byte, error) {
	for key, def := range defs {
		pretty, err := prettyJson(def.AbiJson)
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to format ABI of %q`, key)
		}
		def.AbiJson = pretty
		defs[key] = def
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %v\n", pkg)
	if !self {
		fmt.Fprintf(&buf, "import %q\n", pkgPath)
	}

	err := codeTemplate.Execute(&buf, struct {
		Defs map[string]ethabi.ContractDef
		Self bool
	}{defs, self})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	source, err := format.Source(buf.Bytes())
	return source, errors.Wrap(err, `failed to format generated code`)
}

func sortedDefNames(defs map[string]ethabi.ContractDef) []string {
	var names []string
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func prettyJson(input string) (string, error) {
	var val interface{}
	err := json.Unmarshal([]byte(input), &val)
	if err != nil {
		return "", errors.WithStack(err)
	}
	pretty, err := json.MarshalIndent(val, "", "\t")
	return string(pretty), errors.WithStack(err)
}

func reprString(val interface{}, self bool) string {
	if self {
		return repr.StringC(val, repr.Config{
			PackageMap: map[string]string{pkgPath: ""},
		})
	}
	return repr.String(val)
}
