// kbinconv converts arcade protocol payloads between KBin, XML and the
// object encodings.
//
//	kbinconv [flags] [file]
//
// The input is read from file, or stdin when no file is given, and is
// sniffed as KBin or XML. Encrypted or compressed request bodies are
// unwrapped with --eamuse-info and --compress first.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RobertWHurst/kbin"
	"github.com/RobertWHurst/kbin/encoders/cborencoder"
	"github.com/RobertWHurst/kbin/encoders/jsonencoder"
	"github.com/RobertWHurst/kbin/encoders/msgpackencoder"
	"github.com/RobertWHurst/kbin/encoders/protobufencoder"
	"github.com/RobertWHurst/kbin/transform"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := defaultConfig()

	var (
		configPath string
		eamuseInfo string
		verbose    bool
		flagCfg    config
	)
	flagSet := pflag.NewFlagSet("kbinconv", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&flagCfg.Format, "to", "t", cfg.Format, "output format: kbin, xml, json, msgpack, cbor or protobuf")
	flagSet.StringVarP(&flagCfg.Encoding, "encoding", "e", "", "output code page (default: the input's)")
	flagSet.BoolVar(&flagCfg.LiteralNames, "literal-names", false, "write KBin names as code page bytes instead of six-bit")
	flagSet.BoolVar(&flagCfg.Strict, "strict", false, "fail on unknown KBin types instead of returning a partial tree")
	flagSet.StringVar(&flagCfg.Compress, "compress", "", "X-Compress scheme of the input body (none, lz77)")
	flagSet.StringVar(&eamuseInfo, "eamuse-info", "", "X-Eamuse-Info public key the input body is encrypted with")
	flagSet.StringVarP(&configPath, "config", "c", "", "YAML file with defaults")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 1 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(1))
	}

	if configPath != "" {
		if err := loadConfig(configPath, &cfg); err != nil {
			return err
		}
	}
	applyFlags(flagSet, &cfg, flagCfg)

	logger := newLogger(verbose, stderr)
	defer logger.Sync()
	kbin.SetLogger(logger)

	input, name, err := readInput(flagSet.Arg(0), stdin)
	if err != nil {
		return err
	}
	logger.Info("input read", zap.String("source", name), zap.Int("size", len(input)))

	out, err := convert(input, transform.Framing{Info: eamuseInfo, Compress: cfg.Compress}, cfg)
	if err != nil {
		return err
	}
	logger.Info("output written", zap.String("format", cfg.Format), zap.Int("size", len(out)))

	_, err = stdout.Write(out)
	return err
}

// applyFlags copies every flag set on the command line over the config
// file values.
func applyFlags(flagSet *pflag.FlagSet, cfg *config, flagCfg config) {
	if flagSet.Changed("to") {
		cfg.Format = flagCfg.Format
	}
	if flagSet.Changed("encoding") {
		cfg.Encoding = flagCfg.Encoding
	}
	if flagSet.Changed("literal-names") {
		cfg.LiteralNames = flagCfg.LiteralNames
	}
	if flagSet.Changed("strict") {
		cfg.Strict = flagCfg.Strict
	}
	if flagSet.Changed("compress") {
		cfg.Compress = flagCfg.Compress
	}
}

func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(stderr), level)
	return zap.New(core)
}

func readInput(path string, stdin io.Reader) ([]byte, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		return data, "stdin", err
	}
	data, err := os.ReadFile(path)
	return data, path, err
}

// convert unwraps, decodes and re-encodes one payload.
func convert(input []byte, framing transform.Framing, cfg config) ([]byte, error) {
	body, err := transform.Unwrap(input, framing)
	if err != nil {
		return nil, err
	}

	doc, err := kbin.UnmarshalWith(body, kbin.DecodeOptions{Strict: cfg.Strict})
	if err != nil {
		return nil, err
	}

	enc := doc.Encoding
	if cfg.Encoding != "" {
		var ok bool
		if enc, ok = kbin.ParseEncoding(cfg.Encoding); !ok {
			return nil, fmt.Errorf("unknown encoding %q", cfg.Encoding)
		}
	}

	switch cfg.Format {
	case "kbin":
		return kbin.Encode(doc.Root, kbin.EncodeOptions{Encoding: enc, LiteralNames: cfg.LiteralNames})
	case "xml":
		return kbin.MarshalXML(doc.Root, kbin.XMLOptions{Encoding: enc, Header: true, Indent: "  "})
	}

	encoder, ok := objectEncoders[cfg.Format]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}
	return encoder.Encode(doc.Root)
}

var objectEncoders = map[string]kbin.Encoder{
	"json":     jsonencoder.New(),
	"msgpack":  msgpackencoder.New(),
	"cbor":     cborencoder.New(),
	"protobuf": protobufencoder.New(),
}
