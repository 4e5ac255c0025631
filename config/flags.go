package config

import (
	"flag"
	"io"

	"github.com/pkg/errors"
)

// DefaultPath configuration file used when -config is not set.
const DefaultPath = "config.yaml"

// Flags command line arguments.
type Flags struct {
	// ConfigPath path to the YAML configuration.
	ConfigPath string
	// PairID overrides the pair of the configuration, or selects one bot of a list.
	PairID string
	// Setup runs the configuration wizard before starting.
	Setup bool
}

// ParseFlags parses command line arguments. A positional argument is accepted as the pair.
func ParseFlags(name string, args []string, output io.Writer) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&f.ConfigPath, "config", DefaultPath, "path to yaml config")
	fs.StringVar(&f.PairID, "pair", "", "trade pair, example: btcuah")
	fs.BoolVar(&f.Setup, "setup", false, "run the configuration wizard")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		if f.PairID != "" && f.PairID != fs.Arg(0) {
			return Flags{}, errors.Errorf("pair given twice: -pair=%s and %s", f.PairID, fs.Arg(0))
		}
		f.PairID = fs.Arg(0)
	default:
		return Flags{}, errors.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	return f, nil
}

// Get parses the process arguments and loads the configuration they point to.
func Get(args []string, output io.Writer) (Flags, []Config, error) {
	f, err := ParseFlags("kuna-bot", args, output)
	if err != nil {
		return Flags{}, nil, err
	}

	if f.Setup {
		return f, nil, nil
	}

	configs, err := Load(f.ConfigPath, f.PairID)

	return f, configs, err
}
