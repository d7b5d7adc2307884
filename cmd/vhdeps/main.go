// =============================================================================
// vhdeps - VHDL Dependency Resolver
// =============================================================================
//
// THE PIPELINE:
//   1. Discovery walks inclusion directives into a candidate file set
//   2. The regex-level lexer extracts provided/required unit facts per file
//   3. The unit index groups providers by (library, kind, name)
//   4. The resolver walks references from the top units it finds
//   5. The orderer topologically sorts the resolved files into compile order
//   6. The style checker flags naming and file-shape violations
//
// WHEN INVESTIGATING UNEXPECTED OUTPUT:
//   Start at the beginning of the pipeline, not the end!
//   Discovery issues -> lexer issues -> resolution issues -> order issues
// =============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/hdl-tools/vhdeps/internal/config"
	"github.com/hdl-tools/vhdeps/internal/emit"
	"github.com/hdl-tools/vhdeps/internal/engine"
)

func main() {
	if len(os.Args) < 2 {
		runResolve(".", "")
		return
	}

	cmd := os.Args[1]

	switch cmd {
	case "init":
		runInit()
	case "-c", "--config":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		runResolve(os.Args[3], os.Args[2])
	case "--both":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runResolveBoth(os.Args[2], "")
	case "-h", "--help", "help":
		printUsage()
	default:
		runResolve(cmd, "")
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: vhdeps [command] [options] <path>

Commands:
  init              Create a vhdeps.json configuration file
  <path>            Resolve the compile order for VHDL files in the given path

Options:
  -c, --config      Specify config file: vhdeps -c config.json <path>
  --both            Resolve once for simulation and once for synthesis
  -h, --help        Show this help message

Configuration:
  vhdeps looks for configuration in:
    1. ./vhdeps.json
    2. ./.vhdeps.json
    3. <path>/vhdeps.json
    4. <path>/.vhdeps.json
    5. ~/.config/vhdeps/config.json

  Run 'vhdeps init' to create a default configuration file.`)
}

func runInit() {
	configPath := "vhdeps.json"

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Inclusion directives and their modes")
	fmt.Println("  - Top unit glob patterns")
	fmt.Println("  - Desired VHDL version and simulation/synthesis context")
}

func loadConfig(path, configPath string) *config.Config {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	// No config file was found (config.Load fell back to DefaultConfig,
	// which roots its single directive at "."): scan the path given on
	// the command line instead.
	if configPath == "" && len(cfg.Directives) == 1 && cfg.Directives[0].Path == "." {
		cfg.Directives[0].Path = path
	}
	return cfg
}

func runResolve(path, configPath string) {
	cfg := loadConfig(path, configPath)
	result, err := engine.Run(cfg)
	if err != nil {
		if runErr, ok := err.(*engine.Err); ok {
			for _, d := range runErr.Diagnostics {
				fmt.Fprintln(os.Stderr, d.Error())
			}
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, w.Error())
	}
	for _, line := range emit.Lines(result.Order) {
		fmt.Println(line)
	}
}

// runResolveBoth resolves the same tree twice, once per context, so a
// caller can check that it compiles both for simulation and for
// synthesis in a single invocation (SPEC_FULL.md §11's additive "both"
// context pass layered over the unchanged single-context core contract).
func runResolveBoth(path, configPath string) {
	cfg := loadConfig(path, configPath)

	contexts := []config.Context{config.Simulation, config.Synthesis}
	failed := false
	for _, ctx := range contexts {
		runCfg := *cfg
		runCfg.Context = ctx
		fmt.Printf("-- %s --\n", ctx)

		result, err := engine.Run(&runCfg)
		if err != nil {
			failed = true
			if runErr, ok := err.(*engine.Err); ok {
				for _, d := range runErr.Diagnostics {
					fmt.Fprintln(os.Stderr, d.Error())
				}
				continue
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		for _, w := range result.Warnings {
			fmt.Fprintln(os.Stderr, w.Error())
		}
		for _, line := range emit.Lines(result.Order) {
			fmt.Println(line)
		}
	}

	if failed {
		os.Exit(1)
	}
}
