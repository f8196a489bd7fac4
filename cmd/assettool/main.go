// assettool is a CLI utility for importing and inspecting content assets.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/assetpipe/internal/config"
	"github.com/Faultbox/assetpipe/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import", "i":
		cmdImport(args)
	case "info":
		cmdInfo(args)
	case "pack":
		cmdPack(args)
	case "dump":
		cmdDump(args)
	case "primitive", "prim":
		cmdPrimitive(args)
	case "watch":
		cmdWatch(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`assettool - content pipeline asset utility

Usage:
  assettool <command> [options]

Commands:
  import [-dest dir] <files...>        Import glTF scenes and images as assets
  info [-icon out.png] <file.asset>    Show asset header and contents
  pack <file.asset> [output]           Write the engine-ready binary blob
  dump <file.asset>                    Dump the decoded asset structure
  primitive <plane|cube> <out.asset>   Generate a primitive mesh asset
  watch [dir]                          Report asset changes in a directory
  config [-save] [-o file]             Show or save the effective config

Shared options:
  -config <file>   Config file (default ./assetpipe.yaml)
  -content <dir>   Content directory
  -debug           Enable debug logging
  -log <file>      Log file path

Examples:
  assettool import -dest content models/rock.glb textures/rock.png
  assettool info -icon rock.png content/rock.asset
  assettool pack content/rock.asset rock.bin
  assettool primitive cube content/cube.asset`)
}

// newFlagSet creates a command flag set with the shared config flags.
func newFlagSet(name string) (*flag.FlagSet, *config.Flags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, config.RegisterFlags(fs)
}

// setup loads configuration and starts logging. The returned function
// flushes the logger.
func setup(flags *config.Flags) (*config.Config, func()) {
	cfg, err := config.Load(flags)
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal(fmt.Errorf("initializing logger: %w", err))
	}
	return cfg, logger.Sync
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
