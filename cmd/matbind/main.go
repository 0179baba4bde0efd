// matbind applies folders of textures to mesh objects as materials and
// exports the result as binary glTF.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/matbind/internal/config"
	"github.com/Faultbox/matbind/internal/logger"
)

func main() {
	config.ParseFlags()
	args := flag.Args()

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Debug("config loaded",
		zap.String("scene", cfg.Scene.Path),
		zap.String("textures", cfg.Textures.Root),
		zap.String("level", cfg.Logging.Level))

	app := newApp(cfg)

	var cmdErr error
	switch command {
	case "init":
		cmdErr = app.cmdInit(args)
	case "add":
		cmdErr = app.cmdAdd(args)
	case "folders", "ls":
		cmdErr = app.cmdFolders(args)
	case "scan":
		cmdErr = app.cmdScan(args)
	case "apply":
		cmdErr = app.cmdApply(args)
	case "apply-pair":
		cmdErr = app.cmdApplyPair(args)
	case "clear":
		cmdErr = app.cmdClear(args)
	case "materials", "mats":
		cmdErr = app.cmdMaterials(args)
	case "export":
		cmdErr = app.cmdExport(args)
	case "inspect":
		cmdErr = app.cmdInspect(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(cmdErr))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`matbind - texture folder to material binder

Usage:
  matbind [global options] <command> [options]

Global options:
  -config <file>     Config file (default ./matbind.yaml or the user config dir)
  -scene <file>      Scene file
  -textures <dir>    Texture root folder
  -log <file>        Also write logs to file
  -debug             Enable debug logging

Commands:
  init [-cube] [-force]                    Create an empty scene file
  add <cube|grid> <name> [options]         Add a mesh object to the scene
  folders                                  List texture folders under the root
  scan <folder>                            Show how a folder would be applied
  apply <folder> [objects...]              Apply a texture folder to objects
  apply-pair <multi|single> [objects...]   Apply a configured fixed folder, clearing all slots
  clear [objects...]                       Remove all materials from objects
  materials [-o text|yaml]                 List materials in the scene
  export [-o file] [-scope s] [objects...] Export objects as GLB
  inspect [objects...]                     Show objects, slots and face distribution

Objects default to every mesh object in the scene.

Examples:
  matbind init -cube
  matbind apply sofa Cube
  matbind apply-pair single
  matbind export -o out/sofa.glb Cube`)
}
