// cmd/tools/normalize/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"charting-assistant/internal/handlers/chat"
	"charting-assistant/internal/normalizer"
	"charting-assistant/pkg/registry"
)

func main() {
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	// Run command flags
	mode := runCmd.String("mode", chat.ModeChart, "Mode whose schema is applied")
	runRegistry := runCmd.String("registry", "", "Optional mode registry file")
	input := runCmd.String("file", "", "Read raw upstream text from file instead of stdin")

	// Validate command flags
	validatePath := validateCmd.String("path", "configs/modes.json", "Path to registry file")

	// Export command flags
	exportPath := exportCmd.String("path", "configs/modes.json", "Where to write the built-in modes")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCmd.Parse(os.Args[2:])
		if err := runNormalize(*mode, *runRegistry, *input); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		n, err := validateRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d modes.\n", n)

	case "export":
		exportCmd.Parse(os.Args[2:])
		reg := &registry.ModeRegistry{Version: "1.0.0", Modes: chat.BuiltinModes()}
		if err := reg.Save(*exportPath); err != nil {
			fmt.Printf("Error exporting modes: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d modes to %s\n", len(reg.Modes), *exportPath)

	case "help":
		fallthrough
	default:
		help()
	}
}

func findMode(id, registryPath string) (registry.Mode, error) {
	modes := chat.BuiltinModes()
	if registryPath != "" {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return registry.Mode{}, fmt.Errorf("failed to load registry: %w", err)
		}
		modes = append(modes, reg.Modes...)
	}

	// Registry entries come last so they win over built-ins.
	var found *registry.Mode
	for i := range modes {
		if modes[i].ID == id {
			found = &modes[i]
		}
	}
	if found == nil {
		return registry.Mode{}, fmt.Errorf("unknown mode: %s", id)
	}
	return *found, nil
}

func runNormalize(modeID, registryPath, inputPath string) error {
	mode, err := findMode(modeID, registryPath)
	if err != nil {
		return err
	}
	n, err := normalizer.New(mode.Schema())
	if err != nil {
		return err
	}

	var raw []byte
	if inputPath != "" {
		raw, err = os.ReadFile(inputPath)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	result := n.Normalize(string(raw))
	out, err := json.MarshalIndent(map[string]interface{}{
		"mode":   mode.ID,
		"tier":   result.Tier,
		"record": result.Record,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func validateRegistry(path string) (int, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return 0, err
	}
	return len(reg.Modes), nil
}

func help() {
	fmt.Print(`
Usage: normalize <command> [flags]

Commands:
  run       Normalize raw upstream text (stdin or -file) for a mode
  validate  Validate a mode registry file
  export    Write the built-in modes as a registry file
  help      Show this help message

Examples:
  echo 'Resident calm. 💬 Feedback: add times.' | normalize run -mode chart
  normalize run -mode handoff -registry configs/modes.json -file reply.txt
  normalize validate -path configs/modes.json
  normalize export -path configs/modes.json

Use 'normalize <command> -h' for more information about a command.
`, "\n")
}
