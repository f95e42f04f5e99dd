// Command schema emits the JSON schema of the snapshot payload served by the
// simulation service, for validating captured wire traffic and fixtures.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"fire-rescue/viewer/internal/proto"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "write the schema to this path instead of stdout")
	flag.Parse()

	if err := run(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "schema: %v\n", err)
		os.Exit(1)
	}
}

func run(outPath string) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(proto.SimulationSnapshot))
	schema.Title = "Fire Rescue Simulation Snapshot"
	schema.Description = "Full-state payload returned by the REST endpoints and carried in simulation_update events"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')

	if outPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
