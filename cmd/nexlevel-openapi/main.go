// Package main writes the OpenAPI document for the NexLevel Speech API.
// It registers the shared route table with stub handlers, so no database or
// provider credentials are needed.
//
// Usage:
//
//	go run ./cmd/nexlevel-openapi > openapi.json
//	go run ./cmd/nexlevel-openapi -yaml > openapi.yaml
//	go run ./cmd/nexlevel-openapi -output openapi.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/routes"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/version"
)

func main() {
	outputFile := flag.String("output", "", "Output file path (default: stdout)")
	outputYAML := flag.Bool("yaml", false, "Output as YAML instead of JSON")
	baseURL := flag.String("base-url", "https://api.nexlevelspeech.com", "Base URL for the API server")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().Short())
		return
	}

	api := humachi.New(chi.NewRouter(), routes.NewHumaConfig(*baseURL))
	routes.Register(api, routes.StubHandlers())

	data, err := render(api.OpenAPI(), *outputYAML)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling OpenAPI spec: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing to file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "OpenAPI spec written to %s\n", *outputFile)
		return
	}
	fmt.Print(string(data))
}

// render encodes spec as indented JSON, or as YAML by re-decoding that JSON
// so field names and omissions match the JSON document.
func render(spec any, asYAML bool) ([]byte, error) {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil || !asYAML {
		return data, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return yaml.Marshal(&node)
}
