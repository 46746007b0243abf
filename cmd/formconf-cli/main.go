// Command formconf-cli builds the configuration for a form-model document
// and reports validation and dependency results for a values snapshot.
//
//	formconf-cli -source form.yaml -values values.json -flags beta,extended
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-logr/logr/funcr"

	"github.com/goliatone/go-formconf/pkg/dependency"
	"github.com/goliatone/go-formconf/pkg/engine"
	"github.com/goliatone/go-formconf/pkg/modelfile"
)

type report struct {
	Name        string                           `json:"name,omitempty"`
	Fields      []fieldReport                    `json:"fields"`
	Errors      map[string][]string              `json:"errors,omitempty"`
	Resolutions map[string]dependency.Resolution `json:"resolutions,omitempty"`
}

type fieldReport struct {
	Path  string `json:"path"`
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

func main() {
	source := flag.String("source", "form.yaml", "form-model document path or URL")
	valuesPath := flag.String("values", "", "JSON file with a path-keyed values snapshot")
	flagList := flag.String("flags", "", "comma-separated feature flags to enable")
	output := flag.String("output", "", "output file (stdout if empty)")
	verbose := flag.Bool("v", false, "log engine warnings to stderr")
	flag.Parse()

	ctx := context.Background()

	loader := modelfile.New(modelfile.WithHTTPClient(http.DefaultClient))
	form, err := loader.Load(ctx, parseSource(*source))
	if err != nil {
		log.Fatalf("Failed to load form model: %v", err)
	}

	opts := []engine.Option{}
	if *verbose {
		opts = append(opts, engine.WithLogger(funcr.New(func(prefix, args string) {
			fmt.Fprintln(os.Stderr, prefix, args)
		}, funcr.Options{})))
	}
	eng := engine.New(opts...)
	cfg := eng.Build(form, parseFlags(*flagList))

	out := report{Name: form.Name}
	for _, field := range cfg.Fields {
		out.Fields = append(out.Fields, fieldReport{
			Path:  field.Path,
			Type:  string(field.Type),
			Label: field.Label,
		})
	}

	if *valuesPath != "" {
		values, err := readValues(*valuesPath)
		if err != nil {
			log.Fatalf("Failed to read values: %v", err)
		}
		if out.Errors, err = eng.ValidateAll(values); err != nil {
			log.Fatalf("Failed to validate: %v", err)
		}
		if out.Resolutions, err = eng.ResolveAll(values); err != nil {
			log.Fatalf("Failed to resolve dependencies: %v", err)
		}
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, payload, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Report written to %s\n", *output)
	} else {
		fmt.Println(string(payload))
	}
}

func parseSource(raw string) modelfile.Source {
	path := strings.TrimSpace(raw)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return modelfile.SourceFromURL(path)
	}
	return modelfile.SourceFromFile(path)
}

func parseFlags(raw string) map[string]bool {
	flags := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			flags[name] = true
		}
	}
	return flags
}

func readValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}
