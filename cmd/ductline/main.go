// Command ductline builds 3D duct geometry from a script or a saved
// graph: it evaluates the input, runs a build, reports diagnostics, and
// optionally writes the tessellated meshes as JSON.
//
// Usage:
//
//	ductline -script layout.lisp -out meshes.json
//	ductline -graph project.json -strict
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hvackit/ductline/pkg/compliance"
	"github.com/hvackit/ductline/pkg/convert"
	"github.com/hvackit/ductline/pkg/graph"
	"github.com/hvackit/ductline/pkg/kernel"
	"github.com/hvackit/ductline/pkg/kernel/sdfx"
	"github.com/hvackit/ductline/pkg/script"
)

func main() {
	var (
		scriptPath = flag.String("script", "", "duct DSL script to evaluate")
		graphPath  = flag.String("graph", "", "serialized graph JSON to load")
		outPath    = flag.String("out", "", "write tessellated meshes as JSON to this file")
		meshCells  = flag.Int("mesh-cells", sdfx.DefaultMeshCells, "marching cubes resolution")
		strict     = flag.Bool("strict", false, "exit nonzero when the build produces diagnostics")
	)
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("ductline: ")

	if (*scriptPath == "") == (*graphPath == "") {
		log.Fatal("exactly one of -script or -graph is required")
	}

	g, err := loadGraph(*scriptPath, *graphPath)
	if err != nil {
		log.Fatal(err)
	}

	params := convert.DefaultBuildParams()
	params.EmitMeshes = *outPath != ""

	conv := convert.NewConverter(sdfx.New(*meshCells),
		compliance.NewRadiusValidator(compliance.DefaultRadiusTable()))
	res, err := conv.Build(context.Background(), g, params)
	if err != nil {
		log.Fatalf("build: %v", err)
	}

	log.Printf("built %d solids, %d fittings, %d diagnostics",
		len(res.Solids), len(res.Fittings), len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		if d.CodeReference != "" {
			log.Printf("%s: %s (%s)", d.Kind, d.Message, d.CodeReference)
		} else {
			log.Printf("%s: %s", d.Kind, d.Message)
		}
	}

	if *outPath != "" {
		if err := writeMeshes(*outPath, res); err != nil {
			log.Fatal(err)
		}
	}

	if *strict && len(res.Diagnostics) > 0 {
		os.Exit(1)
	}
}

// loadGraph evaluates a script or deserializes a saved graph.
func loadGraph(scriptPath, graphPath string) (*graph.DuctGraph, error) {
	if scriptPath != "" {
		src, err := os.ReadFile(scriptPath)
		if err != nil {
			return nil, err
		}
		g, evalErrs, err := script.NewEngine().Evaluate(string(src))
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", scriptPath, err)
		}
		if len(evalErrs) > 0 {
			for _, e := range evalErrs {
				log.Printf("%s: %s", scriptPath, e.Error())
			}
			return nil, fmt.Errorf("%s: %d script error(s)", scriptPath, len(evalErrs))
		}
		return g, nil
	}

	data, err := os.ReadFile(graphPath)
	if err != nil {
		return nil, err
	}
	g, err := graph.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", graphPath, err)
	}
	return g, nil
}

// meshFile is the JSON envelope written by -out.
type meshFile struct {
	Meshes []*kernel.Mesh `json:"meshes"`
}

func writeMeshes(path string, res *convert.BuildResult) error {
	out := meshFile{}
	for _, s := range res.Solids {
		if s.Mesh != nil {
			out.Meshes = append(out.Meshes, s.Mesh)
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
