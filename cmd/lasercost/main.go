package main

import (
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/arturave/lasercost/internal/facade"
	"github.com/arturave/lasercost/internal/geometry"
	"github.com/arturave/lasercost/internal/models"
	"github.com/arturave/lasercost/internal/statscache"
)

// runBundle is the on-disk JSON shape read by the CLI: a NestingResult, a
// RateBook, the applicable JobOverrides and the MachineProfile to plan
// against, all in one file. Drawings is optional: any part whose
// ToolpathStats is absent from NestingResult is extracted from the matching
// drawing here (keyed by drawing id) instead of failing with StatsMissing.
type runBundle struct {
	NestingResult  models.NestingResult        `json:"nesting_result"`
	RateBook       models.RateBook             `json:"rate_book"`
	JobOverrides   models.JobOverrides         `json:"job_overrides"`
	MachineProfile models.MachineProfile       `json:"machine_profile"`
	Drawings       map[string]geometry.Drawing `json:"drawings,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "path to a JSON run bundle (nesting_result, rate_book, job_overrides, machine_profile)")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("usage: lasercost -input <bundle.json>")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *inputPath, err)
	}

	var bundle runBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		log.Fatalf("failed to parse run bundle: %v", err)
	}

	f := facade.NewFacade(statscache.NewMemoryCache(), logger)
	if len(bundle.Drawings) > 0 {
		f = f.WithDrawingSource(facade.MapDrawingSource(bundle.Drawings))
	}
	summary, err := f.ComputeCost(bundle.NestingResult, bundle.MachineProfile, bundle.RateBook, bundle.JobOverrides)
	if err != nil {
		log.Fatalf("costing run failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		log.Fatalf("failed to encode cost summary: %v", err)
	}
}
