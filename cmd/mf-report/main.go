package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"MedFlowScope/internal/config"
	"MedFlowScope/internal/export"
	"MedFlowScope/internal/metrics"
	"MedFlowScope/internal/model"
	"MedFlowScope/internal/registry"
	"MedFlowScope/internal/safety"
	"MedFlowScope/internal/source"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	log.Println("Starting mf-report...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reg, err := registry.New(cfg.Registry)
	if err != nil {
		log.Fatalf("Failed to build device registry: %v", err)
	}
	log.Printf("Device registry loaded with %d devices.", reg.Size())

	src, err := source.New(cfg.Source)
	if err != nil {
		log.Fatalf("Failed to create record source: %v", err)
	}

	recs, err := src.Collect(context.Background())
	if err != nil {
		log.Fatalf("Failed to collect flow records: %v", err)
	}
	log.Printf("Collected %d raw flow records.", len(recs))

	ms, err := metrics.DeriveAll(recs, reg)
	if err != nil {
		log.Fatalf("Failed to derive metrics: %v", err)
	}
	log.Printf("Derived metrics for %d recognized flows.", len(ms))

	report := safety.Assess(ms, reg, safety.ThresholdsFromConfig(cfg.Safety))

	// Persist first. A write failure is logged and remembered, but the
	// console report is still rendered before exiting non-zero.
	exportErr := writeAll(cfg, ms)

	fmt.Println(export.RenderConsoleReport(ms, report))

	if exportErr != nil {
		os.Exit(1)
	}
}

func writeAll(cfg *config.Config, ms []*model.DeviceMetrics) error {
	writers := []model.MetricsWriter{export.NewCSVWriter(cfg.Export.CSV.Path)}

	var firstErr error
	if cfg.Export.ClickHouse.Enabled {
		chw, err := export.NewClickHouseWriter(cfg.Export.ClickHouse)
		if err != nil {
			log.Printf("ERROR: ClickHouse writer unavailable: %v", err)
			firstErr = err
		} else {
			writers = append(writers, chw)
		}
	}

	for _, w := range writers {
		if err := w.Write(ms); err != nil {
			log.Printf("ERROR: Failed to write metrics to %s: %v", w.Destination(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Printf("Metrics written to %s", w.Destination())
	}
	return firstErr
}
