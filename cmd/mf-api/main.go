package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"MedFlowScope/internal/config"
	"MedFlowScope/internal/export"
	"MedFlowScope/internal/registry"
	"MedFlowScope/internal/safety"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reg, err := registry.New(cfg.Registry)
	if err != nil {
		log.Fatalf("Failed to build device registry: %v", err)
	}

	listenAddr := cfg.API.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	apiHandler := &APIHandler{
		csvPath:    cfg.Export.CSV.Path,
		registry:   reg,
		thresholds: safety.ThresholdsFromConfig(cfg.Safety),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/metrics", apiHandler.metricsHandler).Methods("GET")
	r.HandleFunc("/api/v1/safety", apiHandler.safetyHandler).Methods("GET")
	r.HandleFunc("/api/v1/report", apiHandler.reportHandler).Methods("GET")

	server := &http.Server{
		Addr:    listenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}

// APIHandler serves the persisted metrics of the most recent run.
type APIHandler struct {
	csvPath    string
	registry   *registry.Registry
	thresholds safety.Thresholds
}

// metricsHandler returns the persisted device metrics as JSON.
func (h *APIHandler) metricsHandler(w http.ResponseWriter, r *http.Request) {
	ms, err := export.ReadCSV(h.csvPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load metrics: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ms); err != nil {
		log.Printf("Error encoding metrics response: %v", err)
	}
}

type safetyResponse struct {
	Verdict string                    `json:"verdict"`
	Devices []safety.DeviceAssessment `json:"devices"`
}

// safetyHandler recomputes the safety assessment from the persisted rows.
func (h *APIHandler) safetyHandler(w http.ResponseWriter, r *http.Request) {
	ms, err := export.ReadCSV(h.csvPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load metrics: %v", err), http.StatusInternalServerError)
		return
	}

	report := safety.Assess(ms, h.registry, h.thresholds)
	resp := safetyResponse{
		Verdict: report.Verdict.String(),
		Devices: report.Devices,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding safety response: %v", err)
	}
}

// reportHandler serves the raw persisted CSV.
func (h *APIHandler) reportHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.csvPath); err != nil {
		http.Error(w, fmt.Sprintf("no persisted report at %s", h.csvPath), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, h.csvPath)
}
