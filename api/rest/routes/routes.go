package routes

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Labhund/CompChemJobServer/api/rest/handlers"
	"github.com/Labhund/CompChemJobServer/core/registry"
	"github.com/Labhund/CompChemJobServer/storage"
)

// SetupRoutes configures the modern /api surface, the legacy IQmol
// surface and the dashboard.
func SetupRoutes(r *mux.Router, reg *registry.Registry, layout *storage.Layout, log *zap.Logger) {
	jobHandler := handlers.NewJobHandler(reg, layout, log)
	legacyHandler := handlers.NewLegacyHandler(reg, layout, log)
	dashboardHandler := handlers.NewDashboardHandler(reg, log)

	// Modern API
	r.HandleFunc("/api/submit", jobHandler.SubmitJob).Methods("POST")
	r.HandleFunc("/api/status/{job_id}", jobHandler.GetJobStatus).Methods("GET")
	r.HandleFunc("/api/output/{job_id}/{filename}", jobHandler.GetOutputFile).Methods("GET")
	r.HandleFunc("/api/jobs", jobHandler.ListJobs).Methods("GET")
	r.HandleFunc("/api/health", jobHandler.Health).Methods("GET")

	// Legacy IQmol client surface
	r.HandleFunc("/submit", legacyHandler.Submit).Methods("POST")
	r.HandleFunc("/status", legacyHandler.Status).Methods("GET")
	r.HandleFunc("/list", legacyHandler.List).Methods("GET")
	r.HandleFunc("/download", legacyHandler.Download).Methods("GET")
	r.HandleFunc("/delete", legacyHandler.Delete).Methods("GET")

	r.HandleFunc("/", dashboardHandler.Dashboard).Methods("GET")
}
