// Package handler implements the thin HTTP layer over the tag engines.
// Handlers only deserialize, validate, delegate, and map errors; all
// lifecycle semantics live in internal/service.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/convoops/tagtrack/internal/domain"
	"github.com/convoops/tagtrack/internal/service"
)

// ScanEngine defines the scan operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the repo or the remote store.
type ScanEngine interface {
	ProcessScan(ctx context.Context, epc string, station domain.Station, scannedBy, action, notes string) (service.ScanResult, error)
	ProcessBulkScan(ctx context.Context, epcs []string, station domain.Station, scannedBy, action, notes string) (service.BulkScanResult, error)
}

// BoxEngine defines the box-content operations the handlers depend on.
type BoxEngine interface {
	AddItems(ctx context.Context, boxEPC string, itemEPCs []string) (domain.Tag, error)
	Contents(ctx context.Context, boxEPC string) (service.BoxContents, error)
}

// DispatchEngine defines the terminal workflows the handlers depend on.
type DispatchEngine interface {
	ProcessDispatch(ctx context.Context, epcs []string, dispatchedBy, trackingNumber, dispatchMethod, notes string) (service.DispatchResult, error)
	ProcessHandover(ctx context.Context, epcs []string, handoverBy, handoverTo, notes string) (service.DispatchResult, error)
}

// StatsProvider defines the dashboard read the handlers depend on.
type StatsProvider interface {
	Stats(ctx context.Context) (domain.DashboardStats, error)
}

// Reconciler defines the reconciliation read the handlers depend on.
type Reconciler interface {
	Reconcile(ctx context.Context, station domain.Station) (domain.ReconciliationReport, error)
}

// TagServicer defines the encode/lookup operations the handlers depend on.
type TagServicer interface {
	Encode(ctx context.Context, input domain.NewTag) (domain.Tag, error)
	Get(ctx context.Context, epc string) (domain.Tag, error)
	List(ctx context.Context) ([]domain.Tag, error)
}

// Server holds every handler's dependencies. Methods are split into
// domain-specific files (scan.go, box.go, etc.) but all share this struct.
type Server struct {
	scans     ScanEngine
	boxes     BoxEngine
	dispatch  DispatchEngine
	dashboard StatsProvider
	reconcile Reconciler
	tags      TagServicer
	validate  *validator.Validate
}

// NewServer constructs the Server with all its dependencies.
func NewServer(scans ScanEngine, boxes BoxEngine, dispatch DispatchEngine, dashboard StatsProvider, reconcile Reconciler, tags TagServicer) *Server {
	return &Server{
		scans:     scans,
		boxes:     boxes,
		dispatch:  dispatch,
		dashboard: dashboard,
		reconcile: reconcile,
		tags:      tags,
		validate:  validator.New(),
	}
}

// Routes registers every endpoint on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", s.ProcessScan)
		r.Post("/scan/bulk", s.ProcessBulkScan)

		r.Post("/tags", s.EncodeTag)
		r.Get("/tags", s.ListTags)
		r.Get("/tags/{epc}", s.GetTag)

		r.Post("/boxes/{epc}/items", s.AddBoxItems)
		r.Get("/boxes/{epc}", s.BoxContents)

		r.Post("/dispatch", s.Dispatch)
		r.Post("/handover", s.Handover)

		r.Get("/dashboard", s.Dashboard)
		r.Get("/reconciliation/{station}", s.Reconciliation)
	})
}
