// Package server exposes the export pipeline over HTTP for the admin UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendelo/parcelbridge/internal/batch"
	"github.com/vendelo/parcelbridge/pkg/consign"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server is the HTTP server for the export service.
type Server struct {
	port         int
	orchestrator *batch.Orchestrator
	logger       *otelzap.Logger

	mu     sync.Mutex
	labels map[string][]byte // rendered label PDFs by batch id
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, orchestrator *batch.Orchestrator, logger *otelzap.Logger) *Server {
	return &Server{
		port:         cfg.Port,
		orchestrator: orchestrator,
		logger:       logger,
		labels:       make(map[string][]byte),
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/export", s.handleExport)
	mux.HandleFunc("/export/labels/", s.handleLabels)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// exportRequest is the JSON body of POST /export.
type exportRequest struct {
	StoreID  int64   `json:"storeId"`
	OrderIDs []int64 `json:"orderIds"`
	Mode     string  `json:"mode,omitempty"`
	Options  struct {
		PackageType        string `json:"packageType,omitempty"`
		RequestType        string `json:"requestType,omitempty"`
		LabelFormat        string `json:"labelFormat,omitempty"`
		AgeCheck           *bool  `json:"ageCheck,omitempty"`
		Signature          *bool  `json:"signature,omitempty"`
		OnlyRecipient      *bool  `json:"onlyRecipient,omitempty"`
		Return             *bool  `json:"return,omitempty"`
		LargeFormat        *bool  `json:"largeFormat,omitempty"`
		InsuranceCents     *int64 `json:"insurance,omitempty"`
		DigitalStampWeight *int   `json:"digitalStampWeight,omitempty"`
	} `json:"options"`
}

// exportResponse is the JSON answer of POST /export. The caller always
// gets a response, even on partial failure.
type exportResponse struct {
	BatchID  string          `json:"batchId"`
	Stage    string          `json:"stage"`
	Warnings []string        `json:"warnings,omitempty"`
	Orders   []exportedOrder `json:"orders"`
	LabelURL string          `json:"labelUrl,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type exportedOrder struct {
	OrderID        int64  `json:"orderId"`
	IncrementID    string `json:"incrementId"`
	ConsignmentID  int64  `json:"consignmentId,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(exportResponse{Error: "method not allowed, use POST"})
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(exportResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.orchestrator.Run(r.Context(), batch.Request{
		StoreID:  req.StoreID,
		OrderIDs: req.OrderIDs,
		Mode:     req.Mode,
		Options: consign.RequestOptions{
			PackageType:        req.Options.PackageType,
			RequestType:        req.Options.RequestType,
			LabelFormat:        consign.LabelFormat(req.Options.LabelFormat),
			AgeCheck:           req.Options.AgeCheck,
			Signature:          req.Options.Signature,
			OnlyRecipient:      req.Options.OnlyRecipient,
			Return:             req.Options.Return,
			LargeFormat:        req.Options.LargeFormat,
			InsuranceCents:     req.Options.InsuranceCents,
			DigitalStampWeight: req.Options.DigitalStampWeight,
		},
	})

	resp := exportResponse{
		BatchID:  result.BatchID,
		Stage:    result.Stage.String(),
		Warnings: result.Warnings,
	}
	for _, o := range result.Orders {
		exported := exportedOrder{
			OrderID:        o.OrderID,
			IncrementID:    o.IncrementID,
			ConsignmentID:  o.ConsignmentID,
			TrackingNumber: o.TrackingNumber,
		}
		if o.Err != nil {
			exported.Error = o.Err.Error()
		}
		resp.Orders = append(resp.Orders, exported)
	}
	if len(result.Label) > 0 {
		s.storeLabel(result.BatchID, result.Label)
		resp.LabelURL = "/export/labels/" + result.BatchID
	}

	if err != nil {
		resp.Error = err.Error()
		var stateErr *consign.StateError
		switch {
		case errors.Is(err, consign.ErrMissingAPIKey):
			w.WriteHeader(http.StatusPreconditionFailed)
		case errors.As(err, &stateErr):
			w.WriteHeader(http.StatusUnprocessableEntity)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
	json.NewEncoder(w).Encode(resp)
}

// handleLabels serves the rendered label PDF of a finished batch.
func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	batchID := strings.TrimPrefix(r.URL.Path, "/export/labels/")

	s.mu.Lock()
	label, ok := s.labels[batchID]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "labels-"+batchID+".pdf"))
	w.Write(label)
}

func (s *Server) storeLabel(batchID string, label []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[batchID] = label
}
