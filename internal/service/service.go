// Package service sits between the transport and the widget store. It
// rejects malformed input before the store sees it, confirms the target of
// an update exists, and records each operation in logs and metrics.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/canvas/internal/logging"
	"github.com/mesh-intelligence/canvas/internal/metrics"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

// Operation outcomes used as metric labels.
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

// Service validates requests and forwards them to a WidgetStore.
type Service struct {
	store   types.WidgetStore
	metrics *metrics.Metrics
}

// New returns a Service over store. m may be nil.
func New(store types.WidgetStore, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m}
}

// Get returns the widget with the given ID. Non-positive IDs are invalid.
func (s *Service) Get(ctx context.Context, id int64) (types.Widget, error) {
	if id <= 0 {
		return types.Widget{}, s.done(ctx, "get", invalidID(id))
	}
	w, err := s.store.Get(id)
	return w, s.done(ctx, "get", err)
}

// List returns one page of widgets in z-order.
func (s *Service) List(ctx context.Context, page types.Page) ([]types.Widget, error) {
	ws, err := s.store.List(page)
	return ws, s.done(ctx, "list", err)
}

// Create validates in and stores a new widget.
func (s *Service) Create(ctx context.Context, in types.WidgetInput) (types.Widget, error) {
	if err := in.Validate(); err != nil {
		return types.Widget{}, s.done(ctx, "create", err)
	}
	w, err := s.store.Create(in)
	if err == nil {
		logging.FromContext(ctx).WithField("widget_id", w.ID).WithField("z", w.Z).Debug("widget created")
	}
	return w, s.done(ctx, "create", err)
}

// Update replaces an existing widget. A missing widget is reported before
// the input is validated.
func (s *Service) Update(ctx context.Context, in types.WidgetInput) (types.Widget, error) {
	if in.ID <= 0 {
		return types.Widget{}, s.done(ctx, "update", invalidID(in.ID))
	}
	if _, err := s.store.Get(in.ID); err != nil {
		return types.Widget{}, s.done(ctx, "update", err)
	}
	if err := in.Validate(); err != nil {
		return types.Widget{}, s.done(ctx, "update", err)
	}
	w, err := s.store.Update(in)
	if err == nil {
		logging.FromContext(ctx).WithField("widget_id", w.ID).WithField("z", w.Z).Debug("widget updated")
	}
	return w, s.done(ctx, "update", err)
}

// Delete removes the widget with the given ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return s.done(ctx, "delete", invalidID(id))
	}
	err := s.store.Delete(id)
	if err == nil {
		logging.FromContext(ctx).WithField("widget_id", id).Debug("widget deleted")
	}
	return s.done(ctx, "delete", err)
}

// done records the outcome of op and returns err unchanged.
func (s *Service) done(ctx context.Context, op string, err error) error {
	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.Is(err, types.ErrNotFound):
		outcome = outcomeNotFound
	case errors.Is(err, types.ErrInvalidInput):
		outcome = outcomeInvalid
	default:
		outcome = outcomeError
		logging.FromContext(ctx).WithError(err).WithField("op", op).Error("store operation failed")
	}
	if s.metrics != nil {
		s.metrics.RecordStoreOp(op, outcome)
	}
	return err
}

func invalidID(id int64) error {
	return fmt.Errorf("%w: id %d must be positive", types.ErrInvalidInput, id)
}
