package contact

import (
	"context"
	"errors"
)

// Manager is the per-request wrapper around one raw input: it validates,
// persists through the Service and keeps the outcome for the caller.
// A Manager is not safe for concurrent use.
type Manager struct {
	svc    *Service
	input  Input
	errs   Violations
	result *Contact
}

// NewManager does not validate; that happens in Register and Edit.
func NewManager(svc *Service, in Input) *Manager {
	return &Manager{svc: svc, input: in}
}

// Register validates the input and inserts it. When the input is rejected
// Errors is populated, the store is not touched and nil is returned.
// Only store failures are returned as errors.
func (m *Manager) Register(ctx context.Context) error {
	m.reset()

	c, err := m.svc.Register(ctx, m.input)
	if m.captureViolations(err) {
		return nil
	}
	if err != nil {
		return err
	}
	m.result = &c
	return nil
}

// Edit validates the input and replaces the contact id with it. Invalid input
// is reported through Errors for any id. With valid input, a malformed or
// unknown id leaves Result nil.
func (m *Manager) Edit(ctx context.Context, id string) error {
	m.reset()

	c, err := m.svc.Edit(ctx, id, m.input)
	if m.captureViolations(err) {
		return nil
	}
	if err != nil {
		return err
	}
	m.result = c
	return nil
}

// Errors returns the violations of the last Register or Edit call.
func (m *Manager) Errors() Violations { return m.errs }

func (m *Manager) Valid() bool { return len(m.errs) == 0 }

// Result is the record created or updated by the last call, nil when nothing was stored.
func (m *Manager) Result() *Contact { return m.result }

func (m *Manager) reset() {
	m.errs = nil
	m.result = nil
}

func (m *Manager) captureViolations(err error) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	m.errs = ve.Violations
	return true
}
