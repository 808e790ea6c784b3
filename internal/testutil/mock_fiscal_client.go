package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/factusapp/factusapp/internal/integration/factus"
	"github.com/factusapp/factusapp/internal/logger"
)

var _ factus.Client = (*MockFiscalClient)(nil)

// MockFiscalClient answers like the demo simulator unless a failure or a
// status override is programmed. Calls are counted per operation.
type MockFiscalClient struct {
	demo *factus.DemoClient

	mu       sync.Mutex
	calls    map[string]int
	errs     map[string]error
	statuses map[string]string
	motives  []string
	delay    time.Duration
	submit   *factus.BillEnvelope
}

func NewMockFiscalClient(log *logger.Logger) *MockFiscalClient {
	return &MockFiscalClient{
		demo:     factus.NewDemoClient(log),
		calls:    make(map[string]int),
		errs:     make(map[string]error),
		statuses: make(map[string]string),
	}
}

// FailWith makes every call of op return err until cleared with a nil err
func (m *MockFiscalClient) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// SetStatus makes Status report status for the bill with externalID
func (m *MockFiscalClient) SetStatus(externalID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[externalID] = status
}

// SetSubmitEnvelope makes Submit answer env instead of a simulated bill
func (m *MockFiscalClient) SetSubmitEnvelope(env *factus.BillEnvelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submit = env
}

// SetDelay slows down Submit, used to widen race windows
func (m *MockFiscalClient) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many times op was invoked
func (m *MockFiscalClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Motives returns the cancellation motives received so far
func (m *MockFiscalClient) Motives() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.motives...)
}

func (m *MockFiscalClient) record(op string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.delay, m.errs[op]
}

func (m *MockFiscalClient) Submit(ctx context.Context, req *factus.BillRequest) (*factus.BillEnvelope, error) {
	delay, err := m.record(factus.OpSubmit)
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	canned := m.submit
	m.mu.Unlock()
	if canned != nil {
		env := *canned
		return &env, nil
	}
	return m.demo.Submit(ctx, req)
}

func (m *MockFiscalClient) Status(ctx context.Context, externalID string) (*factus.BillEnvelope, error) {
	if _, err := m.record(factus.OpStatus); err != nil {
		return nil, err
	}
	env, err := m.demo.Status(ctx, externalID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	status, ok := m.statuses[externalID]
	m.mu.Unlock()
	if ok {
		env.Status = factus.FlexString(status)
		env.Data.Bill.Status = factus.FlexString(status)
	}
	return env, nil
}

func (m *MockFiscalClient) Cancel(ctx context.Context, externalID, motive string) (*factus.BillEnvelope, error) {
	if _, err := m.record(factus.OpCancel); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.motives = append(m.motives, motive)
	m.mu.Unlock()
	return m.demo.Cancel(ctx, externalID, motive)
}

func (m *MockFiscalClient) DownloadXML(ctx context.Context, number string) (*factus.Document, error) {
	if _, err := m.record(factus.OpDownloadXML); err != nil {
		return nil, err
	}
	return m.demo.DownloadXML(ctx, number)
}

func (m *MockFiscalClient) DownloadPDF(ctx context.Context, number string) (*factus.Document, error) {
	if _, err := m.record(factus.OpDownloadPDF); err != nil {
		return nil, err
	}
	return m.demo.DownloadPDF(ctx, number)
}
