package cluster

import (
	"context"
	"sync"

	networkingv1 "k8s.io/api/networking/v1"
)

// MockClient is a mock implementation of Client for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Fixture data
	Version   string
	Workloads []Workload

	// Error injection
	VersionError error
	ListError    error
	CreateError  error

	// Call tracking
	versionCalls int
	listCalls    int
	created      []*networkingv1.NetworkPolicy
}

// NewMockClient creates a mock reporting the given server version.
func NewMockClient(version string, workloads ...Workload) *MockClient {
	return &MockClient{Version: version, Workloads: workloads}
}

// ServerVersion implements Client
func (m *MockClient) ServerVersion(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versionCalls++
	if m.VersionError != nil {
		return "", m.VersionError
	}
	return m.Version, nil
}

// ListWorkloads implements Client
func (m *MockClient) ListWorkloads(ctx context.Context) ([]Workload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]Workload, len(m.Workloads))
	copy(out, m.Workloads)
	return out, nil
}

// CreateNetworkPolicy implements Client
func (m *MockClient) CreateNetworkPolicy(ctx context.Context, policy *networkingv1.NetworkPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	m.created = append(m.created, policy.DeepCopy())
	return nil
}

// SetVersionError swaps the injected ServerVersion error.
func (m *MockClient) SetVersionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VersionError = err
}

// VersionCalls returns how many times ServerVersion was called.
func (m *MockClient) VersionCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versionCalls
}

// ListCalls returns how many times ListWorkloads was called.
func (m *MockClient) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// Created returns copies of every successfully submitted policy.
func (m *MockClient) Created() []*networkingv1.NetworkPolicy {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*networkingv1.NetworkPolicy, len(m.created))
	copy(out, m.created)
	return out
}
