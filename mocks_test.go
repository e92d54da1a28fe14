package guard_test

import (
	"context"
	"sync"

	guard "github.com/goliatone/go-route-guard"
	"github.com/stretchr/testify/mock"
)

// MockAuthState implements guard.AuthState
type MockAuthState struct {
	mock.Mock
}

func (m *MockAuthState) IsAuthenticated() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockAuthState) IsCheckingAuth() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockAuthState) AuthCheckCompleted() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockAuthState) User() *guard.User {
	args := m.Called()
	user, _ := args.Get(0).(*guard.User)
	return user
}

func (m *MockAuthState) CheckAuth(ctx context.Context) {
	m.Called(ctx)
}

// fakeState is a plain AuthState whose CheckAuth applies onCheck, if any
type fakeState struct {
	mu      sync.Mutex
	snap    guard.Snapshot
	checks  int
	onCheck func(s *guard.Snapshot)
}

func newFakeState(snap guard.Snapshot) *fakeState {
	return &fakeState{snap: snap}
}

func (f *fakeState) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.Authenticated
}

func (f *fakeState) IsCheckingAuth() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.Checking
}

func (f *fakeState) AuthCheckCompleted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.Completed
}

func (f *fakeState) User() *guard.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.User
}

func (f *fakeState) CheckAuth(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	if f.onCheck != nil {
		f.onCheck(&f.snap)
	}
}

func (f *fakeState) Checks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

func signedIn(role string) guard.Snapshot {
	user := &guard.User{ID: "user-1", Username: "jane", Role: role}
	return guard.Snapshot{Authenticated: true, Completed: true, User: user}
}

func signedOut() guard.Snapshot {
	return guard.Snapshot{Completed: true}
}

func pending() guard.Snapshot {
	return guard.Snapshot{Checking: true}
}
