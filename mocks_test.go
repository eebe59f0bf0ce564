package identity_test

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/kagomalabs/go-identity"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

func notFoundErr() error {
	return repository.NewRecordNotFound()
}

// MockConfig implements identity.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSigningMethod() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetExtendedTokenDuration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetTokenLookup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	return mockConfig
}

// MockIdentityProvider implements identity.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (identity.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(identity.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (identity.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(identity.Identity), args.Error(1)
}

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id     string
	name   string
	email  string
	role   identity.UserRole
	active bool
}

func (t TestIdentity) ID() string              { return t.id }
func (t TestIdentity) Name() string            { return t.name }
func (t TestIdentity) Email() string           { return t.email }
func (t TestIdentity) Role() identity.UserRole { return t.role }
func (t TestIdentity) Active() bool            { return t.active }

func activeIdentity(role identity.UserRole) TestIdentity {
	return TestIdentity{
		id:     uuid.New().String(),
		name:   "testuser",
		email:  "test@example.com",
		role:   role,
		active: true,
	}
}

// memoryTokenStore is a mutex-guarded UserTokenStore for exercising the
// single-use semantics without a database.
type memoryTokenStore struct {
	mu      sync.Mutex
	records map[string]*identity.UserToken
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{records: map[string]*identity.UserToken{}}
}

func (s *memoryTokenStore) Supersede(_ context.Context, token *identity.UserToken) (*identity.UserToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, record := range s.records {
		if record.UserID == token.UserID && record.Purpose == token.Purpose {
			delete(s.records, hash)
		}
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	s.records[token.TokenHash] = token
	return token, nil
}

func (s *memoryTokenStore) Consume(_ context.Context, tokenHash string, purpose identity.TokenPurpose, userID *uuid.UUID) (*identity.UserToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[tokenHash]
	if !ok || record.Purpose != purpose {
		return nil, notFoundErr()
	}
	if userID != nil && record.UserID != *userID {
		return nil, notFoundErr()
	}

	delete(s.records, tokenHash)
	return record, nil
}

func (s *memoryTokenStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// MockRepositoryManager implements identity.RepositoryManager. RunInTx is a
// passthrough that executes the callback with a zero transaction so command
// handlers can be exercised without a database.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error { return nil }
func (m *MockRepositoryManager) MustValidate()   {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(context.Context, bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() identity.Users {
	args := m.Called()
	return args.Get(0).(identity.Users)
}

func (m *MockRepositoryManager) UserTokens() identity.UserTokens {
	args := m.Called()
	return args.Get(0).(identity.UserTokens)
}

// MockUsers mocks the methods command handlers reach for. The embedded
// interface panics on anything without an explicit override, which is what we
// want in tests.
type MockUsers struct {
	mock.Mock
	identity.Users
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, tx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *identity.User, criteria ...repository.InsertCriteria) (*identity.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// capturingDeliverer records every link handed to it.
type capturingDeliverer struct {
	mu         sync.Mutex
	recipients []string
	links      []string
	err        error
}

func (d *capturingDeliverer) Deliver(_ context.Context, recipient, link string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recipients = append(d.recipients, recipient)
	d.links = append(d.links, link)
	return d.err
}
