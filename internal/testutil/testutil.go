package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hugh/go-storefront/internal/auth"
	"github.com/hugh/go-storefront/internal/database"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/internal/mail"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plain-text password of every user CreateTestUser makes.
const TestPassword = "testpassword123"

var userSeq atomic.Int64

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Every new connection to :memory: is a fresh, empty database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateTestUser creates a user with the given role and activation state.
// Its password is TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role, active bool) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := userSeq.Add(1)
	user := &models.User{
		FirstName:    "Test",
		LastName:     fmt.Sprintf("User%d", n),
		Gender:       models.GenderOther,
		Phone:        "555-0100",
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: hash,
		Street:       "1 Main St",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62701",
		Role:         role,
		Active:       active,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestProduct inserts a product priced at price.
func CreateTestProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        name,
		Stock:       stock,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
	}

	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed to create test product: %v", err)
	}

	return product
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// RecordingPublisher is an events.Publisher that keeps what it was given.
// Set Err to make every Publish fail.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// Last returns the most recent event, or nil.
func (p *RecordingPublisher) Last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// MailOutbox is a mail.Transport that stores envelopes instead of sending
// them. Set Err to simulate an unreachable server.
type MailOutbox struct {
	mu   sync.Mutex
	sent []mail.Envelope
	Err  error
}

func (o *MailOutbox) Deliver(_ context.Context, env mail.Envelope) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.sent = append(o.sent, env)
	return nil
}

func (o *MailOutbox) Sent() []mail.Envelope {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mail.Envelope(nil), o.sent...)
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB            *gorm.DB
	JWTService    *auth.JWTService
	Publisher     *RecordingPublisher
	Admin         *models.User
	Employee      *models.User
	Customer      *models.User
	AdminToken    string
	EmployeeToken string
	CustomerToken string
}

// NewTestContext creates a DB with one active user per role and a JWT for each
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	admin := CreateTestUser(t, db, models.RoleAdmin, true)
	employee := CreateTestUser(t, db, models.RoleEmployee, true)
	customer := CreateTestUser(t, db, models.RoleCustomer, true)

	return &TestSetup{
		DB:            db,
		JWTService:    jwtService,
		Publisher:     &RecordingPublisher{},
		Admin:         admin,
		Employee:      employee,
		Customer:      customer,
		AdminToken:    GenerateTestToken(t, jwtService, admin),
		EmployeeToken: GenerateTestToken(t, jwtService, employee),
		CustomerToken: GenerateTestToken(t, jwtService, customer),
	}
}
