package testhelpers

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"rentalhub/internal/models"
	"rentalhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the migrations. Tests are skipped
// when no database is configured.
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			t.Skip("TEST_DATABASE_URL not set")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if _, err := database.Migrate(ctx, pool, DiscardLogger()); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// DiscardLogger is a logger for code under test that must not write to stdout.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// InsertUser stores u directly, bypassing services.
func InsertUser(t *testing.T, db *TestDB, u *models.User) {
	t.Helper()

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, created_by, parent_user, permissions, must_change_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query,
		u.ID, u.Email, "x", u.FirstName, u.LastName, u.Role, u.CreatedBy, u.ParentUser, u.Permissions, u.MustChangePassword)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
}

func Admin() *models.User {
	return newUser(models.RoleAdmin, nil)
}

func Agent() *models.User {
	return newUser(models.RoleAgent, nil)
}

func Landlord() *models.User {
	return newUser(models.RoleLandlord, nil)
}

// Employee is provisioned by agent with every capability flag on.
func Employee(agent *models.User) *models.User {
	u := newUser(models.RoleEmployee, &agent.ID)
	u.ParentUser = &agent.ID
	u.Permissions = models.FullEmployeePermissions()
	return u
}

func Tenant(createdBy *models.User) *models.User {
	var by *uuid.UUID
	if createdBy != nil {
		by = &createdBy.ID
	}
	return newUser(models.RoleTenant, by)
}

func Seeker() *models.User {
	return newUser(models.RoleSeeker, nil)
}

func newUser(role models.Role, createdBy *uuid.UUID) *models.User {
	id := uuid.New()
	return &models.User{
		ID:        id,
		Email:     string(role) + "-" + id.String()[:8] + "@example.com",
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

// Property is an apartment owned by agent, entered by createdBy, in the given approval state.
func Property(agent, createdBy *models.User, status models.ApprovalStatus) *models.Property {
	p := &models.Property{
		ID:            uuid.New(),
		Title:         "Test Apartment",
		PropertyType:  models.PropertyTypeApartment,
		Address:       models.Address{Street: "1 Main St", City: "Springfield", Country: "US"},
		Bedrooms:      2,
		Bathrooms:     1,
		Rent:          Float(1200),
		Amenities:     []string{},
		Images:        []string{},
		Agent:         agent.ID,
		CreatedBy:     createdBy.ID,
		CreatedByRole: createdBy.Role,
		Availability:  models.AvailabilityAvailable,
		Capacity:      1,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	p.SetApprovalStatus(status)
	if status == models.ApprovalApproved {
		now := time.Now().UTC()
		p.ApprovedBy = &agent.ID
		p.ApprovedAt = &now
	}
	return p
}

// MultiUnitProperty converts p into unit mode with n vacant units.
func MultiUnitProperty(p *models.Property, n int) []*models.Unit {
	p.HasUnits = true
	p.Capacity = n
	units := make([]*models.Unit, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, Unit(p, i))
	}
	p.Units = units
	return units
}

func Unit(p *models.Property, position int) *models.Unit {
	return &models.Unit{
		ID:           uuid.New(),
		PropertyID:   p.ID,
		Position:     position,
		UnitNumber:   "U" + string(rune('1'+position)),
		Rent:         900,
		Availability: models.UnitAvailable,
	}
}

func Float(v float64) *float64 { return &v }

func String(v string) *string { return &v }

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
