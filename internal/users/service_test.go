package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tableside/tableside-backend/pkg/db"
	"github.com/tableside/tableside-backend/pkg/db/models"
	pkgerrors "github.com/tableside/tableside-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	client, err := db.NewFromConn(conn)
	if err != nil {
		t.Fatalf("failed to wrap connection: %v", err)
	}
	repo, err := NewRepository(client)
	if err != nil {
		t.Fatalf("failed to build repository: %v", err)
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func TestRegisterAndFetch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "Ada@Example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Email != "ada@example.com" {
		t.Fatalf("email must be normalized, got %q", created.Email)
	}

	got, err := svc.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name != "Ada" {
		t.Fatalf("unexpected name %q", got.Name)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Name: "Other", Email: "ADA@example.com"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "x@example.com"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Name: "X"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty email, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetUser(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
