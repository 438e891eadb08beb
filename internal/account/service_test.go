package account

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/files"
	"ramresume-backend/internal/scans"
	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/storage/object"
	"ramresume-backend/internal/shared/storage/object/local"
	"ramresume-backend/internal/usage"
	"ramresume-backend/internal/users"
)

var fakePDF = []byte("%PDF-1.4\n%%EOF\n")

type deps struct {
	users *users.Service
	usage *usage.Service
	scans *scans.Service
	files *files.Service
	store object.ObjectStore
}

func newDeps(t *testing.T) deps {
	t.Helper()
	store := local.New(t.TempDir())
	return deps{
		users: users.NewService(users.NewMemoryRepo()),
		usage: usage.NewService(),
		scans: scans.NewService(scans.NewMemoryRepo()),
		files: files.NewService(store, files.NewMemoryRepo()),
		store: store,
	}
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	d := newDeps(t)

	user, err := d.users.LoginFromGoogle(ctx, users.GoogleProfile{Sub: "42", Email: "ram@fordham.edu", Name: "Ram"})
	if err != nil {
		t.Fatalf("LoginFromGoogle: %v", err)
	}
	if _, err := d.usage.CheckUsage(ctx, user.ID); err != nil {
		t.Fatalf("CheckUsage: %v", err)
	}
	rec, err := d.scans.Create(ctx, user.ID, "Analyst", "Acme", []string{"SQL"})
	if err != nil {
		t.Fatalf("scan create: %v", err)
	}
	if _, err := d.scans.UpdateBullets(ctx, user.ID, rec.ID, "resume", []scans.BulletGroup{{Company: "Acme", Bullets: []string{"Led"}}}); err != nil {
		t.Fatalf("UpdateBullets: %v", err)
	}
	stored, err := d.files.Upload(ctx, user.ID, "cv.pdf", "application/pdf", fakePDF)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	svc := NewService(d.users, d.usage, d.scans, d.files, nil)
	router := gin.New()
	api := router.Group("/api", func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{UserID: user.ID})
		c.Next()
	})
	NewHandler(svc, false).RegisterRoutes(api)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/user", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"success":true`)) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	if _, err := d.users.LookupIdentity(ctx, user.ID); !errors.Is(err, middleware.ErrIdentityNotFound) {
		t.Fatalf("expected identity to be gone, got %v", err)
	}
	history, err := d.scans.History(ctx, user.ID)
	if err != nil || len(history) != 0 {
		t.Fatalf("expected no history, got %v (%v)", history, err)
	}
	list, err := d.files.List(ctx, user.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no files, got %v (%v)", list, err)
	}
	if _, err := d.store.Open(ctx, stored.StorageKey); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected object removed, got %v", err)
	}
}

func TestDeleteWithTxRunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	d := newDeps(t)
	obj, err := d.store.Save(context.Background(), "google:1", "cv.pdf", bytes.NewReader(fakePDF))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	key := obj.Key

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM stored_files WHERE user_id = $1 RETURNING`)).
		WithArgs("google:1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "filename", "content_type", "size_bytes", "storage_key", "uploaded_at"}).
			AddRow("f1", "google:1", "cv.pdf", "application/pdf", int64(len(fakePDF)), key, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM scan_records WHERE user_id = $1`)).WithArgs("google:1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM usage_ledgers WHERE user_id = $1`)).WithArgs("google:1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).WithArgs("google:1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewService(d.users, d.usage, d.scans, d.files, db)
	if err := svc.Delete(context.Background(), "google:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
	if _, err := d.store.Open(context.Background(), key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected object removed after commit, got %v", err)
	}
}

func TestDeleteWithTxRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM stored_files WHERE user_id = $1 RETURNING`)).
		WithArgs("google:1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "filename", "content_type", "size_bytes", "storage_key", "uploaded_at"}))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM scan_records WHERE user_id = $1`)).WithArgs("google:1").WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	d := newDeps(t)
	svc := NewService(d.users, d.usage, d.scans, d.files, db)
	if err := svc.Delete(context.Background(), "google:1"); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
