package bans

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/gridfts/submitd/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestSnapshot_GroupsBySE(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"se", "vo", "mode"}).
		AddRow("gsiftp://a.example.org", "*", "BAN").
		AddRow("gsiftp://b.example.org", "atlas", "WAIT_AS_SUBMIT").
		AddRow("gsiftp://b.example.org", "cms", "BAN")

	mock.ExpectQuery(`^SELECT\s+se,\s*vo,\s*mode\s+FROM\s+se_bans$`).
		WillReturnRows(rows)

	got, err := repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 storage elements, got %d", len(got))
	}
	if len(got["gsiftp://b.example.org"]) != 2 {
		t.Fatalf("expected 2 bans for b, got %+v", got["gsiftp://b.example.org"])
	}
	if got["gsiftp://a.example.org"][0].Mode != models.BanModePlain {
		t.Fatalf("unexpected mode: %+v", got["gsiftp://a.example.org"][0])
	}
	if got["gsiftp://a.example.org"][0].VO != models.BanWildcardVO {
		t.Fatalf("unexpected vo: %+v", got["gsiftp://a.example.org"][0])
	}
}

func TestSnapshot_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+se,\s*vo,\s*mode\s+FROM\s+se_bans$`).
		WillReturnRows(sqlmock.NewRows([]string{"se", "vo", "mode"}))

	got, err := repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", got)
	}
}

func TestSnapshot_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+se,\s*vo,\s*mode\s+FROM\s+se_bans$`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Snapshot(context.Background())
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
