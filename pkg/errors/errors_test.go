package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		client    bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", client: true, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required", client: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "member not found", client: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", client: true, detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", client: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.ClientFault != tt.client {
			t.Fatalf("code %s expected client fault %v got %v", tt.code, tt.client, meta.ClientFault)
		}
		if meta.ExposeDetails != tt.detailsOK {
			t.Fatalf("code %s expected details exposed %v got %v", tt.code, tt.detailsOK, meta.ExposeDetails)
		}
	}
}

func TestPublicViewHidesServerFaults(t *testing.T) {
	client := New(CodeValidation, "invalid validade").WithDetails(map[string]string{"validade": "is invalid"})
	if client.PublicMessage() != "invalid validade" || client.PublicDetails() == nil {
		t.Fatalf("client fault should expose message and details")
	}

	server := Wrap(CodeInternal, stdErrors.New("disk full"), "save member").WithDetails("secret")
	if server.PublicMessage() != "internal server error" {
		t.Fatalf("unexpected public message %q", server.PublicMessage())
	}
	if server.PublicDetails() != nil {
		t.Fatalf("internal details must stay private")
	}

	if Status(fmt.Errorf("load: %w", New(CodeNotFound, "member not found"))) != http.StatusNotFound {
		t.Fatalf("Status should see through wrapping")
	}
	if Status(stdErrors.New("plain")) != http.StatusInternalServerError {
		t.Fatalf("untyped errors should be internal")
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeInternal, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeInternal {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeNotFound, "member not found")
	if got := As(err); got == nil || got.Code() != CodeNotFound {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(CodeInternal, cause, "write members file")

	dump := Dump(err)
	if dump.Code != CodeInternal || dump.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected code/status %s/%d", dump.Code, dump.Status)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two links in chain, got %v", dump.Chain)
	}
	if dump.Postgres != nil || dump.File != nil || dump.JSON != nil {
		t.Fatalf("expected no store details, got %+v", dump)
	}
}

func TestDumpRecognisesMemberFileFaults(t *testing.T) {
	_, readErr := os.ReadFile(filepath.Join(t.TempDir(), "missing", "members.json"))
	dump := Dump(Wrap(CodeInternal, fmt.Errorf("read members file: %w", readErr), "list members"))
	if dump.File == nil || !dump.File.Missing || filepath.Base(dump.File.Path) != "members.json" {
		t.Fatalf("expected missing file fault, got %+v", dump.File)
	}

	var out []map[string]any
	decodeErr := json.Unmarshal([]byte(`[{"id": }]`), &out)
	dump = Dump(fmt.Errorf("decode members file: %w", decodeErr))
	if dump.JSON == nil || dump.JSON.Offset == 0 {
		t.Fatalf("expected json offset, got %+v", dump.JSON)
	}
	if dump.Code != "" || dump.Status != http.StatusInternalServerError {
		t.Fatalf("untyped fault should be internal, got %s/%d", dump.Code, dump.Status)
	}
	if _, ok := dump.Fields()["json_offset"]; !ok {
		t.Fatalf("json offset missing from log fields")
	}
}

func TestDumpRecognisesPostgresFaults(t *testing.T) {
	pgx := &pgconn.PgError{Code: "23505", ConstraintName: "members_pkey", TableName: "members"}
	dump := Dump(Wrap(CodeInternal, fmt.Errorf("insert member: %w", pgx), "save member"))
	if dump.Postgres == nil || dump.Postgres.Code != "23505" || dump.Postgres.Constraint != "members_pkey" {
		t.Fatalf("unexpected pgx details %+v", dump.Postgres)
	}

	pqErr := &pq.Error{Code: "42P01", Table: "members", Message: "relation does not exist"}
	dump = Dump(fmt.Errorf("list members: %w", pqErr))
	if dump.Postgres == nil || dump.Postgres.Code != "42P01" || dump.Postgres.Table != "members" {
		t.Fatalf("unexpected pq details %+v", dump.Postgres)
	}
	if dump.Fields()["pg_code"] != "42P01" {
		t.Fatalf("pg code missing from log fields")
	}
}
