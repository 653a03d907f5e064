package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-side view of an error: its code, the unwrap chain and
// whatever the member stores attached on the way up.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Status     int      `json:"status"`
	Chain      []string `json:"chain,omitempty"`

	File     *FileFault     `json:"file,omitempty"`
	JSON     *JSONFault     `json:"json,omitempty"`
	Postgres *PostgresFault `json:"postgres,omitempty"`
}

// FileFault comes from the members file or the photo directory.
type FileFault struct {
	Op      string `json:"op"`
	Path    string `json:"path"`
	Missing bool   `json:"missing,omitempty"`
}

// JSONFault locates a corrupt members file or cached card.
type JSONFault struct {
	Offset int64  `json:"offset"`
	Field  string `json:"field,omitempty"`
}

// PostgresFault carries the server-side details of a relational store error,
// from either pgx or lib/pq.
type PostgresFault struct {
	Code       string `json:"code"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error(), Status: Status(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pathErr *fs.PathError
	if stdErrors.As(err, &pathErr) {
		d.File = &FileFault{Op: pathErr.Op, Path: pathErr.Path, Missing: stdErrors.Is(err, fs.ErrNotExist)}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stdErrors.As(err, &syntaxErr):
		d.JSON = &JSONFault{Offset: syntaxErr.Offset}
	case stdErrors.As(err, &typeErr):
		d.JSON = &JSONFault{Offset: typeErr.Offset, Field: typeErr.Field}
	}

	d.Postgres = postgresFault(err)
	return d
}

func postgresFault(err error) *PostgresFault {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return &PostgresFault{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return &PostgresFault{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}

// Fields flattens the dump into log fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
		"http_status": d.Status,
	}
	if d.File != nil {
		fields["file_op"] = d.File.Op
		fields["file_path"] = d.File.Path
		if d.File.Missing {
			fields["file_missing"] = true
		}
	}
	if d.JSON != nil {
		fields["json_offset"] = d.JSON.Offset
		if d.JSON.Field != "" {
			fields["json_field"] = d.JSON.Field
		}
	}
	if pg := d.Postgres; pg != nil {
		fields["pg_code"] = pg.Code
		fields["pg_constraint"] = pg.Constraint
		fields["pg_table"] = pg.Table
		fields["pg_column"] = pg.Column
		fields["pg_detail"] = pg.Detail
		fields["pg_message"] = pg.Message
	}
	return fields
}
