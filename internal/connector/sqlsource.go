package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/formgate/formgate/internal/model"
)

// Dialect describes how a driver spells identifiers and parameters.
type Dialect interface {
	DriverName() string
	QuoteIdentifier(name string) string
	ParameterPlaceholder(index int) string
}

// TextSelector is implemented by dialects that must cast the id column to
// text before it can be scanned into a string.
type TextSelector interface {
	SelectAsText(expr string) string
}

// IDMatcher is implemented by dialects whose id column compares with a
// canonical GUID string without case folding.
type IDMatcher interface {
	MatchID(col, placeholder string) string
}

// SQLSource is a FormSource over any database/sql driver. Driver packages
// embed it and supply their Dialect.
type SQLSource struct {
	dialect   Dialect
	sqlDriver string
	db        *sqlx.DB
	schema    string
	table     FormTable
}

// NewSQLSource creates an SQLSource that opens connections with the
// database/sql driver registered as sqlDriver.
func NewSQLSource(sqlDriver string, d Dialect) *SQLSource {
	return &SQLSource{dialect: d, sqlDriver: sqlDriver}
}

// Connect opens the connection pool and applies the pool settings and the
// column mapping from cfg.
func (s *SQLSource) Connect(cfg ConnectionConfig) error {
	name := s.dialect.DriverName()
	table := cfg.Table.WithDefaults()
	if err := table.Validate(); err != nil {
		return fmt.Errorf("%s connect: %w", name, err)
	}
	if cfg.SchemaName != "" {
		if err := ValidateIdentifier(cfg.SchemaName); err != nil {
			return fmt.Errorf("%s connect: schema: %w", name, err)
		}
	}

	db, err := sqlx.Connect(s.sqlDriver, SanitizeDSN(name, cfg.DSN))
	if err != nil {
		return fmt.Errorf("%s connect: %w", name, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	s.schema = cfg.SchemaName
	s.table = table
	s.db = db
	return nil
}

// Disconnect closes the connection pool.
func (s *SQLSource) Disconnect() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the connection is alive.
func (s *SQLSource) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("not connected")
	}
	return s.db.PingContext(ctx)
}

// DB returns the underlying connection pool.
func (s *SQLSource) DB() *sqlx.DB {
	return s.db
}

type formRow struct {
	ID   string         `db:"id"`
	Name sql.NullString `db:"name"`
	HTML sql.NullString `db:"html"`
}

func (r formRow) toModel() model.Form {
	return model.Form{ID: r.ID, Name: r.Name.String, HTMLContent: r.HTML.String}
}

func (s *SQLSource) ListLiveForms(ctx context.Context) ([]model.Form, error) {
	q, args := BuildListQuery(s.dialect, s.schema, s.table)

	var rows []formRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list live forms: %w", err)
	}

	forms := make([]model.Form, 0, len(rows))
	for _, r := range rows {
		forms = append(forms, r.toModel())
	}
	return forms, nil
}

func (s *SQLSource) FindLiveFormByID(ctx context.Context, id uuid.UUID) (*model.Form, error) {
	q, args := BuildFindByIDQuery(s.dialect, s.schema, s.table, id)
	return s.findOne(ctx, q, args)
}

func (s *SQLSource) FindLiveFormByName(ctx context.Context, name string) (*model.Form, error) {
	q, args := BuildFindByNameQuery(s.dialect, s.schema, s.table, name)
	return s.findOne(ctx, q, args)
}

func (s *SQLSource) findOne(ctx context.Context, q string, args []interface{}) (*model.Form, error) {
	var row formRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("find live form: %w", err)
	}
	f := row.toModel()
	return &f, nil
}
