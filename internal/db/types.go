package db

// Dialect identifies the database engine a connection speaks.
type Dialect string

const (
	DialectPostgres Dialect = "postgresql"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"

	// DialectMSSQL is reserved. No driver exists yet; selecting it fails
	// with an unsupported-dialect error rather than substituting another
	// dialect's driver.
	DialectMSSQL Dialect = "mssql"
)

// ConnectionConfig holds everything needed to open a pool to one database.
// It is created by the caller and read-only to this package.
type ConnectionConfig struct {
	ID      string  `json:"id,omitempty" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Dialect Dialect `json:"database_type" yaml:"database_type"`

	Host     string `json:"host,omitempty" yaml:"host"`
	Port     int    `json:"port,omitempty" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username,omitempty" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password"`
	SSLMode  string `json:"ssl_mode,omitempty" yaml:"ssl_mode"`

	// FilePath is the database file for SQLite. ":memory:" is accepted.
	FilePath string `json:"file_path,omitempty" yaml:"file_path"`
}

// TestResult reports the outcome of a connection round trip.
// A failed attempt is a normal result with Success false, not an error.
type TestResult struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	ServerVersion *string `json:"serverVersion"`
}

// ColumnInfo describes one column of a query result or table.
type ColumnInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"dataType"`
	Nullable     bool   `json:"nullable"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
}

// QueryResult is the outcome of executing one SQL script.
//
// A row-returning statement populates Columns/Rows and leaves AffectedRows
// nil; a side-effect statement leaves Columns/Rows empty and populates
// AffectedRows. A multi-statement script carries the last row-returning
// statement's grid together with the summed affected count.
type QueryResult struct {
	Columns         []ColumnInfo `json:"columns"`
	Rows            [][]any      `json:"rows"`
	AffectedRows    *int64       `json:"affectedRows"`
	ExecutionTimeMs int64        `json:"executionTimeMs"`
}

// TableInfo is one entry of a database's table listing.
type TableInfo struct {
	Name      string  `json:"name"`
	Schema    *string `json:"schema"`
	TableType string  `json:"tableType"`
	RowCount  *int64  `json:"rowCount"`
}

// ForeignKeyInfo is one outgoing foreign-key edge of a table.
type ForeignKeyInfo struct {
	Column           string `json:"column"`
	ReferencesTable  string `json:"referencesTable"`
	ReferencesColumn string `json:"referencesColumn"`
}

// TableSchema is the basic structural description of one table.
type TableSchema struct {
	TableName   string           `json:"tableName"`
	Columns     []ColumnInfo     `json:"columns"`
	PrimaryKeys []string         `json:"primaryKeys"`
	ForeignKeys []ForeignKeyInfo `json:"foreignKeys"`
}

// IndexInfo describes one index of a table.
type IndexInfo struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"isUnique"`
	IsPrimary bool     `json:"isPrimary"`
}

// ConstraintInfo describes one table constraint (CHECK, UNIQUE, EXCLUSION).
type ConstraintInfo struct {
	Name           string `json:"name"`
	ConstraintType string `json:"constraintType"`
	Definition     string `json:"definition"`
}

// ExtendedColumnInfo carries the per-column detail shown in properties views.
type ExtendedColumnInfo struct {
	Name         string  `json:"name"`
	DataType     string  `json:"dataType"`
	Nullable     bool    `json:"nullable"`
	IsPrimaryKey bool    `json:"isPrimaryKey"`
	DefaultValue *string `json:"defaultValue"`
	Comment      *string `json:"comment"`
}

// TableProperties is the full introspection result for one table.
// RowCount and TableComment are best-effort: nil when the lookup fails.
type TableProperties struct {
	TableName    string               `json:"tableName"`
	Schema       *string              `json:"schema"`
	Columns      []ExtendedColumnInfo `json:"columns"`
	PrimaryKeys  []string             `json:"primaryKeys"`
	ForeignKeys  []ForeignKeyInfo     `json:"foreignKeys"`
	Indexes      []IndexInfo          `json:"indexes"`
	Constraints  []ConstraintInfo     `json:"constraints"`
	RowCount     *int64               `json:"rowCount"`
	TableComment *string              `json:"tableComment"`
}

// TableRelationship is a directed foreign-key edge. Relationship discovery
// for a table returns edges in both directions: those where the table is
// the source and those where it is the target.
type TableRelationship struct {
	SourceTable    string  `json:"sourceTable"`
	SourceColumn   string  `json:"sourceColumn"`
	TargetTable    string  `json:"targetTable"`
	TargetColumn   string  `json:"targetColumn"`
	ConstraintName *string `json:"constraintName"`
}
