package schema

// Custom string types for type safety.
type (
	// HealthStatus represents the tri-state health classification of a repo.
	HealthStatus string

	// CIStatus represents the normalized CI state of a repo.
	CIStatus string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string
)

// All health statuses supported. Red means the repo needs attention,
// yellow means watch, green means healthy.
const (
	RedStatus    HealthStatus = "red"
	YellowStatus HealthStatus = "yellow"
	GreenStatus  HealthStatus = "green"
)

// All CI statuses supported. CINone means the repo has no workflow runs at
// all, which scoring treats differently from CIUnknown.
const (
	CISuccess CIStatus = "success"
	CIFailure CIStatus = "failure"
	CIUnknown CIStatus = "unknown"
	CINone    CIStatus = "none"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidHealthStatuses lists all valid health statuses.
var ValidHealthStatuses = map[HealthStatus]struct{}{
	RedStatus:    {},
	YellowStatus: {},
	GreenStatus:  {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
