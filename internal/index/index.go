package index

// Catalog defines the catalog operations used by the read surfaces and the
// conversion driver. Consumers depend on this interface rather than *DB.
type Catalog interface {
	SaveRun(run Run, snap Snapshot) error
	LatestRun() (*Run, error)

	LookupPage(title string) (*PageRow, error)
	ListPages(limit, offset int, prefix string) ([]PageRow, int, error)
	Redirect(title string) (string, error)
	ListRedirects() ([]RedirectRow, error)
	ListErrors() ([]ErrorRow, error)

	UpsertDocument(d DocumentRow, body string) error
	DeleteDocument(path string) error
	GetDocument(path string) (*DocumentRow, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)

	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
