package domain

import "context"

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	Run(ctx context.Context) (Report, error)
}

// PageSource fetches one page of the runs listing
type PageSource interface {
	FetchPage(ctx context.Context, page int) (Page, error)
}

// PageCache stores raw pages between runs
type PageCache interface {
	Has(page int) (bool, error)
	Put(page int, body []byte) error
	PagePath(page int) string
}

// TableWriter serializes the derived table and deposits it in dir, returning the final path
type TableWriter interface {
	WriteTable(ctx context.Context, rows []Row, dir string) (string, error)
}

// Sink is an optional database destination for the derived table
type Sink interface {
	Name() string
	Write(ctx context.Context, rows []Row) error
}
