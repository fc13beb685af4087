package models

// Table is one rendered price table. Rows keep the page's cell order; ragged
// rows are passed through untouched.
type Table struct {
	Heading string
	Header  []string
	Rows    [][]string
	// Empty is set when the source <table> had no <tr> at all.
	Empty bool
}

// Page is everything the extractor pulled out of one fetched document.
type Page struct {
	Title       string
	Tables      []Table
	UpdatedNote string
	// TableCount is the number of <table> elements found, including the ones
	// past the second that are not rendered.
	TableCount int
}
