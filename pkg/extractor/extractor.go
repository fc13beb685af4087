// Package extractor turns the gold-price page into a markdown-like text
// summary for an AI agent.
//
// Tables are labelled by position, not by content: the first <table> on the
// page is the local association's price board and the second is the SJC
// board. Anything after the second table is ignored. If the page layout ever
// swaps the two, the labels will be wrong.
package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/giavang/internal/models"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

const (
	LocalTableHeading = "Giá vàng Hiệp hội vàng bạc Giao Thủy Hải Hậu"
	SJCTableHeading   = "Bảng giá vàng SJC"

	NoTableMessage = "Không tìm thấy bảng giá vàng nào trong nội dung trang."
	NoDataMessage  = "Không trích xuất được dữ liệu giá vàng từ trang."

	UpdatedNotePrefix = "Thông tin bổ sung từ trang (tiếng Việt): "

	AgentHint = "Gợi ý cho AI agent: Hãy dùng dữ liệu bảng giá vàng ở trên và " +
		"giải thích / so sánh cho người dùng **bằng tiếng Việt dễ hiểu**."

	updatedMarker = "cập nhật"
)

// tableHeadings is indexed by table position in the document.
var tableHeadings = []string{LocalTableHeading, SJCTableHeading}

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Format is Render(Extract(html)). It never fails; missing structure yields
// one of the fallback messages.
func (e *Extractor) Format(htmlText string) string {
	return Render(e.Extract(htmlText))
}

func (e *Extractor) Extract(htmlText string) models.Page {
	doc, err := Parse(htmlText)
	if err != nil {
		return models.Page{}
	}
	return ExtractDocument(doc)
}

func Format(htmlText string) string {
	return New().Format(htmlText)
}

func Parse(htmlText string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlText))
}

func ExtractDocument(doc *goquery.Document) models.Page {
	var page models.Page

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		page.Title = strings.Join(strippedStrings(h1.Get(0)), "")
	}

	tables := doc.Find("table")
	page.TableCount = tables.Length()
	tables.EachWithBreak(func(i int, table *goquery.Selection) bool {
		if i >= len(tableHeadings) {
			return false
		}
		page.Tables = append(page.Tables, extractTable(table, tableHeadings[i]))
		return true
	})

	if len(doc.Nodes) > 0 {
		page.UpdatedNote = findUpdatedNote(doc.Nodes[0])
	}

	return page
}

func extractTable(table *goquery.Selection, heading string) models.Table {
	t := models.Table{Heading: heading}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		t.Empty = true
		return t
	}

	rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		t.Header = append(t.Header, cellText(cell))
	})

	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		var cols []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cols = append(cols, cellText(cell))
		})
		if len(cols) > 0 {
			t.Rows = append(t.Rows, cols)
		}
	})

	return t
}

// cellText collapses every text fragment in the cell, however deeply nested,
// into one space-separated value: "15.140.000<br><font>▲50K</font>" becomes
// "15.140.000 ▲50K".
func cellText(cell *goquery.Selection) string {
	return strings.Join(strippedStrings(cell.Get(0)), " ")
}

// strippedStrings returns the trimmed, non-empty text nodes under n in
// document order. Comments are not text nodes and are skipped.
func strippedStrings(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// findUpdatedNote returns the first text node, anywhere in the page, that
// mentions "cập nhật". First match wins even if it is unrelated text.
func findUpdatedNote(root *html.Node) string {
	marker := norm.NFC.String(updatedMarker)
	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.TextNode {
			if strings.Contains(norm.NFC.String(strings.ToLower(n.Data)), marker) {
				found = strings.TrimSpace(n.Data)
				return true
			}
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}
