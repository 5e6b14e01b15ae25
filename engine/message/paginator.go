package message

import (
	"strconv"
	"strings"
)

// Page is one slice of the archive.
type Page struct {
	Messages   []*Message `json:"messages"`
	Number     int        `json:"number"`
	TotalPages int        `json:"total_pages"`
	Total      int64      `json:"total"`
	PageSize   int        `json:"page_size"`
}

func (p *Page) HasPrevious() bool { return p.Number > 1 }
func (p *Page) HasNext() bool     { return p.Number < p.TotalPages }
func (p *Page) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}
func (p *Page) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

// StartIndex is the 1-based position of the first message on the page, or 0
// for an empty archive.
func (p *Page) StartIndex() int64 {
	if p.Total == 0 {
		return 0
	}
	return int64(p.PageSize)*int64(p.Number-1) + 1
}

// EndIndex is the 1-based position of the last message on the page.
func (p *Page) EndIndex() int64 {
	if p.Total == 0 {
		return 0
	}
	return p.StartIndex() + int64(len(p.Messages)) - 1
}

// totalPages never returns less than one so an empty archive still has a
// first page.
func totalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	pages := (total + int64(size) - 1) / int64(size)
	return int(pages)
}

// resolvePage turns a raw query value into a valid page number. Values that
// are not integers select the first page; numbers outside the range select
// the last page.
func resolvePage(raw string, pages int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if n < 1 || n > pages {
		return pages
	}
	return n
}
