package engine

import "strconv"

// ItemsPerPage is the fixed page size of the catalog views.
const ItemsPerPage = 12

// windowSize is the maximum number of numbered buttons around the current page.
const windowSize = 5

// TotalPages returns ceil(n/size). A non-positive size yields zero.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Paginate returns the slice [(page-1)*size, page*size) of items clipped to
// bounds, and the total page count. Pages outside 1..total yield an empty
// slice, never an error.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	total := TotalPages(len(items), size)
	if page < 1 || page > total {
		return []T{}, total
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	return items[start:end:end], total
}

// Window is the set of page-number buttons shown around the current page.
type Window struct {
	Current int
	Total   int
	Start   int
	End     int
}

// PageWindow centers up to five numbered buttons on current, shifting the
// window left when it would run past the last page.
func PageWindow(current, total int) Window {
	start := max(1, current-2)
	end := min(total, start+windowSize-1)
	if end-start < windowSize-1 && start > 1 {
		start = max(1, end-(windowSize-1))
	}
	return Window{Current: current, Total: total, Start: start, End: end}
}

// Hidden reports whether pagination controls should not be shown at all.
func (w Window) Hidden() bool {
	return w.Total <= 1
}

// ShowFirst reports whether page 1 gets its own button before the window.
func (w Window) ShowFirst() bool { return w.Start > 1 }

// LeadingEllipsis reports a gap between page 1 and the window.
func (w Window) LeadingEllipsis() bool { return w.Start > 2 }

// ShowLast reports whether the last page gets its own button after the window.
func (w Window) ShowLast() bool { return w.End < w.Total }

// TrailingEllipsis reports a gap between the window and the last page.
func (w Window) TrailingEllipsis() bool { return w.End < w.Total-1 }

func (w Window) PrevEnabled() bool { return w.Current > 1 }
func (w Window) NextEnabled() bool { return w.Current < w.Total }

// ButtonKind distinguishes pagination controls.
type ButtonKind string

const (
	ButtonPrev     ButtonKind = "prev"
	ButtonPage     ButtonKind = "page"
	ButtonEllipsis ButtonKind = "ellipsis"
	ButtonNext     ButtonKind = "next"
)

// PageButton is one pagination control. Page is the navigation target and is
// zero for ellipses and disabled prev/next buttons.
type PageButton struct {
	Kind     ButtonKind `json:"kind"`
	Label    string     `json:"label"`
	Page     int        `json:"page,omitempty"`
	Current  bool       `json:"current,omitempty"`
	Disabled bool       `json:"disabled,omitempty"`
}

// Buttons expands the window into controls: Previous, optional first page and
// ellipsis, the numbered window, optional ellipsis and last page, Next.
// A hidden window has no buttons.
func (w Window) Buttons() []PageButton {
	if w.Hidden() {
		return nil
	}

	buttons := make([]PageButton, 0, windowSize+6)
	prev := PageButton{Kind: ButtonPrev, Label: "Previous", Disabled: !w.PrevEnabled()}
	if !prev.Disabled {
		prev.Page = w.Current - 1
	}
	buttons = append(buttons, prev)

	if w.ShowFirst() {
		buttons = append(buttons, pageButton(1, w.Current))
		if w.LeadingEllipsis() {
			buttons = append(buttons, PageButton{Kind: ButtonEllipsis, Label: "..."})
		}
	}
	for p := w.Start; p <= w.End; p++ {
		buttons = append(buttons, pageButton(p, w.Current))
	}
	if w.ShowLast() {
		if w.TrailingEllipsis() {
			buttons = append(buttons, PageButton{Kind: ButtonEllipsis, Label: "..."})
		}
		buttons = append(buttons, pageButton(w.Total, w.Current))
	}

	next := PageButton{Kind: ButtonNext, Label: "Next", Disabled: !w.NextEnabled()}
	if !next.Disabled {
		next.Page = w.Current + 1
	}
	return append(buttons, next)
}

func pageButton(page, current int) PageButton {
	return PageButton{Kind: ButtonPage, Label: strconv.Itoa(page), Page: page, Current: page == current}
}
