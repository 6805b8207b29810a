package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/seethroughlab/familliar-sub003/internal/downloads"
)

var styles = NewPalette("#7D56F4", "#5FAFFF", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	active lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
}

func NewPalette(t, a, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		active: NewBold(a),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
	}
}

// statusStyle maps a job status to the palette entry used to render it.
func statusStyle(status downloads.Status) lipgloss.Style {
	switch status {
	case downloads.StatusDownloading:
		return styles.active
	case downloads.StatusCompleted:
		return styles.ok
	case downloads.StatusFailed:
		return styles.err
	case downloads.StatusCancelled:
		return styles.warn
	default:
		return styles.help
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
