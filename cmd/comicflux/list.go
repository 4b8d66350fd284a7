package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"comicflux/internal/viewer"
)

// pageLister prints the page table for -list
type pageLister struct {
	out io.Writer

	// Color functions (can be disabled for testing)
	cyan func(a ...interface{}) string
	gray func(a ...interface{}) string
	red  func(a ...interface{}) string
}

func newPageLister(out io.Writer) *pageLister {
	return &pageLister{
		out:  out,
		cyan: color.New(color.FgCyan, color.Bold).SprintFunc(),
		gray: color.New(color.FgHiBlack).SprintFunc(),
		red:  color.New(color.FgRed).SprintFunc(),
	}
}

// newPageListerForTesting returns a lister without colors.
func newPageListerForTesting(out io.Writer) *pageLister {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	return &pageLister{out: out, cyan: noColor, gray: noColor, red: noColor}
}

// Print writes one line per page with its decoded size and returns the
// number of pages that failed to decode. The cursor is left on the first
// page.
func (l *pageLister) Print(nav *viewer.Navigator) (int, error) {
	if nav == nil {
		return 0, viewer.ErrEmptyArchive
	}

	session := nav.Session()
	fmt.Fprintf(l.out, "%s\n", l.cyan(fmt.Sprintf("%s (%s, %d pages)",
		session.ArchivePath(), session.Format(), nav.PageCount())))

	bad := 0
	for i := 0; i < nav.PageCount(); i++ {
		nav.SeekTo(i)
		img, err := nav.CurrentImage()
		if err != nil {
			bad++
			fmt.Fprintf(l.out, "%4d  %s  %s\n", i+1, nav.CurrentPageName(), l.red(err.Error()))
			continue
		}
		b := img.Bounds()
		fmt.Fprintf(l.out, "%4d  %s  %s\n", i+1, nav.CurrentPageName(), l.gray(fmt.Sprintf("%dx%d", b.Dx(), b.Dy())))
	}
	nav.SeekTo(0)

	if bad > 0 {
		fmt.Fprintf(l.out, "%s\n", l.red(fmt.Sprintf("%d of %d pages could not be decoded", bad, nav.PageCount())))
	}
	return bad, nil
}
