package loader

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// FileSummary lists the organisms taken from one file, in population order.
type FileSummary struct {
	File string  `json:"file" yaml:"file"`
	IDs  []int64 `json:"ids" yaml:"ids"`
}

// Summary describes where the organisms of a population come from.
type Summary struct {
	Random  int           `json:"random" yaml:"random"`
	Default int           `json:"default" yaml:"default"`
	Files   []FileSummary `json:"files" yaml:"files"`
}

// Total returns the number of organisms summarized.
func (s Summary) Total() int {
	n := s.Random + s.Default
	for _, f := range s.Files {
		n += len(f.IDs)
	}
	return n
}

// Summarize counts sentinels and groups loaded IDs by source file. Files are
// listed in order of first appearance.
func Summarize(orgs []Organism) Summary {
	var s Summary
	idx := make(map[string]int)
	for _, o := range orgs {
		switch o.Kind {
		case types.RefRandom:
			s.Random++
		case types.RefDefault:
			s.Default++
		case types.RefLoaded:
			i, ok := idx[o.File]
			if !ok {
				i = len(s.Files)
				idx[o.File] = i
				s.Files = append(s.Files, FileSummary{File: o.File})
			}
			s.Files[i].IDs = append(s.Files[i].IDs, o.ID)
		}
	}
	return s
}

// WriteTo renders the summary for people reading the console.
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	fmt.Fprintf(cw, "Loading %d Random organisms\n", s.Random)
	fmt.Fprintf(cw, "Loading %d Default organisms\n", s.Default)
	if len(s.Files) > 0 {
		table := tablewriter.NewWriter(cw)
		table.SetHeader([]string{"File", "Organisms", "IDs"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)
		table.SetRowLine(false)
		for _, f := range s.Files {
			table.Append([]string{f.File, strconv.Itoa(len(f.IDs)), joinIDs(f.IDs)})
		}
		table.Render()
	}
	return cw.n, cw.err
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
