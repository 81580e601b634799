package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"o2rconv/internal/catalog"
	"o2rconv/internal/history"
)

// column renders one field of T.
type column[T any] struct {
	header string
	right  bool
	cell   func(T) string
}

var catalogColumns = []column[catalog.Identity]{
	{header: "Title", cell: func(e catalog.Identity) string { return e.Title }},
	{header: "Region", cell: func(e catalog.Identity) string { return e.Region }},
	{header: "Version", cell: func(e catalog.Identity) string { return e.Version }},
	{header: "Compressed", cell: func(e catalog.Identity) string { return yesNo(e.Compressed) }},
	{header: "Archive", cell: func(e catalog.Identity) string { return e.Game.ArchiveName() }},
	{header: "SHA-1", cell: func(e catalog.Identity) string { return e.Digest }},
}

func historyColumns(now time.Time) []column[history.Run] {
	return []column[history.Run]{
		{header: "Started", cell: func(r history.Run) string {
			return humanize.RelTime(r.StartedAt, now, "ago", "from now")
		}},
		{header: "ROM", cell: func(r history.Run) string {
			if r.Title == "" {
				return r.ROMPath
			}
			return r.Title
		}},
		{header: "Status", cell: func(r history.Run) string {
			if r.Status == history.StatusFailed {
				return fmt.Sprintf("%s (%s): %s", r.Status, r.FailureKind, r.Message)
			}
			return r.Status
		}},
		{header: "Duration", right: true, cell: func(r history.Run) string {
			return r.Duration().Round(time.Second).String()
		}},
		{header: "Output", cell: func(r history.Run) string { return r.OutputPath }},
		{header: "Size", right: true, cell: func(r history.Run) string {
			if r.OutputSize <= 0 {
				return ""
			}
			return humanize.IBytes(uint64(r.OutputSize))
		}},
	}
}

func renderTable[T any](columns []column[T], items []T) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header = append(header, col.header)
		align := text.AlignLeft
		if col.right {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, item := range items {
		row := make(table.Row, 0, len(columns))
		for _, col := range columns {
			row = append(row, col.cell(item))
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

type catalogEntryJSON struct {
	Title      string `json:"title"`
	Region     string `json:"region"`
	Version    string `json:"version"`
	Compressed bool   `json:"compressed"`
	Game       string `json:"game"`
	Archive    string `json:"archive"`
	Digest     string `json:"sha1"`
}

func writeCatalogJSON(cmd *cobra.Command, entries []catalog.Identity) error {
	out := make([]catalogEntryJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, catalogEntryJSON{
			Title:      entry.Title,
			Region:     entry.Region,
			Version:    entry.Version,
			Compressed: entry.Compressed,
			Game:       string(entry.Game),
			Archive:    entry.Game.ArchiveName(),
			Digest:     entry.Digest,
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
