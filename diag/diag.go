// Package diag renders point-in-time pool and queue statistics as tables
// for operator debugging. It is a reporting surface only; it never mutates
// the primitives it describes.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/utkarsh5026/devio/pool"
	"github.com/utkarsh5026/devio/queue"
)

var header = color.New(color.Bold, color.FgCyan)

// WritePoolStats renders one row per pool snapshot.
func WritePoolStats(w io.Writer, stats ...pool.Stats) error {
	if len(stats) == 0 {
		return nil
	}

	_, _ = header.Fprintln(w, "BLOCK POOLS")

	table := tablewriter.NewWriter(w)
	table.Header("Pool", "Block Size", "Min", "Total", "Free", "In Use",
		"Acquires", "Grow Allocs", "Purged", "Corruptions", "Double Frees")

	for _, s := range stats {
		_ = table.Append(
			s.Name,
			fmt.Sprintf("%d", s.BlockSize),
			fmt.Sprintf("%d", s.MinBlocks),
			fmt.Sprintf("%d", s.TotalBlocks),
			fmt.Sprintf("%d", s.Available),
			fmt.Sprintf("%d", s.InUse),
			fmt.Sprintf("%d", s.Acquires),
			fmt.Sprintf("%d", s.GrowAllocs),
			fmt.Sprintf("%d", s.Purged),
			fmt.Sprintf("%d", s.Corruptions),
			fmt.Sprintf("%d", s.DoubleFrees),
		)
	}

	return table.Render()
}

// WriteQueueStats renders one row per queue snapshot.
func WriteQueueStats(w io.Writer, stats ...queue.Stats) error {
	if len(stats) == 0 {
		return nil
	}

	_, _ = header.Fprintln(w, "DISPATCH QUEUES")

	table := tablewriter.NewWriter(w)
	table.Header("Queue", "State", "Pending", "Pausers",
		"Submitted", "Dispatched", "Cancelled")

	for _, s := range stats {
		_ = table.Append(
			s.Name,
			s.State.String(),
			fmt.Sprintf("%d", s.Pending),
			fmt.Sprintf("%d", s.Pausers),
			fmt.Sprintf("%d", s.Submitted),
			fmt.Sprintf("%d", s.Dispatched),
			fmt.Sprintf("%d", s.Cancelled),
		)
	}

	return table.Render()
}
