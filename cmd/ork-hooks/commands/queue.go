package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/guard"
	"github.com/ork-ai/orkhooks/internal/memsync"
	"github.com/ork-ai/orkhooks/internal/queue"
	"github.com/ork-ai/orkhooks/internal/store"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and maintain the memory queues",
	Long: `Inspect and maintain the two outbound memory queues.

The graph queue holds knowledge-graph operations; the mem0 queue holds
entries for an external memory server. 'sync' drains the mem0 queue into
the server configured under memory.command and archives it on success.`,
}

var queueStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue depth and pending work",
	RunE:  runQueueStatus,
}

var queueSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the mem0 queue to the configured memory server",
	RunE:  runQueueSync,
}

var queueClearCmd = &cobra.Command{
	Use:   "clear <graph|mem0>",
	Short: "Delete a queue without processing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueClear,
}

var queueArchiveCmd = &cobra.Command{
	Use:   "archive <graph|mem0>",
	Short: "Move a queue into the archive directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueArchive,
}

func init() {
	queueCmd.AddCommand(queueStatusCmd)
	queueCmd.AddCommand(queueSyncCmd)
	queueCmd.AddCommand(queueClearCmd)
	queueCmd.AddCommand(queueArchiveCmd)
}

// queueFile maps a queue argument to its store file name.
func queueFile(arg string) (string, error) {
	switch arg {
	case "graph":
		return store.GraphQueueFile, nil
	case "mem0":
		return store.Mem0QueueFile, nil
	}
	return "", fmt.Errorf("unknown queue %q (graph or mem0)", arg)
}

func runQueueStatus(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}

	unsubscribe := guard.RegisterAudit(st)
	defer unsubscribe()

	graphOps, graphCorrupt := queue.ReadGraphQueue(st)
	agg := queue.Aggregate(graphOps)

	// The graph queue has no in-process consumer, so reading and
	// aggregating it here is its processing moment.
	event.PublishSync(event.Event{
		Type: event.QueueProcessed,
		Data: event.QueueProcessedData{
			Queue:   "graph",
			Read:    len(graphOps),
			Kept:    len(graphOps),
			Corrupt: graphCorrupt,
		},
	})

	mem0Entries, mem0Corrupt := queue.ReadMem0Queue(st)
	deduped := queue.Deduplicate(mem0Entries)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUEUE\tDEPTH\tCORRUPT\tPENDING\t")
	fmt.Fprintf(w, "graph\t%d\t%d\t%d entities, %d relations, %d observations\t\n",
		len(graphOps), graphCorrupt, len(agg.Entities), len(agg.Relations), len(agg.Observations))
	fmt.Fprintf(w, "mem0\t%d\t%d\t%d after dedupe\t\n",
		len(mem0Entries), mem0Corrupt, len(deduped))
	return w.Flush()
}

func runQueueSync(cmd *cobra.Command, args []string) error {
	cfg, st, err := projectStore()
	if err != nil {
		return err
	}
	if cfg.Memory.Command == "" {
		return fmt.Errorf("no memory server configured. Set memory.command in .ork/settings.json")
	}

	res, err := memsync.New(st, cfg.Memory).Sync(cmd.Context())
	if err != nil {
		return err
	}
	if res.Read == 0 {
		fmt.Println("Nothing to sync.")
		return nil
	}

	fmt.Printf("Synced %d of %d entries (%d duplicates dropped)\n",
		res.Synced, res.Read, res.Read-res.Deduped)
	if res.Archive != "" {
		fmt.Printf("Queue archived to %s\n", res.Archive)
	}
	return nil
}

func runQueueClear(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}
	name, err := queueFile(args[0])
	if err != nil {
		return err
	}

	if err := queue.Clear(st, name); err != nil {
		return err
	}
	fmt.Printf("Cleared %s\n", name)
	return nil
}

func runQueueArchive(cmd *cobra.Command, args []string) error {
	_, st, err := projectStore()
	if err != nil {
		return err
	}
	name, err := queueFile(args[0])
	if err != nil {
		return err
	}

	archive, err := queue.Archive(st, name)
	if err != nil {
		return err
	}
	if archive == "" {
		fmt.Printf("Nothing to archive in %s\n", name)
		return nil
	}
	fmt.Printf("Archived %s to %s\n", name, archive)
	return nil
}
