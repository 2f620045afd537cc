package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ffmpegout/internal/openfiles"
	"ffmpegout/internal/preflight"
)

type scanOutput struct {
	ScanID     string          `json:"scan_id"`
	RootPID    uint32          `json:"root_pid"`
	Processes  []openfiles.PID `json:"processes"`
	Files      []string        `json:"files"`
	Stats      openfiles.Stats `json:"stats"`
	Degraded   string          `json:"degraded,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

func newScanOutput(res openfiles.Result) scanOutput {
	out := scanOutput{
		ScanID:     res.ScanID,
		RootPID:    uint32(res.Root),
		Processes:  res.Processes.Sorted(),
		Files:      append([]string{}, res.Files...),
		Stats:      res.Stats,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Degraded != nil {
		out.Degraded = res.Degraded.Error()
	}
	return out
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var pid int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the disk files held open by a process tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := ctx.rootPID(pid)
			if err != nil {
				return err
			}
			res := preflight.NewScanner(cfg, root, ctx.ensureLogger()).Scan()
			if asJSON {
				return writeJSON(cmd, newScanOutput(res))
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(res.Files))
			for _, file := range res.Files {
				rows = append(rows, []string{file})
			}
			fmt.Fprintln(out, renderTable([]string{"Open file"}, rows, nil))
			fmt.Fprintf(out, "root pid %d: %d processes, %d handles, %d files (%d not files, %d not on disk, %d unresolved, %d import failures) in %s\n",
				res.Root, res.Stats.Processes, res.Stats.Records, res.Stats.Files,
				res.Stats.NonFile, res.Stats.NotDisk, res.Stats.Unresolved, res.Stats.ImportFailed,
				res.Duration.Round(time.Millisecond))
			if res.Degraded != nil {
				fmt.Fprintf(out, "scan incomplete: %v\n", res.Degraded)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&pid, "pid", 0, "Root of the process tree to scan (default: the calling process)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the scan as JSON")
	return cmd
}

type treeOutput struct {
	RootPID   uint32          `json:"root_pid"`
	Processes []openfiles.PID `json:"processes"`
	Error     string          `json:"error,omitempty"`
}

func newTreeCommand(ctx *commandContext) *cobra.Command {
	var pid int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "List the processes descending from the root process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := ctx.rootPID(pid)
			if err != nil {
				return err
			}
			sys := openfiles.NewSystem(openfiles.NativeOptions{
				HandleTableAttempts: cfg.OpenFiles.HandleTableAttempts,
				HandleTableSlack:    cfg.OpenFiles.HandleTableSlackKiB * 1024,
			})
			set, treeErr := openfiles.ProcessTree(sys, root)

			if asJSON {
				payload := treeOutput{RootPID: uint32(root), Processes: set.Sorted()}
				if treeErr != nil {
					payload.Error = treeErr.Error()
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
				return treeErr
			}
			if treeErr != nil {
				return treeErr
			}

			rows := make([][]string, 0, len(set))
			for _, member := range set.Sorted() {
				label := ""
				if member == root {
					label = "root"
				}
				rows = append(rows, []string{strconv.FormatUint(uint64(member), 10), label})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"PID", ""}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().IntVar(&pid, "pid", 0, "Root process (default: the calling process)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the process list as JSON")
	return cmd
}
