package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ffmpegout/internal/logging"
	"ffmpegout/internal/preflight"
)

type checkOutput struct {
	JobID   string             `json:"job_id"`
	Output  string             `json:"output"`
	Temps   []string           `json:"temps"`
	RootPID uint32             `json:"root_pid"`
	Passed  bool               `json:"passed"`
	Error   string             `json:"error,omitempty"`
	Results []preflight.Result `json:"results"`
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var temps []string
	var pid int
	var jobID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check OUTPUT",
		Short: "Validate an output file before the encoder writes it",
		Long: "Runs the pre-write checks for OUTPUT and each --temp file: the output directory " +
			"is writable, temp files can be created and locked, no path is held open by the " +
			"host application's process tree, and the encoder binaries are installed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := ctx.rootPID(pid)
			if err != nil {
				return err
			}
			if strings.TrimSpace(jobID) == "" {
				jobID = ctx.sessionID
			}
			logger := ctx.ensureLogger()

			job := preflight.Job{ID: jobID, Output: args[0], Temps: temps}
			results := preflight.RunAll(cmd.Context(), cfg, job,
				preflight.WithScanner(preflight.NewScanner(cfg, root, logger)),
				preflight.WithLogger(logger),
			)
			blocking := preflight.FirstBlocking(results)
			if blocking != nil {
				logging.ErrorWithContext(logging.WithContext(logging.WithJobID(cmd.Context(), jobID), logger),
					"output rejected", "output_rejected",
					logging.String(logging.FieldCandidate, job.Output),
					logging.Error(blocking),
				)
			}

			if asJSON {
				payload := checkOutput{
					JobID:   jobID,
					Output:  job.Output,
					Temps:   append([]string{}, temps...),
					RootPID: uint32(root),
					Passed:  blocking == nil,
					Results: results,
				}
				if blocking != nil {
					payload.Error = blocking.Error()
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
				return blocking
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				rows = append(rows, []string{res.Name, statusMarker(res.Passed, colorize), res.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if blocking == nil {
				fmt.Fprintf(out, "%s is ready to be written\n", job.Output)
			}
			return blocking
		},
	}

	cmd.Flags().StringArrayVar(&temps, "temp", nil, "Temporary file the encoder will write (repeatable)")
	cmd.Flags().IntVar(&pid, "pid", 0, "Root of the process tree to check (default: the calling process)")
	cmd.Flags().StringVar(&jobID, "job", "", "Job identifier recorded in logs (default: the session id)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit results as JSON")
	return cmd
}
