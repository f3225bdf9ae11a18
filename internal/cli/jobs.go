package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
)

const jobPollInterval = time.Second

var jobsWait bool

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage background rebuild jobs on a running server",
	Long: `Start, list and inspect background index rebuilds on a running server.

Examples:
  adapted jobs list
  adapted jobs start resources --wait
  adapted jobs get ab12cd34`,
}

var jobsListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List recent rebuild jobs",
	Annotations: map[string]string{remoteAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := remoteClient().ListJobs(cmd.Context())
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(jobs) == 0 {
			fmt.Fprintln(out, "No jobs.")
			return nil
		}
		for i := range jobs {
			printJobLine(out, &jobs[i])
		}
		return nil
	},
}

var jobsGetCmd = &cobra.Command{
	Use:         "get <id>",
	Short:       "Show one rebuild job",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{remoteAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := remoteClient().GetJob(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get job %s: %w", args[0], err)
		}
		printJob(cmd.OutOrStdout(), job)
		return nil
	},
}

var jobsStartCmd = &cobra.Command{
	Use:         "start [collection]",
	Short:       "Start a background rebuild",
	Args:        cobra.MaximumNArgs(1),
	ValidArgs:   []string{"resources", "questions", "projects"},
	Annotations: map[string]string{remoteAnnotation: "true"},
	RunE:        runJobsStart,
}

func init() {
	jobsStartCmd.Flags().BoolVarP(&jobsWait, "wait", "w", false, "poll until the job finishes")
	jobsCmd.AddCommand(jobsListCmd, jobsGetCmd, jobsStartCmd)
}

func runJobsStart(cmd *cobra.Command, args []string) error {
	var collection string
	if len(args) == 1 {
		if _, err := parseCollections(args); err != nil {
			return err
		}
		collection = args[0]
	}

	c := remoteClient()
	job, err := c.RebuildIndexAsync(cmd.Context(), collection)
	if err != nil {
		return fmt.Errorf("start rebuild on %s: %w", c.Endpoint(), err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Started job %s\n", job.ID)
	if !jobsWait {
		return nil
	}

	job, err = waitForJob(cmd.Context(), jobPollInterval, job.ID, c.GetJob)
	if err != nil {
		return err
	}
	printJob(out, job)
	if job.Status == service.JobStatusFailed {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}
	return nil
}

// waitForJob polls get until the job reaches a terminal state.
func waitForJob(ctx context.Context, every time.Duration, id string, get func(context.Context, string) (*service.Job, error)) (*service.Job, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		job, err := get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("poll job %s: %w", id, err)
		}
		if job.Status.Finished() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printJobLine(w io.Writer, job *service.Job) {
	fmt.Fprintf(w, "%-10s %-10s %d/%d  %s\n",
		job.ID, job.Status, job.Progress, job.Total, job.StartedAt.Format(time.DateTime))
}

func printJob(w io.Writer, job *service.Job) {
	fmt.Fprintf(w, "Job %s: %s (%d/%d)\n", job.ID, job.Status, job.Progress, job.Total)
	for _, r := range job.Results {
		line := fmt.Sprintf("  %-10s %5d docs  %s", r.Collection, r.Documents, time.Duration(r.DurationMs)*time.Millisecond)
		if r.Error != "" {
			line += "  error: " + r.Error
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	if job.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", job.Error)
	}
}
