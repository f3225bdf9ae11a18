package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
)

var (
	jsonOutput bool

	roadmapSummary    string
	roadmapHours      float64
	roadmapDifficulty string
	roadmapStyle      string
	roadmapRanking    string
	quizDomain        string
	quizDifficulty    string
	quizTags          []string
	rankMethod        string
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap <topic>",
	Short: "Generate a learning roadmap",
	Long: `Generate a five-checkpoint roadmap grounded in indexed resources.

Examples:
  adapted roadmap "Go concurrency"
  adapted roadmap "React" --hours 2 --ranking rule-based
  adapted roadmap "SQL" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roadmap, failure := pipeline.Orchestrator.GenerateRoadmap(cmd.Context(), service.RoadmapRequest{
			Topic:         strings.Join(args, " "),
			Summary:       roadmapSummary,
			HoursPerDay:   roadmapHours,
			Difficulty:    roadmapDifficulty,
			LearningStyle: roadmapStyle,
			RankingMethod: roadmapRanking,
		})
		if failure != nil {
			return errors.New(failure.Error)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), roadmap)
		}
		printRoadmap(cmd.OutOrStdout(), roadmap)
		return nil
	},
}

var quizCmd = &cobra.Command{
	Use:   "quiz <topic>",
	Short: "Generate a multiple-choice quiz",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiz, failure := pipeline.Orchestrator.GenerateQuiz(cmd.Context(), service.QuizRequest{
			Topic:      strings.Join(args, " "),
			Domain:     quizDomain,
			Difficulty: quizDifficulty,
			Tags:       quizTags,
		})
		if failure != nil {
			return errors.New(failure.Error)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), quiz)
		}
		printQuiz(cmd.OutOrStdout(), quiz)
		return nil
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank <topic>",
	Short: "Rank resources for a topic from introductory to advanced",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ranked, used, err := pipeline.Orchestrator.RankResources(cmd.Context(), strings.Join(args, " "), rankMethod)
		if err != nil {
			return fmt.Errorf("rank resources: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), ranked)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Ranked %d resources (%s)\n\n", len(ranked), used)
		for _, r := range ranked {
			fmt.Fprintf(out, "%3d. [%s] %s\n     %s\n", r.Rank, r.Difficulty, r.Title, r.URL)
			if r.Reasoning != "" {
				fmt.Fprintf(out, "     %s\n", r.Reasoning)
			}
		}
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <summary>",
	Short: "Recommend resources from a learner summary",
	Long: `Recommend up to three resources from a learner summary.

The summary is free text containing a "domain interests:" line and a
"visualLearning:" score.

Examples:
  adapted recommend $'domain interests: python, ml\nvisualLearning: 7.5'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := pipeline.Orchestrator.Recommendations(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("generate resources: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), records)
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No matching resources.")
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(out, "• %s (%s)\n  %s\n", r.Title, r.Difficulty, r.URL)
		}
		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project <title>",
	Short: "Show a project formatted into sections",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := pipeline.Projects.GetProject(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), project)
		}
		printProject(cmd.OutOrStdout(), project)
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List all projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		overview, err := pipeline.Projects.Overview(cmd.Context())
		if err != nil {
			return fmt.Errorf("get projects overview: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), overview)
		}
		out := cmd.OutOrStdout()
		for _, p := range overview {
			fmt.Fprintf(out, "• %s", p.Title)
			if len(p.Tags) > 0 {
				fmt.Fprintf(out, " [%s]", strings.Join(p.Tags, ", "))
			}
			fmt.Fprintf(out, "\n  %s\n", p.Link)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{roadmapCmd, quizCmd, rankCmd, recommendCmd, projectCmd, projectsCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "print raw JSON")
	}

	roadmapCmd.Flags().StringVar(&roadmapSummary, "summary", "", "summary of the learner's needs")
	roadmapCmd.Flags().Float64Var(&roadmapHours, "hours", 0, "study hours per day; sets checkpoint deadlines")
	roadmapCmd.Flags().StringVar(&roadmapDifficulty, "difficulty", "", "preferred difficulty")
	roadmapCmd.Flags().StringVar(&roadmapStyle, "style", "", "preferred learning style")
	roadmapCmd.Flags().StringVar(&roadmapRanking, "ranking", "", "rank resources first: model-scored or rule-based")

	quizCmd.Flags().StringVar(&quizDomain, "domain", service.DefaultQuizDomain, "broader field of the topic")
	quizCmd.Flags().StringVarP(&quizDifficulty, "difficulty", "d", service.DefaultQuizDifficulty, "question difficulty")
	quizCmd.Flags().StringSliceVarP(&quizTags, "tags", "t", nil, "tags that narrow the question pool")

	rankCmd.Flags().StringVarP(&rankMethod, "method", "m", "", "model-scored or rule-based (default $ADAPTED_RANKING_METHOD)")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRoadmap(w io.Writer, r *models.Roadmap) {
	fmt.Fprintf(w, "%s\n%s\n", r.MainTopic, strings.Repeat("═", len([]rune(r.MainTopic))))
	if r.Description != "" {
		fmt.Fprintf(w, "%s\n", r.Description)
	}
	for i, cp := range r.Checkpoints {
		fmt.Fprintf(w, "\n%d. %s (%.0fh", i+1, cp.Title, cp.TotalHoursNeeded)
		if cp.DeadlineDate != "" {
			fmt.Fprintf(w, ", due %s", cp.DeadlineDate)
		}
		fmt.Fprintln(w, ")")
		for _, line := range strings.Split(strings.TrimSpace(cp.Description), "\n") {
			if line != "" {
				fmt.Fprintf(w, "   %s\n", line)
			}
		}
		for _, res := range cp.Resources {
			fmt.Fprintf(w, "   • %s [%s] %s\n", res.Name, res.Type, res.URL)
		}
	}
	if r.Metadata != nil {
		fmt.Fprintf(w, "\nGrounded on %d resources (%s)\n", r.Metadata.ResourceCount, r.Metadata.RankingAlgorithm)
	}
}

func printQuiz(w io.Writer, q *models.Quiz) {
	fmt.Fprintf(w, "%s (%s)\n", q.Title, q.Difficulty)
	for i, question := range q.Questions {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, question.Question)
		for j, opt := range question.Options {
			fmt.Fprintf(w, "   %c) %s\n", 'a'+j, opt)
		}
		fmt.Fprintf(w, "   Answer: %s\n   %s\n", question.CorrectOption, question.Explanation)
	}
}

func printProject(w io.Writer, p *models.Project) {
	fmt.Fprintf(w, "%s\n%s\n", p.Title, p.Link)
	for _, section := range p.Content {
		fmt.Fprintf(w, "\n## %s\n", section.Title)
		for _, el := range section.Elements {
			switch el.Type {
			case "code":
				fmt.Fprintf(w, "```\n%s\n```\n", el.Content)
			case "image":
				fmt.Fprintf(w, "[image] %s\n", el.URL)
			default:
				fmt.Fprintf(w, "%s\n", el.Content)
			}
		}
	}
}
