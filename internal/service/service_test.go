package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/config"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/metrics"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/ranking"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter answers prompts in order. The first reply is usually the
// topic validation answer.
type scriptedCompleter struct {
	replies []string
	errs    []error
	prompts []string
}

func (s *scriptedCompleter) Generate(_ context.Context, prompt string) (string, error) {
	n := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if n < len(s.errs) && s.errs[n] != nil {
		return "", s.errs[n]
	}
	if n >= len(s.replies) {
		return "", errors.New("no scripted reply")
	}
	return s.replies[n], nil
}

type fakeRetriever struct {
	resources []models.Record
	questions []models.Record
	projects  map[string]models.Record
	err       error
	panic     bool

	topics []string
	quiz   []string
}

func (f *fakeRetriever) Resources(_ context.Context, topic string) ([]models.Record, error) {
	if f.panic {
		panic("retriever exploded")
	}
	f.topics = append(f.topics, topic)
	return f.resources, f.err
}

func (f *fakeRetriever) Questions(_ context.Context, topic, difficulty string, tags []string) ([]models.Record, error) {
	f.quiz = append(f.quiz, fmt.Sprintf("%s|%s|%s", topic, difficulty, strings.Join(tags, ",")))
	return f.questions, f.err
}

func (f *fakeRetriever) ProjectByTitle(_ context.Context, title string) (models.Record, error) {
	for t, r := range f.projects {
		if strings.EqualFold(t, title) {
			return r, nil
		}
	}
	return models.Record{}, retrieval.ErrNotFound
}

type fakeRanker struct {
	calls int
}

func (f *fakeRanker) RankResources(_ context.Context, resources []models.Record, topic string, method ranking.Method) ([]models.RankedResource, ranking.Method) {
	f.calls++
	return ranking.RankByRules(resources, topic), ranking.MethodRuleBased
}

func sampleResources(n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{
			Title:      fmt.Sprintf("Go resource %d", i),
			URL:        fmt.Sprintf("https://go.example/%d", i),
			Type:       "documentation",
			Difficulty: []string{"beginner", "intermediate", "advanced"}[i%3],
		}
	}
	return out
}

func roadmapJSON(checkpoints, resourcesEach int) string {
	type res struct {
		Name string `json:"name"`
		URL  string `json:"url"`
		Type string `json:"type"`
	}
	type cp struct {
		Title            string  `json:"title"`
		Description      string  `json:"description"`
		TotalHoursNeeded float64 `json:"totalHoursNeeded"`
		Resources        []res   `json:"resources"`
	}
	r := struct {
		MainTopic   string `json:"mainTopic"`
		Description string `json:"description"`
		Checkpoints []cp   `json:"checkpoints"`
	}{MainTopic: "Go", Description: "Learn Go"}
	for i := 0; i < checkpoints; i++ {
		c := cp{Title: fmt.Sprintf("Step %d", i+1), Description: "line one\nline two", TotalHoursNeeded: 12}
		for j := 0; j < resourcesEach; j++ {
			c.Resources = append(c.Resources, res{Name: "r", URL: fmt.Sprintf("https://go.example/%d", j), Type: "video"})
		}
		r.Checkpoints = append(r.Checkpoints, c)
	}
	b, _ := json.Marshal(r)
	return string(b)
}

func quizJSON(questions int, mutate func(i int, q map[string]any)) string {
	qs := make([]map[string]any, questions)
	for i := range qs {
		qs[i] = map[string]any{
			"question":      fmt.Sprintf("What is %d?", i),
			"options":       []string{"a", "b", "c", "d"},
			"correctOption": "A",
			"explanation":   "because",
		}
		if mutate != nil {
			mutate(i, qs[i])
		}
	}
	b, _ := json.Marshal(map[string]any{"title": "Quiz on Go", "questions": qs})
	return string(b)
}

func newOrchestrator(c Completer, r Retriever, opts ...Option) *Orchestrator {
	return NewOrchestrator(c, r, &fakeRanker{}, config.DiscardLogger(), opts...)
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Go   programming ", "Go programming"},
		{"<script>alert(1)</script>Rust", "alert(1)Rust"},
		{"<b>Machine</b>\n\tLearning", "Machine Learning"},
		{"<>", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeInput(tt.in), tt.in)
	}
}

func TestValidateTopic(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr error
	}{
		{"plain", "Go programming\n", "Go programming", nil},
		{"quoted", `"Go programming"`, "Go programming", nil},
		{"empty", "   ", "", ErrInput},
		{"too long", strings.Repeat("x", MaxTopicLength+1), "", ErrInput},
		{"at limit", strings.Repeat("x", MaxTopicLength), strings.Repeat("x", MaxTopicLength), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedCompleter{replies: []string{tt.reply}}
			got, err := newOrchestrator(c, &fakeRetriever{}).ValidateTopic(ctx, "go")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, c.prompts[0], `"go"`)
		})
	}

	c := &scriptedCompleter{errs: []error{errors.New("connection refused")}}
	_, err := newOrchestrator(c, &fakeRetriever{}).ValidateTopic(ctx, "go")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestGenerateRoadmap(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := &scriptedCompleter{replies: []string{"Go", "```json\n" + roadmapJSON(5, 3) + "\n```"}}
	r := &fakeRetriever{resources: sampleResources(4)}
	mc := metrics.NewCollector()

	roadmap, failure := newOrchestrator(c, r, WithClock(func() time.Time { return now }), WithMetrics(mc)).
		GenerateRoadmap(context.Background(), RoadmapRequest{Topic: "<i>Go</i>", Summary: "likes videos", HoursPerDay: 4})
	require.Nil(t, failure)
	require.NotNil(t, roadmap)

	assert.Len(t, roadmap.Checkpoints, 5)
	assert.Equal(t, "2026-03-04", roadmap.Checkpoints[0].DeadlineDate)
	assert.Equal(t, "2026-03-16", roadmap.Checkpoints[4].DeadlineDate)

	require.NotNil(t, roadmap.Metadata)
	assert.Equal(t, "similarity", roadmap.Metadata.RankingAlgorithm)
	assert.Equal(t, 4, roadmap.Metadata.ResourceCount)
	assert.Equal(t, 1, roadmap.Metadata.Attempts)
	assert.NotEmpty(t, roadmap.Metadata.RequestID)
	assert.Equal(t, now, roadmap.Metadata.GeneratedAt)

	assert.Equal(t, []string{"Go"}, r.topics, "retrieval uses the validated topic")
	assert.Contains(t, c.prompts[0], `"Go"`, "markup is stripped before validation")
	assert.Contains(t, c.prompts[1], "exactly 5 checkpoints for Go")
	assert.Contains(t, c.prompts[1], "https://go.example/3")
	assert.Contains(t, c.prompts[1], "summary of the user's learning needs: likes videos")
	assert.Contains(t, c.prompts[1], "Deadline: 4 hours per day")
	assert.Equal(t, int64(0), mc.Count(metrics.CountGenerationFailed))
}

func TestGenerateRoadmapRanked(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"Go", roadmapJSON(5, 4)}}
	rk := &fakeRanker{}
	o := NewOrchestrator(c, &fakeRetriever{resources: sampleResources(3)}, rk, config.DiscardLogger())

	roadmap, failure := o.GenerateRoadmap(context.Background(), RoadmapRequest{
		Topic:         "Go",
		RankingMethod: "model-scored",
		Feedback:      &FeedbackSummary{AverageRating: 3.5, Count: 4, Comments: []string{"too fast"}},
	})
	require.Nil(t, failure)
	assert.Equal(t, 1, rk.calls)
	assert.Equal(t, "rule-based", roadmap.Metadata.RankingAlgorithm, "metadata reports the method actually used")
	assert.Contains(t, c.prompts[1], `"rank":1`)
	assert.Contains(t, c.prompts[1], "3.5/5 on average across 4 reviews")
	assert.Contains(t, c.prompts[1], "- too fast")
	assert.Empty(t, roadmap.Checkpoints[0].DeadlineDate, "no deadlines without hours per day")
}

func TestGenerateRoadmapFailures(t *testing.T) {
	tests := []struct {
		name      string
		req       RoadmapRequest
		completer *scriptedCompleter
		retriever *fakeRetriever
		kind      models.ErrorKind
		calls     int
	}{
		{
			name:      "empty topic makes no model call",
			req:       RoadmapRequest{Topic: "<p>  </p>"},
			completer: &scriptedCompleter{},
			kind:      models.ErrorKindInput,
		},
		{
			name:      "rejected topic",
			req:       RoadmapRequest{Topic: "Go"},
			completer: &scriptedCompleter{replies: []string{""}},
			kind:      models.ErrorKindInput,
			calls:     1,
		},
		{
			name:      "four checkpoints",
			req:       RoadmapRequest{Topic: "Go"},
			completer: &scriptedCompleter{replies: []string{"Go", roadmapJSON(4, 3)}},
			kind:      models.ErrorKindValidation,
			calls:     2,
		},
		{
			name:      "checkpoint with two resources",
			req:       RoadmapRequest{Topic: "Go"},
			completer: &scriptedCompleter{replies: []string{"Go", roadmapJSON(5, 2)}},
			kind:      models.ErrorKindValidation,
			calls:     2,
		},
		{
			name:      "not json",
			req:       RoadmapRequest{Topic: "Go"},
			completer: &scriptedCompleter{replies: []string{"Go", "Sorry, I cannot help."}},
			kind:      models.ErrorKindValidation,
			calls:     2,
		},
		{
			name:      "schema mismatch",
			req:       RoadmapRequest{Topic: "Go"},
			completer: &scriptedCompleter{replies: []string{"Go", `{"mainTopic": "Go", "checkpoints": "five"}`}},
			kind:      models.ErrorKindValidation,
			calls:     2,
		},
		{
			name:      "generation call fails",
			req:       RoadmapRequest{Topic: "Go"},
			completer: &scriptedCompleter{replies: []string{"Go"}, errs: []error{nil, errors.New("timeout")}},
			kind:      models.ErrorKindOracleUnavailable,
			calls:     2,
		},
		{
			name:      "index unavailable",
			req:       RoadmapRequest{Topic: "Go"},
			completer: &scriptedCompleter{replies: []string{"Go"}},
			retriever: &fakeRetriever{err: index.ErrIndexUnavailable},
			kind:      models.ErrorKindIndexUnavailable,
			calls:     1,
		},
		{
			name:      "unknown ranking method",
			req:       RoadmapRequest{Topic: "Go", RankingMethod: "random"},
			completer: &scriptedCompleter{},
			kind:      models.ErrorKindInput,
		},
		{
			name:      "panic is contained",
			req:       RoadmapRequest{Topic: "Go"},
			completer: &scriptedCompleter{replies: []string{"Go"}},
			retriever: &fakeRetriever{panic: true},
			kind:      models.ErrorKindInternal,
			calls:     1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.retriever
			if r == nil {
				r = &fakeRetriever{resources: sampleResources(3)}
			}
			mc := metrics.NewCollector()
			roadmap, failure := newOrchestrator(tt.completer, r, WithMetrics(mc)).GenerateRoadmap(context.Background(), tt.req)

			assert.Nil(t, roadmap)
			require.NotNil(t, failure)
			assert.Equal(t, tt.kind, failure.Kind)
			assert.True(t, strings.HasPrefix(failure.Error, "Failed to generate roadmap: "), failure.Error)
			assert.Len(t, tt.completer.prompts, tt.calls)
			assert.Equal(t, int64(1), mc.Count(metrics.CountGenerationFailed))
		})
	}
}

func TestGenerateRoadmapRetry(t *testing.T) {
	t.Run("fails closed by default", func(t *testing.T) {
		c := &scriptedCompleter{replies: []string{"Go", roadmapJSON(4, 3), roadmapJSON(5, 3)}}
		_, failure := newOrchestrator(c, &fakeRetriever{}).GenerateRoadmap(context.Background(), RoadmapRequest{Topic: "Go"})
		require.NotNil(t, failure)
		assert.Len(t, c.prompts, 2)
	})

	t.Run("retries generation only", func(t *testing.T) {
		c := &scriptedCompleter{replies: []string{"Go", roadmapJSON(4, 3), roadmapJSON(5, 3)}}
		r := &fakeRetriever{}
		roadmap, failure := newOrchestrator(c, r, WithMaxAttempts(3)).GenerateRoadmap(context.Background(), RoadmapRequest{Topic: "Go"})
		require.Nil(t, failure)
		assert.Equal(t, 2, roadmap.Metadata.Attempts)
		assert.Len(t, r.topics, 1, "retrieval is not repeated")
		assert.Equal(t, c.prompts[1], c.prompts[2])
	})

	t.Run("bounded", func(t *testing.T) {
		c := &scriptedCompleter{replies: []string{"Go", "nope", "nope", "nope", roadmapJSON(5, 3)}}
		_, failure := newOrchestrator(c, &fakeRetriever{}, WithMaxAttempts(3)).GenerateRoadmap(context.Background(), RoadmapRequest{Topic: "Go"})
		require.NotNil(t, failure)
		assert.Equal(t, models.ErrorKindValidation, failure.Kind)
		assert.Len(t, c.prompts, 4)
	})
}

func TestGenerateQuiz(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"Go", quizJSON(10, func(i int, q map[string]any) {
		if i == 0 {
			q["correctOption"] = 2
		}
	})}}
	r := &fakeRetriever{questions: []models.Record{{Question: "What is a goroutine?", Options: []string{"a", "b", "c", "d"}}}}

	quiz, failure := newOrchestrator(c, r).GenerateQuiz(context.Background(), QuizRequest{Topic: "Go"})
	require.Nil(t, failure)
	assert.Len(t, quiz.Questions, 10)
	assert.Equal(t, "2", quiz.Questions[0].CorrectOption)
	assert.Equal(t, "A", quiz.Questions[1].CorrectOption)
	assert.Equal(t, DefaultQuizDifficulty, quiz.Difficulty)
	assert.Equal(t, []string{"Go|beginner|"}, r.quiz)
	assert.Contains(t, c.prompts[1], `titled "Quiz on Go" with exactly 10 questions`)
	assert.Contains(t, c.prompts[1], "Domain: Computer Science")
	assert.Contains(t, c.prompts[1], "Tags: []")
	assert.Contains(t, c.prompts[1], "What is a goroutine?")
	assert.Equal(t, 1, quiz.Metadata.ResourceCount)
}

func TestGenerateQuizValidation(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"nine questions", quizJSON(9, nil)},
		{"three options", quizJSON(10, func(i int, q map[string]any) {
			if i == 4 {
				q["options"] = []string{"a", "b", "c"}
			}
		})},
		{"no explanation", quizJSON(10, func(i int, q map[string]any) {
			if i == 9 {
				q["explanation"] = ""
			}
		})},
		{"no correct option", quizJSON(10, func(i int, q map[string]any) {
			if i == 2 {
				delete(q, "correctOption")
			}
		})},
		{"no title", `{"title": "", "questions": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedCompleter{replies: []string{"Go", tt.reply}}
			quiz, failure := newOrchestrator(c, &fakeRetriever{}).GenerateQuiz(context.Background(), QuizRequest{Topic: "Go"})
			assert.Nil(t, quiz)
			require.NotNil(t, failure)
			assert.Equal(t, models.ErrorKindValidation, failure.Kind)
			assert.True(t, strings.HasPrefix(failure.Error, "Failed to generate quiz: "), failure.Error)
		})
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	c := &scriptedCompleter{replies: []string{"Go", quizJSON(10, nil)}}
	out, failure := newOrchestrator(c, &fakeRetriever{}).Generate(ctx, KindQuiz, QuizRequest{Topic: "Go"})
	require.Nil(t, failure)
	assert.IsType(t, &models.Quiz{}, out)

	_, failure = newOrchestrator(c, &fakeRetriever{}).Generate(ctx, KindRoadmap, QuizRequest{Topic: "Go"})
	require.NotNil(t, failure)
	assert.Equal(t, models.ErrorKindInput, failure.Kind)

	_, failure = newOrchestrator(c, &fakeRetriever{}).Generate(ctx, Kind("essay"), nil)
	require.NotNil(t, failure)
	assert.Equal(t, models.ErrorKindInput, failure.Kind)
}

func TestComputeDeadlines(t *testing.T) {
	start := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	cps := []models.Checkpoint{{TotalHoursNeeded: 6}, {TotalHoursNeeded: 3}, {TotalHoursNeeded: 0}}

	ComputeDeadlines(cps, 2, start)
	assert.Equal(t, "2026-02-02", cps[0].DeadlineDate)
	assert.Equal(t, "2026-02-03", cps[1].DeadlineDate, "half days accumulate")
	assert.Equal(t, "2026-02-03", cps[2].DeadlineDate)

	fresh := []models.Checkpoint{{TotalHoursNeeded: 6}}
	ComputeDeadlines(fresh, 0, start)
	assert.Empty(t, fresh[0].DeadlineDate)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, models.ErrorKindInput, KindOf(fmt.Errorf("x: %w", ErrInput)))
	assert.Equal(t, models.ErrorKindNotFound, KindOf(fmt.Errorf("x: %w", retrieval.ErrNotFound)))
	assert.Equal(t, models.ErrorKindIndexUnavailable, KindOf(fmt.Errorf("x: %w", index.ErrIndexUnavailable)))
	assert.Equal(t, models.ErrorKindInternal, KindOf(errors.New("boom")))
}
