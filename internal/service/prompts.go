package service

import (
	"fmt"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
)

// promptResource is the view of a resource the model sees.
type promptResource struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
	Topics      []string `json:"topics"`
	Difficulty  string   `json:"difficulty"`
	Description string   `json:"description"`
	Rank        int      `json:"rank,omitempty"`
	Reasoning   string   `json:"reasoning,omitempty"`
}

type promptQuestion struct {
	Question   string   `json:"question"`
	Options    []string `json:"options,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
}

func toPromptResource(r models.Record) promptResource {
	return promptResource{
		Name:        r.Title,
		URL:         r.URL,
		Type:        r.Type,
		Tags:        r.Tags,
		Topics:      r.Topics,
		Difficulty:  r.Difficulty,
		Description: r.Description,
	}
}

func resourceContext(records []models.Record) []promptResource {
	out := make([]promptResource, len(records))
	for i, r := range records {
		out[i] = toPromptResource(r)
	}
	return out
}

func rankedContext(ranked []models.RankedResource) []promptResource {
	out := make([]promptResource, len(ranked))
	for i, r := range ranked {
		p := toPromptResource(r.Record)
		p.Difficulty = r.Difficulty
		p.Rank = r.Rank
		p.Reasoning = r.Reasoning
		out[i] = p
	}
	return out
}

func questionContext(records []models.Record) []promptQuestion {
	out := make([]promptQuestion, len(records))
	for i, r := range records {
		out[i] = promptQuestion{
			Question:   r.Question,
			Options:    r.Options,
			Topic:      r.Topic,
			Tags:       r.Tags,
			Difficulty: r.Difficulty,
		}
	}
	return out
}

const roadmapFormat = `Respond with ONLY a JSON object of this shape:
{
  "mainTopic": "string",
  "description": "string",
  "checkpoints": [
    {
      "title": "string",
      "description": "string",
      "totalHoursNeeded": 10,
      "whatYouWillLearn": ["string"],
      "whatNext": "string",
      "resources": [
        {"name": "string", "url": "string", "type": "string", "tags": ["string"], "topics": ["string"], "difficulty": "string", "description": "string", "rank": 1, "reasoning": "string"}
      ]
    }
  ]
}`

const quizFormat = `Respond with ONLY a JSON object of this shape:
{
  "title": "string",
  "questions": [
    {"question": "string", "options": ["A", "B", "C", "D"], "correctOption": "A", "explanation": "string"}
  ]
}`

func roadmapPrompt(topic, resources string, req RoadmapRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Generate a learning roadmap with exactly %d checkpoints for %s.

Each checkpoint should:
- Have a clear, specific title.
- Include a detailed, structured description (at least 2 lines).
- List EXACTLY 3-4 high-quality learning resources, no more and no less.
- The roadmap will be invalid if any checkpoint has fewer than %d resources.
- Be progressively more complex.
- Estimate totalHoursNeeded for the checkpoint.

The final roadmap MUST have EXACTLY %d checkpoints, and each checkpoint MUST have AT LEAST %d resources.

%s

Here are domain-specific resources you should use (distribute them appropriately among the checkpoints).
Make sure of the following regarding the resources:
- Each resource is relevant to the topic. A resource about 'Javascript' in a roadmap of 'java' is not relevant even though the names look similar.
- Don't follow the sequence of resources in the prompt, use the resources as needed.
- Discard resources with empty or missing fields.
- Make sure the resources are unique, no duplicates.
- Discard resources whose topic is not %s.
- Set each resource's type from its URL.
`, models.RoadmapCheckpoints, topic, models.MinCheckpointResources, models.RoadmapCheckpoints, models.MinCheckpointResources, roadmapFormat, topic)

	if req.RankingMethod != "" {
		b.WriteString("- The resources are ordered from introductory to advanced; keep earlier ranks in earlier checkpoints.\n")
	}
	fmt.Fprintf(&b, "\n%s\n", resources)

	b.WriteString("\nMake sure to tailor the roadmap to the user's learning needs and provide a clear, structured learning path.\n")
	if s := strings.TrimSpace(req.Summary); s != "" {
		fmt.Fprintf(&b, "Here is the summary of the user's learning needs: %s\n", s)
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	}
	if req.LearningStyle != "" {
		fmt.Fprintf(&b, "Learning style: %s\n", req.LearningStyle)
	}
	if req.HoursPerDay > 0 {
		fmt.Fprintf(&b, "Deadline: %g hours per day\n", req.HoursPerDay)
	}
	if f := req.Feedback; f != nil && f.Count > 0 {
		fmt.Fprintf(&b, "Learners rated earlier roadmaps for this topic %.1f/5 on average across %d reviews.\n", f.AverageRating, f.Count)
		if len(f.Comments) > 0 {
			fmt.Fprintf(&b, "Their comments:\n- %s\n", strings.Join(f.Comments, "\n- "))
		}
	}
	return b.String()
}

func quizPrompt(topic, domain, difficulty, tags, questions string) string {
	return fmt.Sprintf(`Generate a quiz titled "Quiz on %[1]s" with exactly %[2]d questions.

Each question should:
- Be clear and concise
- Have exactly %[3]d answer options
- Clearly indicate the correct answer
- Include an explanation for why the correct answer is right

The quiz should match the following criteria:
- Topic: %[1]s
- Domain: %[4]s
- Difficulty: %[5]s
- Tags: %[6]s

%[7]s

Here are some relevant questions you can use as reference or include directly (modify as needed):
%[8]s

Make sure the quiz covers different aspects of the topic and provides a good assessment of knowledge.`,
		topic, models.QuizQuestions, models.QuizOptions, domain, difficulty, tags, quizFormat, questions)
}
