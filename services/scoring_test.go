package services

import (
	"reflect"
	"testing"

	"github.com/sacredlabs/sacred-api/models"
)

func intPtr(v int) *int { return &v }

func response(question, section, value string, score *int) models.AssessmentResponse {
	return models.AssessmentResponse{
		AssessmentID:  "A1",
		QuestionID:    question,
		Section:       section,
		ResponseValue: value,
		Score:         score,
	}
}

func TestComputeSectionAverages(t *testing.T) {
	responses := []models.AssessmentResponse{
		response("q1", "communication", "agree", intPtr(8)),
		response("q2", "communication", "agree", intPtr(6)),
		response("q3", "communication", "talk it out", nil),
		response("q4", "communication", "agree", intPtr(10)),
		response("q5", "finances", "combine", nil),
	}

	summaries := ComputeSectionAverages(responses)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(summaries))
	}

	comm := summaries[0]
	if comm.Section != "communication" {
		t.Fatalf("expected communication first, got %s", comm.Section)
	}
	if comm.Total != 24 || comm.Count != 3 || comm.Average != 8 {
		t.Fatalf("communication summary wrong: %+v", comm)
	}

	// A section whose rows all lack scores still appears, zeroed.
	fin := summaries[1]
	if fin.Section != "finances" || fin.Total != 0 || fin.Count != 0 || fin.Average != 0 {
		t.Fatalf("finances summary wrong: %+v", fin)
	}
}

func TestComputeSectionAveragesRoundsHalfUp(t *testing.T) {
	responses := []models.AssessmentResponse{
		response("q1", "intimacy", "agree", intPtr(7)),
		response("q2", "intimacy", "agree", intPtr(8)),
	}

	summaries := ComputeSectionAverages(responses)
	// 15/2 = 7.5 rounds up, not to even.
	if summaries[0].Average != 8 {
		t.Fatalf("expected average 8, got %d", summaries[0].Average)
	}
}

func TestComputeSectionAveragesEmpty(t *testing.T) {
	if got := ComputeSectionAverages(nil); len(got) != 0 {
		t.Fatalf("expected no summaries, got %+v", got)
	}
}

func TestComputeAlignment(t *testing.T) {
	questions := []models.Question{
		{ID: "Q1", Position: 1},
		{ID: "Q2", Position: 2},
		{ID: "Q3", Position: 3},
	}
	responsesA := []models.AssessmentResponse{
		response("Q1", "s", "yes", nil),
		response("Q2", "s", "no", nil),
	}
	responsesB := []models.AssessmentResponse{
		response("Q1", "s", "yes", nil),
		response("Q2", "s", "yes", nil),
		response("Q3", "s", "maybe", nil),
	}

	result := ComputeAlignment(questions, responsesA, responsesB)

	// Q1 and Q2 comparable, Q1 matches: round(1/2*100) = 50.
	if result.AlignmentPercentage != 50 {
		t.Fatalf("expected 50%%, got %d", result.AlignmentPercentage)
	}

	want := []models.QuestionAlignment{
		{QuestionID: "Q1", IsAligned: true, HasBothResponses: true},
		{QuestionID: "Q2", IsAligned: false, HasBothResponses: true},
		{QuestionID: "Q3", IsAligned: false, HasBothResponses: false},
	}
	if !reflect.DeepEqual(result.PerQuestion, want) {
		t.Fatalf("per-question mismatch:\n got %+v\nwant %+v", result.PerQuestion, want)
	}
}

func TestComputeAlignmentNoComparable(t *testing.T) {
	questions := []models.Question{{ID: "Q1"}, {ID: "Q2"}}
	responsesA := []models.AssessmentResponse{response("Q1", "s", "yes", nil)}
	responsesB := []models.AssessmentResponse{response("Q2", "s", "no", nil)}

	result := ComputeAlignment(questions, responsesA, responsesB)
	if result.AlignmentPercentage != 0 {
		t.Fatalf("expected 0%% with no comparable questions, got %d", result.AlignmentPercentage)
	}
	if len(result.PerQuestion) != 2 {
		t.Fatalf("expected all questions reported, got %d", len(result.PerQuestion))
	}
	for _, q := range result.PerQuestion {
		if q.IsAligned || q.HasBothResponses {
			t.Fatalf("expected both flags false for %s", q.QuestionID)
		}
	}
}

func TestComputeAlignmentCaseSensitive(t *testing.T) {
	questions := []models.Question{{ID: "Q1"}}
	responsesA := []models.AssessmentResponse{response("Q1", "s", "Yes", nil)}
	responsesB := []models.AssessmentResponse{response("Q1", "s", "yes", nil)}

	result := ComputeAlignment(questions, responsesA, responsesB)
	if result.AlignmentPercentage != 0 {
		t.Fatalf("comparison must be case-sensitive, got %d%%", result.AlignmentPercentage)
	}
}

func TestComputeAlignmentDeterministic(t *testing.T) {
	questions := []models.Question{{ID: "Q1"}, {ID: "Q2"}, {ID: "Q3"}}
	responsesA := []models.AssessmentResponse{
		response("Q1", "s", "a", nil),
		response("Q2", "s", "b", nil),
		response("Q3", "s", "c", nil),
	}
	responsesB := []models.AssessmentResponse{
		response("Q1", "s", "a", nil),
		response("Q2", "s", "x", nil),
		response("Q3", "s", "c", nil),
	}

	first := ComputeAlignment(questions, responsesA, responsesB)
	for i := 0; i < 10; i++ {
		again := ComputeAlignment(questions, responsesA, responsesB)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed:\n got %+v\nwant %+v", i, again, first)
		}
	}
}

func TestSortForDisplay(t *testing.T) {
	perQuestion := []models.QuestionAlignment{
		{QuestionID: "Q1", IsAligned: false, HasBothResponses: true},
		{QuestionID: "Q2", IsAligned: true, HasBothResponses: true},
		{QuestionID: "Q3", IsAligned: false, HasBothResponses: false},
		{QuestionID: "Q4", IsAligned: true, HasBothResponses: true},
		{QuestionID: "Q5", IsAligned: false, HasBothResponses: true},
	}

	cases := []struct {
		mode string
		want []string
	}{
		{SortQuestionOrder, []string{"Q1", "Q2", "Q3", "Q4", "Q5"}},
		{SortAlignedFirst, []string{"Q2", "Q4", "Q1", "Q5", "Q3"}},
		{SortDiscussFirst, []string{"Q1", "Q5", "Q2", "Q4", "Q3"}},
	}

	for _, c := range cases {
		got := SortForDisplay(perQuestion, c.mode)
		ids := make([]string, len(got))
		for i, q := range got {
			ids[i] = q.QuestionID
		}
		if !reflect.DeepEqual(ids, c.want) {
			t.Fatalf("mode %s: got %v, want %v", c.mode, ids, c.want)
		}
	}

	// Input untouched.
	if perQuestion[0].QuestionID != "Q1" {
		t.Fatal("SortForDisplay must not mutate its input")
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{7.5, 8},
		{2.5, 3}, // half-up, not half-to-even
		{99.49, 99},
	}
	for _, c := range cases {
		if got := roundHalfUp(c.in); got != c.want {
			t.Fatalf("roundHalfUp(%v)=%d, want %d", c.in, got, c.want)
		}
	}
}
