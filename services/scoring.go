package services

import (
	"math"
	"sort"

	"github.com/sacredlabs/sacred-api/models"
)

// Scoring is pure: everything here is a function of its inputs. Access
// control and fetching happen in the caller before these run.

// roundHalfUp rounds a non-negative quotient half away from zero, the
// behavior the report has always shown (7.5 -> 8).
func roundHalfUp(q float64) int {
	return int(math.Floor(q + 0.5))
}

// ComputeSectionAverages aggregates one respondent's scored answers by
// section. Sections appear in first-occurrence order of the input.
// Rows without a score still belong to their section but contribute
// nothing to total or count; a section with no scored rows averages 0.
func ComputeSectionAverages(responses []models.AssessmentResponse) []models.SectionScoreSummary {
	order := []string{}
	index := map[string]int{}

	for _, r := range responses {
		if _, ok := index[r.Section]; !ok {
			index[r.Section] = len(order)
			order = append(order, r.Section)
		}
	}

	summaries := make([]models.SectionScoreSummary, len(order))
	for i, section := range order {
		summaries[i] = models.SectionScoreSummary{Section: section}
	}

	for _, r := range responses {
		if r.Score == nil {
			continue
		}
		s := &summaries[index[r.Section]]
		s.Total += *r.Score
		s.Count++
	}

	for i := range summaries {
		if summaries[i].Count > 0 {
			summaries[i].Average = roundHalfUp(float64(summaries[i].Total) / float64(summaries[i].Count))
		}
	}

	return summaries
}

// ComputeAlignment compares two respondents' answers over the given
// question list. A question is comparable only when both answered it;
// non-comparable questions still appear in PerQuestion (flags false)
// so the caller can render "awaiting response" rows. Alignment is
// exact, case-sensitive string equality of the response values.
func ComputeAlignment(questions []models.Question, responsesA, responsesB []models.AssessmentResponse) models.AlignmentResult {
	byQuestionA := indexByQuestion(responsesA)
	byQuestionB := indexByQuestion(responsesB)

	perQuestion := make([]models.QuestionAlignment, 0, len(questions))
	comparable, matching := 0, 0

	for _, q := range questions {
		a, okA := byQuestionA[q.ID]
		b, okB := byQuestionB[q.ID]

		entry := models.QuestionAlignment{QuestionID: q.ID}
		if okA && okB {
			entry.HasBothResponses = true
			entry.IsAligned = a.ResponseValue == b.ResponseValue
			comparable++
			if entry.IsAligned {
				matching++
			}
		}
		perQuestion = append(perQuestion, entry)
	}

	percentage := 0
	if comparable > 0 {
		percentage = roundHalfUp(float64(matching) / float64(comparable) * 100)
	}

	return models.AlignmentResult{
		AlignmentPercentage: percentage,
		PerQuestion:         perQuestion,
	}
}

func indexByQuestion(responses []models.AssessmentResponse) map[string]models.AssessmentResponse {
	m := make(map[string]models.AssessmentResponse, len(responses))
	for _, r := range responses {
		// Last write wins, matching the storage upsert.
		m[r.QuestionID] = r
	}
	return m
}

// Display orderings for the per-question rows. Question order is the
// order of the input slice; the other modes group rows and fall back
// to the original index so repeated renders are identical.
const (
	SortQuestionOrder = "question-order"
	SortAlignedFirst  = "aligned-first"
	SortDiscussFirst  = "discuss-first"
)

// SortForDisplay returns a new slice ordered for presentation. The
// sort is stable with the original index as the tiebreaker.
func SortForDisplay(perQuestion []models.QuestionAlignment, mode string) []models.QuestionAlignment {
	out := make([]models.QuestionAlignment, len(perQuestion))
	copy(out, perQuestion)

	if mode == SortQuestionOrder || mode == "" {
		return out
	}

	originalIndex := make(map[string]int, len(perQuestion))
	for i, q := range perQuestion {
		originalIndex[q.QuestionID] = i
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := displayRank(out[i], mode), displayRank(out[j], mode)
		if ri != rj {
			return ri < rj
		}
		return originalIndex[out[i].QuestionID] < originalIndex[out[j].QuestionID]
	})

	return out
}

// displayRank buckets rows: the requested group first, its opposite
// second, awaiting-response rows always last.
func displayRank(q models.QuestionAlignment, mode string) int {
	if !q.HasBothResponses {
		return 2
	}
	if mode == SortAlignedFirst {
		if q.IsAligned {
			return 0
		}
		return 1
	}
	// discuss-first
	if q.IsAligned {
		return 1
	}
	return 0
}
