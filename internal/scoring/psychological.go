package scoring

import (
	"github.com/edusight/prism/internal/models"
)

// PsychologicalComposite computes the 0-100 psychological composite from
// SDQ, DASS-21, PERMA and direct 0-100 metrics. The four SDQ difficulty
// subscales enter only through their computed total, never individually,
// so a single questionnaire cannot be counted four times.
func PsychologicalComposite(a *models.PsychologicalAssessment) (*float64, error) {
	acc := &accumulator{}

	sdq := []struct {
		field string
		value *int
	}{
		{"emotional_symptoms", a.EmotionalSymptoms},
		{"conduct_problems", a.ConductProblems},
		{"hyperactivity", a.Hyperactivity},
		{"peer_problems", a.PeerProblems},
		{"prosocial", a.Prosocial},
	}
	for _, m := range sdq {
		if m.value == nil {
			continue
		}
		if err := checkRange(m.field, float64(*m.value), 0, 10); err != nil {
			return nil, err
		}
	}
	if total, ok := a.TotalDifficulties(); ok {
		acc.add(normalizeSDQTotal(float64(total)))
	}
	if a.Prosocial != nil {
		acc.add(scaleTen(float64(*a.Prosocial)))
	}

	dass := []struct {
		field string
		value *int
	}{
		{"depression", a.Depression},
		{"anxiety", a.Anxiety},
		{"stress", a.Stress},
	}
	for _, m := range dass {
		if m.value == nil {
			continue
		}
		if err := checkRange(m.field, float64(*m.value), 0, dassMax); err != nil {
			return nil, err
		}
		acc.add(normalizeDASS(float64(*m.value)))
	}

	perma := []struct {
		field string
		value *float64
	}{
		{"positive_emotion", a.PositiveEmotion},
		{"engagement", a.Engagement},
		{"relationships", a.Relationships},
		{"meaning", a.Meaning},
		{"achievement", a.Achievement},
	}
	for _, m := range perma {
		if m.value == nil {
			continue
		}
		if err := checkRange(m.field, *m.value, 1, 10); err != nil {
			return nil, err
		}
		acc.add(scaleTen(*m.value))
	}

	direct := []struct {
		field string
		value *float64
	}{
		{"self_esteem_score", a.SelfEsteemScore},
		{"social_skills_score", a.SocialSkillsScore},
		{"emotional_regulation_score", a.EmotionalRegulationScore},
	}
	for _, m := range direct {
		if m.value == nil {
			continue
		}
		if err := checkRange(m.field, *m.value, 0, 100); err != nil {
			return nil, err
		}
		acc.add(*m.value)
	}

	return acc.mean(), nil
}
