package rewrite

import "maps"

// Stats counts the work of one rewrite call. Counts are keyed by rule
// description.
type Stats struct {
	TotalNodes       int
	TransformedNodes int
	RuleApplications map[string]int
}

func (s *Stats) recordVisit() {
	s.TotalNodes++
}

func (s *Stats) recordApplication(description string) {
	if s.RuleApplications == nil {
		s.RuleApplications = make(map[string]int)
	}

	s.TransformedNodes++
	s.RuleApplications[description]++
}

// Merge adds other into s.
func (s *Stats) Merge(other Stats) {
	s.TotalNodes += other.TotalNodes
	s.TransformedNodes += other.TransformedNodes

	if len(other.RuleApplications) == 0 {
		return
	}

	if s.RuleApplications == nil {
		s.RuleApplications = maps.Clone(other.RuleApplications)

		return
	}

	for k, v := range other.RuleApplications {
		s.RuleApplications[k] += v
	}
}

// Summary is the aggregate report of a rewrite.
type Summary struct {
	TotalNodes       int      `json:"totalNodes"`
	TransformedNodes int      `json:"transformedNodes"`
	RulesApplied     []string `json:"rulesApplied"`
	// Confidence is the application-weighted mean confidence of the applied
	// rules, 0 when nothing was applied.
	Confidence float64 `json:"confidence"`
}

// Summarize builds a Summary from stats. Applied rules are listed in engine
// order. Applications of rules the engine does not hold are ignored.
func (e *Engine) Summarize(s Stats) Summary {
	out := Summary{
		TotalNodes:       s.TotalNodes,
		TransformedNodes: s.TransformedNodes,
		RulesApplied:     []string{},
	}

	var weighted, applications int

	for _, r := range e.rules {
		meta := r.Metadata()

		count := s.RuleApplications[meta.Description]
		if count == 0 {
			continue
		}

		out.RulesApplied = append(out.RulesApplied, meta.Description)
		weighted += meta.Confidence * count
		applications += count
	}

	if applications > 0 {
		out.Confidence = float64(weighted) / float64(applications)
	}

	return out
}
