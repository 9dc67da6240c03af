package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"shelbyadmin/internal/apiclient"
	"shelbyadmin/pkg/domain"
)

// DecisionScreen is the decisions controller plus the topic reference list
// its form dropdown needs.
type DecisionScreen struct {
	*Controller[domain.Decision]
	topicRes *apiclient.Resource[domain.Topic]

	mu     sync.Mutex
	topics []domain.Topic
}

// NewDecisionScreen builds the decisions screen controller.
func NewDecisionScreen(client *apiclient.Client) *DecisionScreen {
	res := apiclient.NewResource[domain.Decision](client, "/api/decisions", "decisions")
	return &DecisionScreen{
		Controller: NewController(res, decisionDescriptor()),
		topicRes:   apiclient.NewResource[domain.Topic](client, "/api/topics", "topics"),
	}
}

// LoadReferences fetches the topic list for the form dropdown. Best-effort:
// a failure leaves the dropdown empty without blocking the screen.
func (s *DecisionScreen) LoadReferences(ctx context.Context) {
	topics, err := s.topicRes.ListAll(ctx)
	if err != nil {
		slog.Warn("decision screen: topic reference load failed", "err", err)
		return
	}
	s.mu.Lock()
	s.topics = topics
	s.mu.Unlock()
}

// Topics returns the reference list for the form dropdown.
func (s *DecisionScreen) Topics() []domain.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Topic, len(s.topics))
	copy(out, s.topics)
	return out
}

func decisionDescriptor() Descriptor[domain.Decision] {
	return Descriptor[domain.Decision]{
		Label: "decision",
		ID:    func(d domain.Decision) int { return d.ID },
		Matches: func(d domain.Decision, applied map[string]string) bool {
			if !matchesQuery(applied["query"], d.Description, d.ID) {
				return false
			}
			return matchesExactID(applied["topicId"], d.TopicID)
		},
		Validate: func(d domain.Decision, _ bool) error {
			if strings.TrimSpace(d.Description) == "" {
				return ErrDescriptionRequired
			}
			if d.TopicID == 0 {
				return ErrTopicRequired
			}
			if DatePortion(d.StartDate) == "" || DatePortion(d.EndDate) == "" {
				return ErrDatesRequired
			}
			return nil
		},
		Normalize: normalizeDecisionDates,
		CreatePayload: func(d domain.Decision) any {
			return map[string]any{
				"description": strings.TrimSpace(d.Description),
				"topicId":     d.TopicID,
				"startDate":   d.StartDate,
				"endDate":     d.EndDate,
			}
		},
		PatchPayload: func(orig, draft domain.Decision) map[string]any {
			patch := map[string]any{}
			if desc := strings.TrimSpace(draft.Description); desc != orig.Description {
				patch["description"] = desc
			}
			if draft.TopicID != orig.TopicID {
				patch["topicId"] = draft.TopicID
			}
			if draft.StartDate != orig.StartDate {
				patch["startDate"] = draft.StartDate
			}
			if draft.EndDate != orig.EndDate {
				patch["endDate"] = draft.EndDate
			}
			return patch
		},
	}
}

// normalizeDecisionDates clamps the draft's dates and pins them to the wire
// format. The today floor only applies to a start date the user actually
// changed; editing an old decision must not rewrite its history.
func normalizeDecisionDates(d *domain.Decision, orig domain.Decision, edit bool) {
	start := DatePortion(d.StartDate)
	end := DatePortion(d.EndDate)
	if start == "" || end == "" {
		return
	}
	startChanged := !edit || start != DatePortion(orig.StartDate)
	if startChanged {
		if today := Today(); start < today {
			start = today
		}
	}
	if end < start {
		end = start
	}
	d.StartDate = ToWireDate(start)
	d.EndDate = ToWireDate(end)
}
