package app

import (
	"strconv"
	"strings"

	"shelbyadmin/internal/apiclient"
	"shelbyadmin/pkg/domain"
)

// NewTopicController builds the topics screen controller.
func NewTopicController(client *apiclient.Client) *Controller[domain.Topic] {
	res := apiclient.NewResource[domain.Topic](client, "/api/topics", "topics")
	return NewController(res, topicDescriptor())
}

func topicDescriptor() Descriptor[domain.Topic] {
	return Descriptor[domain.Topic]{
		Label: "topic",
		ID:    func(t domain.Topic) int { return t.ID },
		Matches: func(t domain.Topic, applied map[string]string) bool {
			return matchesQuery(applied["query"], t.Description, t.ID)
		},
		Validate: func(t domain.Topic, _ bool) error {
			if strings.TrimSpace(t.Description) == "" {
				return ErrDescriptionRequired
			}
			return nil
		},
		CreatePayload: func(t domain.Topic) any {
			return map[string]any{"description": strings.TrimSpace(t.Description)}
		},
		PatchPayload: func(orig, draft domain.Topic) map[string]any {
			patch := map[string]any{}
			if desc := strings.TrimSpace(draft.Description); desc != orig.Description {
				patch["description"] = desc
			}
			return patch
		},
	}
}

// matchesQuery implements the shared free-text filter: case-insensitive
// substring over the description and the textual id.
func matchesQuery(query, description string, id int) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(description), query) {
		return true
	}
	return strings.Contains(strconv.Itoa(id), query)
}

// matchesExactID implements reference-id filters: empty means "any", anything
// else must equal the record's id exactly.
func matchesExactID(filter string, id int) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	want, err := strconv.Atoi(filter)
	if err != nil {
		return false
	}
	return want == id
}
