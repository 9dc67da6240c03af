package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelbyadmin/internal/apiclient"
	"shelbyadmin/pkg/domain"
)

func TestCouncilFilters(t *testing.T) {
	desc := councilDescriptor()
	rec := domain.CouncilEntry{ID: 5, PartnerDNI: "12345678A", DecisionID: 2, Notes: "weekly ledger review"}

	if !desc.Matches(rec, map[string]string{"dni": "12345678a"}) {
		t.Fatalf("dni filter should be case-insensitive")
	}
	if desc.Matches(rec, map[string]string{"dni": "99999999Z"}) {
		t.Fatalf("wrong dni matched")
	}
	if !desc.Matches(rec, map[string]string{"decisionId": "2", "query": "ledger"}) {
		t.Fatalf("combined filters rejected a matching record")
	}
	if desc.Matches(rec, map[string]string{"decisionId": "3"}) {
		t.Fatalf("decision filter ignored")
	}
}

func TestCouncilPatchNeverTouchesForeignKeys(t *testing.T) {
	desc := councilDescriptor()
	orig := domain.CouncilEntry{ID: 5, PartnerDNI: "12345678A", DecisionID: 2, Notes: "old"}
	draft := orig
	draft.PartnerDNI = "99999999Z" // a view bug should still not leak into the patch
	draft.DecisionID = 9
	draft.Notes = "new"

	patch := desc.PatchPayload(orig, draft)
	if len(patch) != 1 || patch["notes"] != "new" {
		t.Fatalf("patch = %v, want only notes", patch)
	}
}

func TestCouncilForeignKeysReadOnlyInEdit(t *testing.T) {
	c := NewController[domain.CouncilEntry](newFakeCouncilAPI(), councilDescriptor())
	defer c.Close()

	c.StartCreate()
	if c.FieldReadOnly("dni") || c.FieldReadOnly("decisionId") {
		t.Fatalf("create form must leave every field editable")
	}

	c.StartEdit(domain.CouncilEntry{ID: 5, PartnerDNI: "12345678A", DecisionID: 2})
	if !c.FieldReadOnly("dni") || !c.FieldReadOnly("decisionId") {
		t.Fatalf("edit form must lock the foreign keys")
	}
	if c.FieldReadOnly("notes") {
		t.Fatalf("notes must stay editable")
	}
}

type fakeCouncilAPI struct{}

func newFakeCouncilAPI() *fakeCouncilAPI { return &fakeCouncilAPI{} }

func (f *fakeCouncilAPI) ListAll(ctx context.Context) ([]domain.CouncilEntry, error) {
	return nil, nil
}
func (f *fakeCouncilAPI) Create(ctx context.Context, payload any) (domain.CouncilEntry, error) {
	return domain.CouncilEntry{}, nil
}
func (f *fakeCouncilAPI) Update(ctx context.Context, id int, patch map[string]any) (domain.CouncilEntry, error) {
	return domain.CouncilEntry{}, nil
}
func (f *fakeCouncilAPI) Remove(ctx context.Context, id int) error { return nil }

func TestCouncilReferenceLoadsAreIndependent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/partners", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "partner service down"})
	})
	mux.HandleFunc("/api/decisions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"decisions": []map[string]any{{"id": 1, "description": "expand to Camden", "topicId": 1}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := NewCouncilScreen(apiclient.NewClient(srv.URL))
	defer s.Close()
	s.LoadReferences(context.Background())

	if got := s.Partners(); len(got) != 0 {
		t.Fatalf("failed partner load produced %d partners", len(got))
	}
	decisions := s.Decisions()
	if len(decisions) != 1 || decisions[0].Description != "expand to Camden" {
		t.Fatalf("decisions = %+v", decisions)
	}
}
