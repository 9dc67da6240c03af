package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"shelbyadmin/internal/apiclient"
	"shelbyadmin/pkg/domain"
)

// CouncilScreen is the council-entries controller plus the partner and
// decision reference lists its form needs.
type CouncilScreen struct {
	*Controller[domain.CouncilEntry]
	partnerRes  *apiclient.Resource[domain.Partner]
	decisionRes *apiclient.Resource[domain.Decision]

	mu        sync.Mutex
	partners  []domain.Partner
	decisions []domain.Decision
}

// NewCouncilScreen builds the council screen controller.
func NewCouncilScreen(client *apiclient.Client) *CouncilScreen {
	res := apiclient.NewResource[domain.CouncilEntry](client, "/api/shelby-council", "shelbyCouncils")
	return &CouncilScreen{
		Controller:  NewController(res, councilDescriptor()),
		partnerRes:  apiclient.NewResource[domain.Partner](client, "/api/partners", "partners"),
		decisionRes: apiclient.NewResource[domain.Decision](client, "/api/decisions", "decisions"),
	}
}

// LoadReferences fetches both dropdown lists concurrently. Each load is
// best-effort: a failure leaves that list empty without blocking the other
// or the screen.
func (s *CouncilScreen) LoadReferences(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		partners, err := s.partnerRes.ListAll(ctx)
		if err != nil {
			slog.Warn("council screen: partner reference load failed", "err", err)
			return nil
		}
		s.mu.Lock()
		s.partners = partners
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		decisions, err := s.decisionRes.ListAll(ctx)
		if err != nil {
			slog.Warn("council screen: decision reference load failed", "err", err)
			return nil
		}
		s.mu.Lock()
		s.decisions = decisions
		s.mu.Unlock()
		return nil
	})
	_ = g.Wait()
}

// Partners returns the partner reference list.
func (s *CouncilScreen) Partners() []domain.Partner {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Partner, len(s.partners))
	copy(out, s.partners)
	return out
}

// Decisions returns the decision reference list.
func (s *CouncilScreen) Decisions() []domain.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

func councilDescriptor() Descriptor[domain.CouncilEntry] {
	return Descriptor[domain.CouncilEntry]{
		Label: "council entry",
		ID:    func(e domain.CouncilEntry) int { return e.ID },
		Matches: func(e domain.CouncilEntry, applied map[string]string) bool {
			if dni := strings.TrimSpace(applied["dni"]); dni != "" &&
				!strings.EqualFold(dni, e.PartnerDNI) {
				return false
			}
			if !matchesExactID(applied["decisionId"], e.DecisionID) {
				return false
			}
			return matchesQuery(applied["query"], e.Notes, e.ID)
		},
		Validate: func(e domain.CouncilEntry, _ bool) error {
			if strings.TrimSpace(e.PartnerDNI) == "" {
				return ErrPartnerRequired
			}
			if e.DecisionID == 0 {
				return ErrDecisionRequired
			}
			return nil
		},
		CreatePayload: func(e domain.CouncilEntry) any {
			return map[string]any{
				"dni":        strings.TrimSpace(e.PartnerDNI),
				"decisionId": e.DecisionID,
				"notes":      e.Notes,
			}
		},
		// The join's foreign keys are immutable once linked: edits can only
		// touch notes, and the keys never appear in a patch.
		PatchPayload: func(orig, draft domain.CouncilEntry) map[string]any {
			patch := map[string]any{}
			if draft.Notes != orig.Notes {
				patch["notes"] = draft.Notes
			}
			return patch
		},
		ReadOnlyFields: []string{"dni", "decisionId"},
	}
}
