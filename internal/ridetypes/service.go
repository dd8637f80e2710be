package ridetypes

import (
	"context"
	"sync"

	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// Selector loads ride types, groups them by category and keeps at most one
// section expanded.
type Selector struct {
	client   CatalogClient
	lang     string
	onChoose func(Selection)
	logger   *zap.Logger

	mu       sync.Mutex
	seq      uint64
	state    State
	message  string
	sections []Section
	expanded string
}

// NewSelector creates a selector. onChoose may be nil.
func NewSelector(client CatalogClient, lang string, onChoose func(Selection), log *zap.Logger) *Selector {
	return &Selector{
		client:   client,
		lang:     lang,
		onChoose: onChoose,
		logger:   logger.OrNop(log),
		state:    StateLoading,
		message:  i18n.Translate("rider.ridetypes.loading", lang),
	}
}

// Load fetches the ride types for area and categoryID and partitions them.
// A load superseded by a later one is dropped.
func (s *Selector) Load(ctx context.Context, area models.TripArea, categoryID string) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = StateLoading
	s.message = i18n.Translate("rider.ridetypes.loading", s.lang)
	s.sections = nil
	s.expanded = ""
	s.mu.Unlock()

	types, err := s.client.RideTypesByCategory(ctx, categoryID, area)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return nil
	}
	if err != nil {
		s.logger.Warn("failed to load ride types", zap.String("trip_area", string(area)), zap.Error(err))
		s.state = StateFailed
		s.message = i18n.Translate("rider.ridetypes.failed", s.lang)
		return err
	}
	s.sections = s.partition(types)
	if len(s.sections) == 0 {
		s.state = StateEmpty
		s.message = i18n.Translate("rider.ridetypes.empty", s.lang)
		return nil
	}
	s.state = StateReady
	s.message = ""
	return nil
}

func (s *Selector) partition(types []models.RideType) []Section {
	var sections []Section
	index := make(map[string]int)
	for _, rt := range types {
		category, inferred := CategoryOf(rt)
		if inferred {
			s.logger.Debug("ride type has no category_id, inferred from title",
				zap.String("ride_type_id", rt.ID),
				zap.String("title", rt.Title),
				zap.String("category", category))
		}
		i, ok := index[category]
		if !ok {
			i = len(sections)
			index[category] = i
			sections = append(sections, Section{Category: category})
		}
		sections[i].RideTypes = append(sections[i].RideTypes, rt)
	}
	return sections
}

// Expand opens category and collapses any other section. Expanding the open
// section collapses it. Unknown categories are ignored.
func (s *Selector) Expand(category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, sec := range s.sections {
		if sec.Category == category {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if s.expanded == category {
		s.expanded = ""
	} else {
		s.expanded = category
	}
	return true
}

// Expanded returns the open section, or "" when all are collapsed
func (s *Selector) Expanded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

// Choose reports the ride type with id through the callback.
func (s *Selector) Choose(id string) (Selection, bool) {
	s.mu.Lock()
	var sel Selection
	found := false
	for _, sec := range s.sections {
		for _, rt := range sec.RideTypes {
			if rt.ID == id {
				sel = Selection{Title: rt.Title, ID: rt.ID}
				found = true
			}
		}
	}
	cb := s.onChoose
	s.mu.Unlock()

	if !found {
		return Selection{}, false
	}
	if cb != nil {
		cb(sel)
	}
	return sel, true
}

// View returns a snapshot
func (s *Selector) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{State: s.state, Message: s.message}
	for _, sec := range s.sections {
		v.Sections = append(v.Sections, Section{
			Category:  sec.Category,
			RideTypes: append([]models.RideType(nil), sec.RideTypes...),
			Expanded:  sec.Category == s.expanded,
		})
	}
	return v
}
