package classifier

import (
	"maps"
	"slices"
	"sync"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// Store accumulates entities for the lifetime of one crawl. It is safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	entities types.Entities
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entities: types.NewEntities()}
}

// Add appends every record in found. Nothing is merged or deduplicated.
func (s *Store) Add(found types.Entities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities.Tours = append(s.entities.Tours, found.Tours...)
	s.entities.Team = append(s.entities.Team, found.Team...)
	s.entities.FAQs = append(s.entities.FAQs, found.FAQs...)
	s.entities.Testimonials = append(s.entities.Testimonials, found.Testimonials...)
	s.entities.Payments = append(s.entities.Payments, found.Payments...)
	s.entities.Contact = append(s.entities.Contact, found.Contact...)
}

// Snapshot returns a deep copy of the accumulated entities.
func (s *Store) Snapshot() types.Entities {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := types.Entities{
		Tours:        make([]types.Tour, 0, len(s.entities.Tours)),
		Team:         make([]types.TeamMember, 0, len(s.entities.Team)),
		FAQs:         append([]types.FAQ{}, s.entities.FAQs...),
		Testimonials: append([]types.Testimonial{}, s.entities.Testimonials...),
		Payments:     append([]any{}, s.entities.Payments...),
		Contact:      make([]types.Contact, 0, len(s.entities.Contact)),
	}
	for _, tour := range s.entities.Tours {
		tour.Dates = slices.Clone(tour.Dates)
		tour.Highlights = slices.Clone(tour.Highlights)
		tour.Itinerary = slices.Clone(tour.Itinerary)
		tour.Inclusions = slices.Clone(tour.Inclusions)
		tour.Exclusions = slices.Clone(tour.Exclusions)
		tour.Gallery = slices.Clone(tour.Gallery)
		tour.Testimonials = slices.Clone(tour.Testimonials)
		snap.Tours = append(snap.Tours, tour)
	}
	for _, member := range s.entities.Team {
		member.Socials = maps.Clone(member.Socials)
		snap.Team = append(snap.Team, member)
	}
	for _, contact := range s.entities.Contact {
		contact.Social = maps.Clone(contact.Social)
		snap.Contact = append(snap.Contact, contact)
	}
	return snap
}
