package crawler

import (
	"fmt"

	"tftcrawler/pkg/logger"
	"tftcrawler/pkg/metrics"
	"tftcrawler/pkg/store"
)

// Phase names accepted by RunPhase
const (
	PhaseDiscover = "discover"
	PhaseExpand   = "expand"
	PhaseDerive   = "derive"
)

// Phases lists the phases in execution order
var Phases = []string{PhaseDiscover, PhaseExpand, PhaseDerive}

// Crawler drives discovery, expansion and derivation over the stored
// collections. It is safe to re-run against the same state directory: every
// phase only does work for records not yet present, expanded or derived.
// Only one Crawler may use a state directory at a time.
type Crawler struct {
	gateway      Gateway
	store        *store.Store
	logger       logger.Logger
	metrics      *metrics.Metrics
	reuseDetails bool
}

// Option configures a Crawler
type Option func(*Crawler)

// WithDetailReuse makes Expand record a match that is already in the detail
// collection for another identity without fetching and appending it again.
// Off by default: every match new to an identity is fetched.
func WithDetailReuse(enabled bool) Option {
	return func(c *Crawler) {
		c.reuseDetails = enabled
	}
}

// New creates a crawler. A nil logger selects the global logger and a nil
// metrics records nothing.
func New(gateway Gateway, st *store.Store, log logger.Logger, m *metrics.Metrics, opts ...Option) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	c := &Crawler{
		gateway: gateway,
		store:   st,
		logger:  log,
		metrics: m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes all phases in order. Fetch failures are counted in
// Stats.Degraded; only store errors abort the run.
func (c *Crawler) Run() (Stats, error) {
	var total Stats
	for _, phase := range Phases {
		stats, err := c.RunPhase(phase)
		total.Add(stats)
		if err != nil {
			return total, err
		}
	}

	c.logger.InfoWithFields("Crawl complete", map[string]interface{}{
		"discovered":   total.Discovered,
		"expanded":     total.Expanded,
		"details":      total.Details,
		"participants": total.Participants,
		"degraded":     total.Degraded,
	})
	return total, nil
}

// RunPhase executes a single named phase
func (c *Crawler) RunPhase(phase string) (Stats, error) {
	switch phase {
	case PhaseDiscover:
		return c.Discover()
	case PhaseExpand:
		return c.Expand()
	case PhaseDerive:
		return c.Derive()
	default:
		return Stats{}, fmt.Errorf("unknown phase %q", phase)
	}
}

// Discover fetches the top entities and appends an identity for every one
// not already stored. The collection is saved after each append so an
// interrupted discovery resumes where it stopped.
func (c *Crawler) Discover() (Stats, error) {
	var stats Stats
	log := c.logger.WithField("phase", PhaseDiscover)

	identities, err := store.Load[Identity](c.store, CollectionIdentities)
	if err != nil {
		return stats, fmt.Errorf("failed to load identities: %w", err)
	}

	known := make(map[string]bool, len(identities))
	resolved := make(map[string]bool, len(identities))
	for _, identity := range identities {
		known[identity.ID] = true
		if identity.SourceID != "" {
			resolved[identity.SourceID] = true
		}
	}

	top := c.gateway.FetchTopEntities()
	if top.Degraded {
		stats.Degraded++
		log.WithError(top.Err).WarnWithFields("Top entities degraded", map[string]interface{}{
			"ids": len(top.Value),
		})
	}

	for i, sourceID := range top.Value {
		if resolved[sourceID] {
			continue
		}

		result := c.gateway.FetchIdentity(sourceID)
		if result.Degraded || !result.Value.Present() {
			stats.Degraded++
			continue
		}
		if known[result.Value.PUUID] {
			continue
		}

		identities = append(identities, Identity{
			ID:       result.Value.PUUID,
			Name:     result.Value.Name,
			SourceID: sourceID,
			ChildIDs: []string{},
		})
		known[result.Value.PUUID] = true
		resolved[sourceID] = true

		if err := store.Save(c.store, CollectionIdentities, identities); err != nil {
			return stats, fmt.Errorf("failed to save identities: %w", err)
		}
		stats.Discovered++
		c.metrics.RecordAdded(CollectionIdentities)

		log.DebugWithFields("Identity discovered", map[string]interface{}{
			"id":   result.Value.PUUID,
			"name": result.Value.Name,
		})
		logger.LogCrawlProgress(log, PhaseDiscover, i+1, len(top.Value))
	}

	c.metrics.SetCollectionSize(CollectionIdentities, len(identities))
	log.InfoWithFields("Discovery finished", map[string]interface{}{
		"discovered": stats.Discovered,
		"total":      len(identities),
	})
	return stats, nil
}

// Expand fetches the match list of every unexpanded identity and the detail
// of every match not yet recorded on it.
//
// An identity is marked expanded before its matches are fetched. If the run
// dies mid-record, the match list is not fetched again on resume; matches
// already recorded in ChildIDs are never fetched twice. With WithDetailReuse,
// a match already held in the detail collection for another identity is
// recorded without a fetch.
func (c *Crawler) Expand() (Stats, error) {
	var stats Stats
	log := c.logger.WithField("phase", PhaseExpand)

	identities, err := store.Load[Identity](c.store, CollectionIdentities)
	if err != nil {
		return stats, fmt.Errorf("failed to load identities: %w", err)
	}
	details, err := store.Load[Detail](c.store, CollectionDetails)
	if err != nil {
		return stats, fmt.Errorf("failed to load details: %w", err)
	}

	stored := make(map[string]bool, len(details))
	for _, detail := range details {
		if id := detail.ID(); id != "" {
			stored[id] = true
		}
	}

	pending := 0
	for _, identity := range identities {
		if !identity.Expanded {
			pending++
		}
	}

	done := 0
	for i := range identities {
		identity := &identities[i]
		if identity.Expanded {
			continue
		}

		children := c.gateway.FetchChildIDs(identity.ID)
		if children.Degraded {
			stats.Degraded++
		}
		identity.Expanded = true
		stats.Expanded++

		recorded := make(map[string]bool, len(identity.ChildIDs))
		for _, id := range identity.ChildIDs {
			recorded[id] = true
		}
		if identity.ChildIDs == nil {
			identity.ChildIDs = []string{}
		}

		for _, childID := range children.Value {
			if recorded[childID] {
				continue
			}

			if c.reuseDetails && stored[childID] {
				stats.Reused++
			} else {
				detail := c.gateway.FetchDetail(childID)
				if detail.Degraded {
					stats.Degraded++
				}
				details = append(details, Detail(detail.Value))
				if id := Detail(detail.Value).ID(); id != "" {
					stored[id] = true
				}
				stats.Details++
				c.metrics.RecordAdded(CollectionDetails)
			}

			identity.ChildIDs = append(identity.ChildIDs, childID)
			recorded[childID] = true

			if err := store.Save(c.store, CollectionDetails, details); err != nil {
				return stats, fmt.Errorf("failed to save details: %w", err)
			}
			if err := store.Save(c.store, CollectionIdentities, identities); err != nil {
				return stats, fmt.Errorf("failed to save identities: %w", err)
			}
		}

		if err := store.Save(c.store, CollectionIdentities, identities); err != nil {
			return stats, fmt.Errorf("failed to save identities: %w", err)
		}

		done++
		logger.LogCrawlProgress(log.WithField("id", identity.ID), PhaseExpand, done, pending)
	}

	if err := store.Save(c.store, CollectionIdentities, identities); err != nil {
		return stats, fmt.Errorf("failed to save identities: %w", err)
	}

	c.metrics.SetCollectionSize(CollectionIdentities, len(identities))
	c.metrics.SetCollectionSize(CollectionDetails, len(details))
	log.InfoWithFields("Expansion finished", map[string]interface{}{
		"expanded": stats.Expanded,
		"details":  stats.Details,
		"reused":   stats.Reused,
	})
	return stats, nil
}

// Derive appends a participant record for every puuid referenced by a
// stored match that is not yet a participant. The collection is saved once.
func (c *Crawler) Derive() (Stats, error) {
	var stats Stats
	log := c.logger.WithField("phase", PhaseDerive)

	details, err := store.Load[Detail](c.store, CollectionDetails)
	if err != nil {
		return stats, fmt.Errorf("failed to load details: %w", err)
	}
	participants, err := store.Load[Participant](c.store, CollectionParticipants)
	if err != nil {
		return stats, fmt.Errorf("failed to load participants: %w", err)
	}

	known := make(map[string]bool, len(participants))
	for _, p := range participants {
		known[p.ParticipantID] = true
	}

	for _, detail := range details {
		for _, id := range detail.Participants() {
			if known[id] {
				continue
			}
			participants = append(participants, Participant{
				ParticipantID: id,
				ChildIDs:      []string{},
			})
			known[id] = true
			stats.Participants++
			c.metrics.RecordAdded(CollectionParticipants)
		}
	}

	if err := store.Save(c.store, CollectionParticipants, participants); err != nil {
		return stats, fmt.Errorf("failed to save participants: %w", err)
	}

	c.metrics.SetCollectionSize(CollectionParticipants, len(participants))
	log.InfoWithFields("Derivation finished", map[string]interface{}{
		"derived": stats.Participants,
		"total":   len(participants),
	})
	return stats, nil
}

// Status reads the three collections and summarizes them. It never writes:
// missing collections count as empty and a corrupt one is reported as an
// error wrapping store.ErrCorrupt.
func (c *Crawler) Status() (Status, error) {
	var status Status

	identities, err := store.Read[Identity](c.store, CollectionIdentities)
	if err != nil {
		return status, fmt.Errorf("failed to read identities: %w", err)
	}
	details, err := store.Read[Detail](c.store, CollectionDetails)
	if err != nil {
		return status, fmt.Errorf("failed to read details: %w", err)
	}
	participants, err := store.Read[Participant](c.store, CollectionParticipants)
	if err != nil {
		return status, fmt.Errorf("failed to read participants: %w", err)
	}

	status.Identities = len(identities)
	for _, identity := range identities {
		if !identity.Expanded {
			status.PendingIdentities++
		}
	}
	status.Details = len(details)
	for _, detail := range details {
		if len(detail) == 0 {
			status.EmptyDetails++
		}
	}
	status.Participants = len(participants)
	for _, p := range participants {
		if !p.Seen {
			status.UnseenParticipants++
		}
	}

	return status, nil
}
