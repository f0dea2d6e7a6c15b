package crawler

// Collection names in the store
const (
	CollectionIdentities   = "identities"
	CollectionDetails      = "details"
	CollectionParticipants = "participants"
)

// Identity is a discovered player. Expanded flips to true once its match
// list has been fetched and never reverts. ChildIDs only grows.
type Identity struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	SourceID string   `json:"source_id,omitempty"`
	Expanded bool     `json:"expanded"`
	ChildIDs []string `json:"child_ids"`
}

// Detail is a full match record, kept as loose JSON
type Detail map[string]interface{}

// ID returns metadata.match_id, or "" if the record has none
func (d Detail) ID() string {
	metadata, ok := d["metadata"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := metadata["match_id"].(string)
	return id
}

// Participants returns the puuids in metadata.participants, skipping
// anything that is not a non-empty string
func (d Detail) Participants() []string {
	metadata, ok := d["metadata"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := metadata["participants"].([]interface{})
	if !ok {
		return nil
	}

	participants := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			participants = append(participants, s)
		}
	}
	return participants
}

// Participant is a player found inside match records
type Participant struct {
	ParticipantID string   `json:"participant_id"`
	Seen          bool     `json:"seen"`
	ChildIDs      []string `json:"child_ids"`
}

// Stats counts the work done by one run or phase
type Stats struct {
	Discovered   int `json:"discovered"`
	Expanded     int `json:"expanded"`
	Details      int `json:"details"`
	Reused       int `json:"reused"`
	Participants int `json:"participants"`
	Degraded     int `json:"degraded"`
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.Discovered += other.Discovered
	s.Expanded += other.Expanded
	s.Details += other.Details
	s.Reused += other.Reused
	s.Participants += other.Participants
	s.Degraded += other.Degraded
}

// Status summarizes the durable state
type Status struct {
	Identities         int `json:"identities"`
	PendingIdentities  int `json:"pending_identities"`
	Details            int `json:"details"`
	EmptyDetails       int `json:"empty_details"`
	Participants       int `json:"participants"`
	UnseenParticipants int `json:"unseen_participants"`
}
