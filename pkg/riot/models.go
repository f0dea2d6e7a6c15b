package riot

// LeagueList is the response of the challenger league endpoint
type LeagueList struct {
	LeagueID string        `json:"leagueId"`
	Tier     string        `json:"tier"`
	Queue    string        `json:"queue"`
	Name     string        `json:"name"`
	Entries  []LeagueEntry `json:"entries"`
}

// LeagueEntry is one ranked player in a league
type LeagueEntry struct {
	SummonerID   string `json:"summonerId"`
	PUUID        string `json:"puuid"`
	LeaguePoints int    `json:"leaguePoints"`
	Rank         string `json:"rank"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// Summoner is the response of the summoner endpoint
type Summoner struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int64  `json:"summonerLevel"`
}

// Identity is a resolved player
type Identity struct {
	PUUID string
	Name  string
}

// Present reports whether the identity was resolved
func (i Identity) Present() bool {
	return i.PUUID != ""
}

// Result tags a gateway outcome. A degraded result carries the documented
// fallback value in Value and the cause in Err.
type Result[T any] struct {
	Value    T
	Degraded bool
	Err      error
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degrade wraps a fallback value and the error that caused it
func Degrade[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Degraded: true, Err: err}
}
