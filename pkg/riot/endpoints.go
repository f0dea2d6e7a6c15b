package riot

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPlatformHost serves league and summoner lookups for NA
	DefaultPlatformHost = "https://na1.api.riotgames.com"

	// DefaultRegionalHost serves match lookups for the Americas routing region
	DefaultRegionalHost = "https://americas.api.riotgames.com"

	// ChallengerEndpoint lists the TFT challenger league
	ChallengerEndpoint = "/tft/league/v1/challenger"

	// SummonerEndpoint resolves an encrypted summoner id
	SummonerEndpoint = "/lol/summoner/v4/summoners/"

	// MatchIDsEndpoint lists match ids for a puuid
	MatchIDsEndpoint = "/tft/match/v1/matches/by-puuid/%s/ids"

	// MatchEndpoint returns a full match record
	MatchEndpoint = "/tft/match/v1/matches/"

	// DefaultMatchCount matches the API's own default page size
	DefaultMatchCount = 20

	// MaxMatchCount is the largest count the match-ids endpoint accepts
	MaxMatchCount = 200

	maxIDLength = 128
)

// ChallengerURL constructs the URL for the challenger league
func ChallengerURL(platformHost string) string {
	return strings.TrimRight(platformHost, "/") + ChallengerEndpoint
}

// SummonerURL constructs the URL for a summoner lookup
func SummonerURL(platformHost, summonerID string) string {
	return strings.TrimRight(platformHost, "/") + SummonerEndpoint + url.PathEscape(summonerID)
}

// MatchIDsURL constructs the URL listing a player's match ids. A count
// outside 1..MaxMatchCount falls back to DefaultMatchCount.
func MatchIDsURL(regionalHost, puuid string, count int) string {
	if count <= 0 || count > MaxMatchCount {
		count = DefaultMatchCount
	}

	params := url.Values{}
	params.Set("count", strconv.Itoa(count))

	path := fmt.Sprintf(MatchIDsEndpoint, url.PathEscape(puuid))
	return fmt.Sprintf("%s%s?%s", strings.TrimRight(regionalHost, "/"), path, params.Encode())
}

// MatchURL constructs the URL for a single match
func MatchURL(regionalHost, matchID string) string {
	return strings.TrimRight(regionalHost, "/") + MatchEndpoint + url.PathEscape(matchID)
}

// IsValidID checks that an id can be placed in a request path. Riot ids
// (summoner ids, puuids, match ids) use letters, digits, '-' and '_'.
func IsValidID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for _, char := range id {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_') {
			return false
		}
	}

	return true
}
