package crawler

import "tftcrawler/pkg/riot"

// Gateway defines the remote operations the crawler depends on
type Gateway interface {
	FetchTopEntities() riot.Result[[]string]
	FetchIdentity(id string) riot.Result[riot.Identity]
	FetchChildIDs(puuid string) riot.Result[[]string]
	FetchDetail(matchID string) riot.Result[map[string]interface{}]
}
