// Package riot is the gateway to the Riot Games TFT API.
//
// Every call is admitted by a rate limiter immediately before the HTTP
// request goes out and carries the API key in the X-Riot-Token header.
// Failures never escape as errors: each operation returns a Result holding
// either the decoded value or a documented fallback (the configured top
// entity ids, an absent identity, an empty id list or an empty match)
// together with a typed cause from pkg/errors.
//
// Example usage:
//
//	client := riot.NewClient(riot.Options{
//	    Credentials: riot.StaticKey(key),
//	    Limiter:     ratelimit.NewDefault(),
//	})
//
//	top := client.FetchTopEntities()
//	if top.Degraded {
//	    log.Printf("using fallback ids: %v", top.Err)
//	}
//	for _, id := range top.Value {
//	    identity := client.FetchIdentity(id)
//	    if !identity.Value.Present() {
//	        continue
//	    }
//	    matches := client.FetchChildIDs(identity.Value.PUUID)
//	    // ...
//	}
package riot
