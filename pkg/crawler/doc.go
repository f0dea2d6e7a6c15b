// Package crawler harvests TFT players and matches into the collection store.
//
// A run has three strictly sequential phases:
//
//   - Discover: fetch the challenger league and append an Identity for every
//     player not yet stored.
//   - Expand: for every unexpanded Identity, fetch its match ids and the
//     full record of every match not yet recorded on it.
//   - Derive: scan every stored match and append a Participant for every
//     puuid not yet stored.
//
// Each phase loads its collections at start and persists as it goes, so a
// crawl that is killed can simply be started again. Fetch failures are
// degraded by the gateway and counted; only store errors stop a run.
//
// Usage:
//
//	st, _ := store.New(dir, log)
//	c := crawler.New(riot.NewClient(opts), st, log, metrics.New())
//	stats, err := c.Run()
package crawler
