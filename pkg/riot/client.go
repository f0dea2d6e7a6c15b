package riot

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"tftcrawler/pkg/config"
	"tftcrawler/pkg/errors"
	"tftcrawler/pkg/logger"
	"tftcrawler/pkg/metrics"
	"tftcrawler/pkg/ratelimit"
)

// HeaderToken carries the API key on every request
const HeaderToken = "X-Riot-Token"

// Endpoint labels used in logs and metrics
const (
	EndpointChallenger = "challenger"
	EndpointSummoner   = "summoner"
	EndpointMatchIDs   = "match_ids"
	EndpointMatch      = "match"
)

const userAgent = "tftcrawler/1.0"

// CredentialProvider supplies the API key for each request
type CredentialProvider interface {
	APIKey() (string, error)
}

// StaticKey is a fixed API key
type StaticKey string

// APIKey returns the key or a credential error if it is empty
func (k StaticKey) APIKey() (string, error) {
	if k == "" {
		return "", errors.New(errors.ErrorTypeCredential, 0, "no API key configured")
	}
	return string(k), nil
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	HTTPClient   *http.Client
	Timeout      time.Duration
	Credentials  CredentialProvider
	Limiter      ratelimit.Limiter
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	PlatformHost string
	RegionalHost string
	MatchCount   int

	// FallbackIDs replace the top entities when the league call fails.
	// Nil selects config.DefaultFallbackIDs.
	FallbackIDs []string

	// DisableFallback makes a failed league call yield an empty list
	DisableFallback bool
}

// OptionsFromConfig maps the riot and crawl sections of cfg onto Options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:         cfg.Riot.Timeout,
		PlatformHost:    cfg.Riot.PlatformHost,
		RegionalHost:    cfg.Riot.RegionalHost,
		MatchCount:      cfg.Riot.MatchCount,
		FallbackIDs:     cfg.Crawl.FallbackIDs,
		DisableFallback: !cfg.Crawl.FallbackOnTopFailure,
	}
}

// Client represents a Riot API client
type Client struct {
	httpClient   *http.Client
	credentials  CredentialProvider
	limiter      ratelimit.Limiter
	logger       logger.Logger
	metrics      *metrics.Metrics
	platformHost string
	regionalHost string
	matchCount   int
	fallbackIDs  []string
}

// NewClient creates a new Riot API client
func NewClient(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewDefault()
	}
	if opts.Credentials == nil {
		opts.Credentials = StaticKey("")
	}
	if opts.HTTPClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}
	if opts.PlatformHost == "" {
		opts.PlatformHost = DefaultPlatformHost
	}
	if opts.RegionalHost == "" {
		opts.RegionalHost = DefaultRegionalHost
	}
	if opts.MatchCount <= 0 {
		opts.MatchCount = DefaultMatchCount
	}

	var fallback []string
	if !opts.DisableFallback {
		fallback = opts.FallbackIDs
		if fallback == nil {
			fallback = config.DefaultFallbackIDs
		}
	}

	return &Client{
		httpClient:   opts.HTTPClient,
		credentials:  opts.Credentials,
		limiter:      opts.Limiter,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		platformHost: opts.PlatformHost,
		regionalHost: opts.RegionalHost,
		matchCount:   opts.MatchCount,
		fallbackIDs:  append([]string{}, fallback...),
	}
}

// FetchTopEntities lists the summoner ids of the challenger league. On any
// failure the configured fallback ids are returned as a degraded result.
func (c *Client) FetchTopEntities() Result[[]string] {
	var league LeagueList
	if err := c.getJSON(EndpointChallenger, ChallengerURL(c.platformHost), &league); err != nil {
		c.logger.WarnWithFields("Top entity fetch failed, using fallback", map[string]interface{}{
			"error":    err.Error(),
			"fallback": len(c.fallbackIDs),
		})
		return Degrade(append([]string{}, c.fallbackIDs...), err)
	}

	ids := make([]string, 0, len(league.Entries))
	for _, entry := range league.Entries {
		if entry.SummonerID != "" {
			ids = append(ids, entry.SummonerID)
		}
	}

	c.logger.DebugWithFields("Fetched top entities", map[string]interface{}{
		"tier":    league.Tier,
		"entries": len(ids),
	})
	return Ok(ids)
}

// FetchIdentity resolves a summoner id to a puuid and display name. A
// degraded result holds an absent Identity.
func (c *Client) FetchIdentity(summonerID string) Result[Identity] {
	if !IsValidID(summonerID) {
		return Degrade(Identity{}, errors.New(errors.ErrorTypeUnknown, 0, "invalid summoner id %q", summonerID))
	}

	var summoner Summoner
	if err := c.getJSON(EndpointSummoner, SummonerURL(c.platformHost, summonerID), &summoner); err != nil {
		c.logger.WarnWithFields("Identity fetch failed", map[string]interface{}{
			"summoner_id": summonerID,
			"error":       err.Error(),
		})
		return Degrade(Identity{}, err)
	}

	if summoner.PUUID == "" {
		err := errors.New(errors.ErrorTypeParsing, http.StatusOK, "summoner %s has no puuid", summonerID)
		c.logger.WarnWithFields("Identity response missing puuid", map[string]interface{}{
			"summoner_id": summonerID,
		})
		return Degrade(Identity{}, err)
	}

	return Ok(Identity{PUUID: summoner.PUUID, Name: summoner.Name})
}

// FetchChildIDs lists recent match ids for a puuid, empty on failure
func (c *Client) FetchChildIDs(puuid string) Result[[]string] {
	if !IsValidID(puuid) {
		return Degrade([]string{}, errors.New(errors.ErrorTypeUnknown, 0, "invalid puuid %q", puuid))
	}

	var ids []string
	if err := c.getJSON(EndpointMatchIDs, MatchIDsURL(c.regionalHost, puuid, c.matchCount), &ids); err != nil {
		c.logger.WarnWithFields("Match id fetch failed", map[string]interface{}{
			"puuid": puuid,
			"error": err.Error(),
		})
		return Degrade([]string{}, err)
	}
	if ids == nil {
		ids = []string{}
	}

	return Ok(ids)
}

// FetchDetail returns the full match record, an empty map on failure.
// Numbers are kept as json.Number so large ids survive a save.
func (c *Client) FetchDetail(matchID string) Result[map[string]interface{}] {
	if !IsValidID(matchID) {
		return Degrade(map[string]interface{}{}, errors.New(errors.ErrorTypeUnknown, 0, "invalid match id %q", matchID))
	}

	var detail map[string]interface{}
	if err := c.getJSON(EndpointMatch, MatchURL(c.regionalHost, matchID), &detail); err != nil {
		c.logger.WarnWithFields("Match fetch failed", map[string]interface{}{
			"match_id": matchID,
			"error":    err.Error(),
		})
		return Degrade(map[string]interface{}{}, err)
	}
	if detail == nil {
		return Degrade(map[string]interface{}{}, errors.New(errors.ErrorTypeParsing, http.StatusOK, "match %s is null", matchID))
	}

	return Ok(detail)
}

// getJSON admits one request through the limiter, performs it and decodes
// a 200 response into target. Any other outcome is a typed error.
func (c *Client) getJSON(endpoint, url string, target interface{}) error {
	key, err := c.credentials.APIKey()
	if err != nil {
		return errors.New(errors.ErrorTypeCredential, 0, "failed to resolve API key: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set(HeaderToken, key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.limiter.Wait()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, string(errors.ErrorTypeNetwork), duration)
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"endpoint": endpoint,
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, duration)

	if resp.StatusCode != http.StatusOK {
		apiErr := errors.FromStatusCode(resp.StatusCode)
		c.metrics.ObserveRequest(endpoint, string(apiErr.Type), duration)
		return apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, string(errors.ErrorTypeNetwork), duration)
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		bodyPreview := strings.TrimSpace(string(body))
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.metrics.ObserveRequest(endpoint, string(errors.ErrorTypeParsing), duration)
		c.logger.ErrorWithFields("Failed to parse JSON response", map[string]interface{}{
			"endpoint":     endpoint,
			"url":          url,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	c.metrics.ObserveRequest(endpoint, "ok", duration)
	return nil
}
