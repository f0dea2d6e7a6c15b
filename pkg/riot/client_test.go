package riot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tftcrawler/pkg/config"
	"tftcrawler/pkg/errors"
	"tftcrawler/pkg/logger"
	"tftcrawler/pkg/metrics"
)

const testKey = "RGAPI-test-key"

// countingLimiter records admissions without sleeping
type countingLimiter struct {
	waits atomic.Int32
}

func (l *countingLimiter) Allow() bool { l.waits.Add(1); return true }
func (l *countingLimiter) Wait()       { l.waits.Add(1) }
func (l *countingLimiter) Reset()      { l.waits.Store(0) }

// mockServer serves canned responses per path and counts requests
type mockServer struct {
	*httptest.Server
	requests  atomic.Int32
	lastToken atomic.Value
	lastQuery atomic.Value
	responses map[string]response
}

type response struct {
	status int
	body   string
}

func newMockServer(t *testing.T, responses map[string]response) *mockServer {
	t.Helper()
	ms := &mockServer{responses: responses}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.requests.Add(1)
		ms.lastToken.Store(r.Header.Get(HeaderToken))
		ms.lastQuery.Store(r.URL.RawQuery)

		resp, ok := ms.responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		fmt.Fprint(w, resp.body)
	}))
	t.Cleanup(ms.Close)
	return ms
}

func newTestClient(t *testing.T, server *mockServer, mutate func(*Options)) (*Client, *countingLimiter, *metrics.Metrics) {
	t.Helper()
	limiter := &countingLimiter{}
	m := metrics.New()
	opts := Options{
		Credentials:  StaticKey(testKey),
		Limiter:      limiter,
		Logger:       logger.NewTestLogger(),
		Metrics:      m,
		PlatformHost: server.URL,
		RegionalHost: server.URL,
		Timeout:      5 * time.Second,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewClient(opts), limiter, m
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Options{})

	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.limiter)
	assert.NotNil(t, client.logger)
	assert.Equal(t, DefaultPlatformHost, client.platformHost)
	assert.Equal(t, DefaultRegionalHost, client.regionalHost)
	assert.Equal(t, DefaultMatchCount, client.matchCount)
	assert.Equal(t, config.DefaultFallbackIDs, client.fallbackIDs)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Riot.MatchCount = 50
	cfg.Crawl.FallbackOnTopFailure = false

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 50, opts.MatchCount)
	assert.Equal(t, cfg.Riot.PlatformHost, opts.PlatformHost)
	assert.True(t, opts.DisableFallback)

	client := NewClient(opts)
	assert.Empty(t, client.fallbackIDs)
}

func TestFetchTopEntities(t *testing.T) {
	server := newMockServer(t, map[string]response{
		ChallengerEndpoint: {http.StatusOK, `{"tier":"CHALLENGER","entries":[{"summonerId":"s-1","leaguePoints":1200},{"summonerId":""},{"summonerId":"s-2"}]}`},
	})
	client, limiter, m := newTestClient(t, server, nil)

	result := client.FetchTopEntities()

	assert.False(t, result.Degraded)
	assert.NoError(t, result.Err)
	assert.Equal(t, []string{"s-1", "s-2"}, result.Value)
	assert.Equal(t, testKey, server.lastToken.Load())
	assert.Equal(t, int32(1), limiter.waits.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues(EndpointChallenger, "ok")))
}

func TestFetchTopEntitiesFallback(t *testing.T) {
	server := newMockServer(t, map[string]response{
		ChallengerEndpoint: {http.StatusInternalServerError, `{"status":{"message":"boom"}}`},
	})

	t.Run("default fallback ids", func(t *testing.T) {
		client, _, m := newTestClient(t, server, nil)

		result := client.FetchTopEntities()

		assert.True(t, result.Degraded)
		assert.True(t, errors.IsType(result.Err, errors.ErrorTypeServerError))
		assert.Equal(t, config.DefaultFallbackIDs, result.Value)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues(EndpointChallenger, "server_error")))
	})

	t.Run("configured fallback ids", func(t *testing.T) {
		client, _, _ := newTestClient(t, server, func(o *Options) { o.FallbackIDs = []string{"x"} })

		result := client.FetchTopEntities()
		assert.Equal(t, []string{"x"}, result.Value)
	})

	t.Run("fallback disabled", func(t *testing.T) {
		client, _, _ := newTestClient(t, server, func(o *Options) { o.DisableFallback = true })

		result := client.FetchTopEntities()
		assert.True(t, result.Degraded)
		assert.NotNil(t, result.Value)
		assert.Empty(t, result.Value)
	})

	t.Run("caller cannot mutate fallback", func(t *testing.T) {
		client, _, _ := newTestClient(t, server, nil)

		first := client.FetchTopEntities()
		first.Value[0] = "changed"
		second := client.FetchTopEntities()
		assert.Equal(t, config.DefaultFallbackIDs, second.Value)
	})
}

func TestFetchTopEntitiesNetworkFailure(t *testing.T) {
	server := newMockServer(t, nil)
	client, limiter, _ := newTestClient(t, server, nil)
	server.Close()

	result := client.FetchTopEntities()

	assert.True(t, result.Degraded)
	assert.True(t, errors.IsType(result.Err, errors.ErrorTypeNetwork))
	assert.Equal(t, config.DefaultFallbackIDs, result.Value)
	assert.Equal(t, int32(1), limiter.waits.Load(), "a failed request is still admitted")
}

func TestFetchIdentity(t *testing.T) {
	server := newMockServer(t, map[string]response{
		SummonerEndpoint + "s-1":     {http.StatusOK, `{"id":"s-1","puuid":"p-1","name":"Alice","summonerLevel":412}`},
		SummonerEndpoint + "s-empty": {http.StatusOK, `{"id":"s-empty","puuid":"","name":"Ghost"}`},
		SummonerEndpoint + "s-bad":   {http.StatusOK, `<html>`},
	})
	client, _, _ := newTestClient(t, server, nil)

	tests := []struct {
		name     string
		id       string
		want     Identity
		wantType errors.ErrorType
	}{
		{"resolved", "s-1", Identity{PUUID: "p-1", Name: "Alice"}, ""},
		{"empty puuid is absent", "s-empty", Identity{}, errors.ErrorTypeParsing},
		{"not found", "s-missing", Identity{}, errors.ErrorTypeNotFound},
		{"invalid json", "s-bad", Identity{}, errors.ErrorTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.FetchIdentity(tt.id)
			assert.Equal(t, tt.want, result.Value)
			if tt.wantType == "" {
				assert.False(t, result.Degraded)
				assert.True(t, result.Value.Present())
				return
			}
			assert.True(t, result.Degraded)
			assert.False(t, result.Value.Present())
			assert.Equal(t, tt.wantType, errors.TypeOf(result.Err))
		})
	}
}

func TestFetchIdentityInvalidIDSkipsRequest(t *testing.T) {
	server := newMockServer(t, nil)
	client, limiter, _ := newTestClient(t, server, nil)

	result := client.FetchIdentity("../../admin")

	assert.True(t, result.Degraded)
	assert.Equal(t, int32(0), server.requests.Load())
	assert.Equal(t, int32(0), limiter.waits.Load())
}

func TestFetchChildIDs(t *testing.T) {
	server := newMockServer(t, map[string]response{
		"/tft/match/v1/matches/by-puuid/p-1/ids": {http.StatusOK, `["NA1_1","NA1_2"]`},
		"/tft/match/v1/matches/by-puuid/p-2/ids": {http.StatusOK, `null`},
		"/tft/match/v1/matches/by-puuid/p-3/ids": {http.StatusTooManyRequests, ``},
	})
	client, _, _ := newTestClient(t, server, func(o *Options) { o.MatchCount = 5 })

	result := client.FetchChildIDs("p-1")
	assert.False(t, result.Degraded)
	assert.Equal(t, []string{"NA1_1", "NA1_2"}, result.Value)
	assert.Equal(t, "count=5", server.lastQuery.Load())

	result = client.FetchChildIDs("p-2")
	assert.False(t, result.Degraded)
	assert.NotNil(t, result.Value)
	assert.Empty(t, result.Value)

	result = client.FetchChildIDs("p-3")
	assert.True(t, result.Degraded)
	assert.NotNil(t, result.Value)
	assert.Empty(t, result.Value)
	assert.True(t, errors.IsType(result.Err, errors.ErrorTypeRateLimit))
}

func TestFetchDetail(t *testing.T) {
	server := newMockServer(t, map[string]response{
		MatchEndpoint + "NA1_1":    {http.StatusOK, `{"metadata":{"match_id":"NA1_1","participants":["p-1","p-2"]},"info":{"game_id":4987654321012,"game_length":1834.52}}`},
		MatchEndpoint + "NA1_null": {http.StatusOK, `null`},
		MatchEndpoint + "NA1_auth": {http.StatusForbidden, `{}`},
	})
	client, limiter, _ := newTestClient(t, server, nil)

	result := client.FetchDetail("NA1_1")
	require.False(t, result.Degraded)
	metadata, ok := result.Value["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "NA1_1", metadata["match_id"])
	info := result.Value["info"].(map[string]interface{})
	assert.Equal(t, json.Number("4987654321012"), info["game_id"])

	result = client.FetchDetail("NA1_null")
	assert.True(t, result.Degraded)
	assert.NotNil(t, result.Value)
	assert.Empty(t, result.Value)

	result = client.FetchDetail("NA1_auth")
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Value)
	assert.True(t, errors.IsType(result.Err, errors.ErrorTypeAuth))

	assert.Equal(t, int32(3), limiter.waits.Load(), "one admission per request")
}

func TestMissingCredentialSkipsRequest(t *testing.T) {
	server := newMockServer(t, map[string]response{
		ChallengerEndpoint: {http.StatusOK, `{"entries":[]}`},
	})
	client, limiter, _ := newTestClient(t, server, func(o *Options) { o.Credentials = StaticKey("") })

	result := client.FetchTopEntities()

	assert.True(t, result.Degraded)
	assert.True(t, errors.IsType(result.Err, errors.ErrorTypeCredential))
	assert.Equal(t, int32(0), server.requests.Load())
	assert.Equal(t, int32(0), limiter.waits.Load())
}

func TestRequestLogging(t *testing.T) {
	server := newMockServer(t, map[string]response{
		MatchEndpoint + "NA1_1": {http.StatusServiceUnavailable, ``},
	})
	log := logger.NewTestLogger()
	client, _, _ := newTestClient(t, server, func(o *Options) { o.Logger = log })

	client.FetchDetail("NA1_1")

	assert.True(t, log.HasMessage("Match fetch failed"))
	errorsLogged := log.GetMessagesByLevel("ERROR")
	require.Len(t, errorsLogged, 1, "5xx responses are logged at error level")
	assert.True(t, strings.HasSuffix(errorsLogged[0].Fields["url"].(string), "/NA1_1"))
	for _, msg := range log.GetMessages() {
		for _, v := range msg.Fields {
			if s, ok := v.(string); ok {
				assert.NotContains(t, s, testKey, "the API key must never be logged")
			}
		}
	}
}
