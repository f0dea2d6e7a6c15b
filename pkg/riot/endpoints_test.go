package riot

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengerURL(t *testing.T) {
	assert.Equal(t, "https://na1.api.riotgames.com/tft/league/v1/challenger", ChallengerURL(DefaultPlatformHost))
	assert.Equal(t, "http://localhost:8080/tft/league/v1/challenger", ChallengerURL("http://localhost:8080/"))
}

func TestSummonerURL(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected string
	}{
		{
			name:     "plain id",
			id:       "SVl3E89xTvMRHILCrxrA48GygMdGih4qEyf-xaJFFb8c9tw",
			expected: DefaultPlatformHost + "/lol/summoner/v4/summoners/SVl3E89xTvMRHILCrxrA48GygMdGih4qEyf-xaJFFb8c9tw",
		},
		{
			name:     "path characters are escaped",
			id:       "a/b",
			expected: DefaultPlatformHost + "/lol/summoner/v4/summoners/a%2Fb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SummonerURL(DefaultPlatformHost, tt.id)
			assert.Equal(t, tt.expected, result)

			_, err := url.Parse(result)
			assert.NoError(t, err)
		})
	}
}

func TestMatchIDsURL(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  string
	}{
		{"default count", 0, "20"},
		{"explicit count", 50, "50"},
		{"negative falls back", -1, "20"},
		{"too large falls back", MaxMatchCount + 1, "20"},
		{"max count", MaxMatchCount, "200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MatchIDsURL(DefaultRegionalHost, "p-1", tt.count)

			parsed, err := url.Parse(result)
			require.NoError(t, err)
			assert.Equal(t, "americas.api.riotgames.com", parsed.Host)
			assert.Equal(t, "/tft/match/v1/matches/by-puuid/p-1/ids", parsed.Path)
			assert.Equal(t, tt.want, parsed.Query().Get("count"))
		})
	}
}

func TestMatchURL(t *testing.T) {
	assert.Equal(t, DefaultRegionalHost+"/tft/match/v1/matches/NA1_4123456789", MatchURL(DefaultRegionalHost, "NA1_4123456789"))
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"NA1_4123456789", true},
		{"5FBnLDL43thPLWmfBB6fOZ-cvPD_JnDP7lVE-jFPNpt8LdU", true},
		{"", false},
		{"has space", false},
		{"../etc", false},
		{"a?b=c", false},
		{string(make([]byte, 129)), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidID(tt.id), "IsValidID(%q)", tt.id)
	}
}
