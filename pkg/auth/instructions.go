package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAPIKeyGuide writes step-by-step instructions for obtaining a Riot API key
func ShowAPIKeyGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "RIOT API KEY GUIDE")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 1: Sign in to the developer portal")
	fmt.Fprintln(w, "   - Go to https://developer.riotgames.com")
	fmt.Fprintln(w, "   - Log in with your Riot account")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 2: Copy your key")
	fmt.Fprintln(w, "   - The dashboard shows a DEVELOPMENT API KEY")
	fmt.Fprintln(w, "   - It looks like RGAPI-xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx")
	fmt.Fprintln(w, "   - Press 'Regenerate API Key' if it has expired")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "LIMITS:")
	fmt.Fprintln(w, "   - Development keys expire every 24 hours")
	fmt.Fprintln(w, "   - They allow 20 requests per second and 100 requests per 2 minutes")
	fmt.Fprintln(w, "   - The crawler stays under both caps on its own")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SECURITY:")
	fmt.Fprintln(w, "   - Never commit the key or share it")
	fmt.Fprintln(w, "   - 'tftcrawler auth login' keeps it in the system keyring or an encrypted file")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
}
