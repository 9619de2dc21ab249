// Package extract turns raw post text into candidate token names and
// candidate Solana contract addresses.
package extract

import (
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/wnt/memetrack/internal/utils"
)

var (
	// cashtagPattern matches $TOKEN mentions, 2-10 uppercase letters
	cashtagPattern = regexp.MustCompile(`\$([A-Z]{2,10})\b`)

	// hashtagPattern matches #hashtag mentions, 2-20 letters either case
	hashtagPattern = regexp.MustCompile(`#([A-Za-z]{2,20})\b`)

	// addressPattern matches Base58 runs of plausible Solana address length
	addressPattern = regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`)
)

// TokenNames extracts candidate token names from post text. Cashtags are
// matched against the upper-cased text, hashtags as written; both are
// upper-cased and de-duplicated. Order follows first occurrence; callers
// must treat the result as a set.
func TokenNames(text string) []string {
	var names []string

	for _, m := range cashtagPattern.FindAllStringSubmatch(strings.ToUpper(text), -1) {
		names = append(names, m[1])
	}
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		names = append(names, strings.ToUpper(m[1]))
	}

	return utils.Unique(names)
}

// ContractAddress extracts the first valid Solana contract address from
// post text. A candidate is valid when it Base58-decodes to exactly 32
// bytes; decoding failures are non-matches, not errors. First match wins.
func ContractAddress(text string) (string, bool) {
	for _, candidate := range addressPattern.FindAllString(text, -1) {
		if ValidAddress(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ValidAddress reports whether s is a well-formed Solana address:
// Base58 text decoding to a 32-byte public key.
func ValidAddress(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}
