// Package intent parses callback button payloads into typed intents
// at the dispatch boundary.
package intent

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback payloads are "<domain>:<value>" or "<domain>:<page>:nav".
// They are parsed once, at the dispatch boundary, into an Intent;
// handlers never see the raw string.

// Payload domains.
const (
	DomainPick  = "pick"  // submit flow challenge selection
	DomainChal  = "chal"  // catalog detail card
	DomainBlood = "blood" // solver list of one challenge

	// Pagination domains, also used as snapshot keys.
	DomainLeaderboard = "lb"
	DomainUsers       = "users"
	DomainSubmissions = "subs"
)

// IntentKind tags the Intent union.
type IntentKind int

const (
	IntentPickChallenge IntentKind = iota // Name is the picked challenge
	IntentChallengeDetail                 // Name is the challenge to show
	IntentBloodDetail                     // Name is the challenge whose solvers to show
	IntentPage                            // Domain/Page address a snapshot page
)

// Intent is the typed form of one callback button press.
type Intent struct {
	Kind   IntentKind
	Name   string
	Domain string
	Page   int
}

// pageDomains are the domains that accept ":<page>:nav" payloads.
var pageDomains = map[string]bool{
	DomainLeaderboard: true,
	DomainUsers:       true,
	DomainSubmissions: true,
}

// ParseIntent decodes a callback payload. ok is false for anything
// malformed; callers treat that as a no-op rather than an error.
func ParseIntent(data string) (Intent, bool) {
	// telebot v3 prefixes callback data with \f for its own routing.
	data = strings.TrimPrefix(data, "\f")

	domain, rest, found := strings.Cut(data, ":")
	if !found || domain == "" || rest == "" {
		return Intent{}, false
	}

	if pageDomains[domain] {
		pageStr, nav, hasNav := strings.Cut(rest, ":")
		if !hasNav || nav != "nav" {
			return Intent{}, false
		}
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 0 {
			return Intent{}, false
		}
		return Intent{Kind: IntentPage, Domain: domain, Page: page}, true
	}

	switch domain {
	case DomainPick:
		return Intent{Kind: IntentPickChallenge, Name: rest}, true
	case DomainChal:
		return Intent{Kind: IntentChallengeDetail, Name: rest}, true
	case DomainBlood:
		return Intent{Kind: IntentBloodDetail, Name: rest}, true
	}
	return Intent{}, false
}

// EncodeValue builds a "<domain>:<value>" payload.
func EncodeValue(domain, value string) string {
	return fmt.Sprintf("%s:%s", domain, value)
}

// EncodePage builds a "<domain>:<page>:nav" payload.
func EncodePage(domain string, page int) string {
	return fmt.Sprintf("%s:%d:nav", domain, page)
}
