package intel

import (
	"regexp"
	"sort"
	"strings"
)

// Phone number formats seen in scam traffic (Indian and international).
var phonePatterns = []*regexp.Regexp{
	// +91-98765-43210 / +91 9876543210 / +919876543210
	regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{4,5}[-.\s]?\d{4,6}`),
	// 91-9876543210 / 919876543210
	regexp.MustCompile(`\b91[-.\s]?\d{10}\b`),
	// Landline with STD code: 011-23456789
	regexp.MustCompile(`\b0\d{2,4}[-.\s]?\d{6,8}\b`),
	// Bare 10-digit mobile
	regexp.MustCompile(`\b[6-9]\d{9}\b`),
}

var (
	bankPlain     = regexp.MustCompile(`\b\d{9,20}\b`)
	bankFormatted = regexp.MustCompile(`\b\d{4}[\s-]\d{4}[\s-]\d{4}(?:[\s-]\d{2,4})?\b`)
	bankSeparator = regexp.MustCompile(`[\s-]`)

	urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"')\],;]+|www\.[^\s<>"')\],;]+`)

	// Emails and UPI-style payment handles share the @ shape; they are split
	// by domain later (email domains contain a dot, UPI handles do not).
	atPattern = regexp.MustCompile(`[\w.+-]+@[\w.-]+`)
)

// refMatcher pairs the two spellings of a reference identifier: a prefixed
// code token (CASE-2024-001) and a natural-language mention ("case number:
// 2024-001") where only the identifier itself is captured.
type refMatcher struct {
	prefixed *regexp.Regexp
	spoken   *regexp.Regexp
}

var (
	caseRef = refMatcher{
		prefixed: regexp.MustCompile(`(?i)\bCASE[-_#][A-Za-z0-9][\w-]*\b`),
		spoken:   regexp.MustCompile(`(?i)\bcase\s+(?:number|no\.?|id|ref(?:erence)?)\s*[:#-]?\s*([A-Za-z0-9][\w/-]*)`),
	}
	policyRef = refMatcher{
		prefixed: regexp.MustCompile(`(?i)\bPOL(?:ICY)?[-_#][A-Za-z0-9][\w-]*\b`),
		spoken:   regexp.MustCompile(`(?i)\bpolicy\s+(?:number|no\.?|id|ref(?:erence)?)\s*[:#-]?\s*([A-Za-z0-9][\w/-]*)`),
	}
	orderRef = refMatcher{
		prefixed: regexp.MustCompile(`(?i)\bORD(?:ER)?[-_#][A-Za-z0-9][\w-]*\b`),
		spoken:   regexp.MustCompile(`(?i)\border\s+(?:number|no\.?|id|ref(?:erence)?)\s*[:#-]?\s*([A-Za-z0-9][\w/-]*)`),
	}
)

// Extract runs every pattern matcher over text and assembles the results into
// a deduplicated, sorted snapshot. It is pure and never fails: malformed or
// empty input yields an empty snapshot. Suspicious keywords are not mined
// here; that category is filled from model output only.
func Extract(text string) Snapshot {
	links := collectLinks(text)
	handles, emails := collectAtTokens(text, links)

	return Snapshot{
		PhoneNumbers:       sortedValues(collectPhones(text)),
		BankAccounts:       sortedValues(collectBanks(text)),
		PaymentHandles:     sortedValues(handles),
		Links:              sortedValues(links),
		EmailAddresses:     sortedValues(emails),
		CaseReferences:     sortedValues(collectRefs(text, caseRef)),
		PolicyReferences:   sortedValues(collectRefs(text, policyRef)),
		OrderReferences:    sortedValues(collectRefs(text, orderRef)),
		SuspiciousKeywords: []string{},
	}
}

func collectPhones(text string) map[string]struct{} {
	found := make(map[string]struct{})
	for _, pat := range phonePatterns {
		for _, m := range pat.FindAllString(text, -1) {
			found[strings.TrimSpace(m)] = struct{}{}
		}
	}
	return found
}

func collectBanks(text string) map[string]struct{} {
	found := make(map[string]struct{})
	for _, pat := range []*regexp.Regexp{bankPlain, bankFormatted} {
		for _, m := range pat.FindAllString(text, -1) {
			raw := strings.TrimSpace(m)
			found[raw] = struct{}{}
			// Also keep the digits-only form so substring checks succeed
			// against either representation.
			cleaned := bankSeparator.ReplaceAllString(raw, "")
			if cleaned != raw {
				found[cleaned] = struct{}{}
			}
		}
	}
	return found
}

func collectLinks(text string) map[string]struct{} {
	found := make(map[string]struct{})
	for _, m := range urlPattern.FindAllString(text, -1) {
		// Trailing sentence punctuation is not part of the URL.
		url := strings.TrimRight(m, ".,;:!?)")
		if url != "" {
			found[url] = struct{}{}
		}
	}
	return found
}

// collectAtTokens splits @-shaped tokens into payment handles and email
// addresses. Tokens that are substrings of an already-matched link are
// discarded so URL path fragments are not misclassified.
func collectAtTokens(text string, links map[string]struct{}) (handles, emails map[string]struct{}) {
	handles = make(map[string]struct{})
	emails = make(map[string]struct{})
	for _, m := range atPattern.FindAllString(text, -1) {
		val := strings.TrimRight(m, ".")
		at := strings.IndexByte(val, '@')
		if at < 0 || at == len(val)-1 {
			continue
		}
		if insideAnyLink(val, links) {
			continue
		}
		domain := val[at+1:]
		if strings.Contains(domain, ".") {
			emails[val] = struct{}{}
		} else {
			handles[val] = struct{}{}
		}
	}
	return handles, emails
}

func insideAnyLink(val string, links map[string]struct{}) bool {
	for link := range links {
		if strings.Contains(link, val) {
			return true
		}
	}
	return false
}

func collectRefs(text string, ref refMatcher) map[string]struct{} {
	found := make(map[string]struct{})
	for _, m := range ref.prefixed.FindAllString(text, -1) {
		found[m] = struct{}{}
	}
	for _, groups := range ref.spoken.FindAllStringSubmatch(text, -1) {
		if len(groups) > 1 && groups[1] != "" {
			found[groups[1]] = struct{}{}
		}
	}
	return found
}

func sortedValues(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
