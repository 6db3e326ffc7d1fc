package intel

import "sort"

// Merge unions two snapshots category by category, returning sorted,
// deduplicated lists. Merge is commutative, associative and idempotent, so
// replaying it over a conversation history never drops a value once observed.
func Merge(a, b Snapshot) Snapshot {
	return Snapshot{
		PhoneNumbers:       unionSorted(a.PhoneNumbers, b.PhoneNumbers),
		BankAccounts:       unionSorted(a.BankAccounts, b.BankAccounts),
		PaymentHandles:     unionSorted(a.PaymentHandles, b.PaymentHandles),
		Links:              unionSorted(a.Links, b.Links),
		EmailAddresses:     unionSorted(a.EmailAddresses, b.EmailAddresses),
		CaseReferences:     unionSorted(a.CaseReferences, b.CaseReferences),
		PolicyReferences:   unionSorted(a.PolicyReferences, b.PolicyReferences),
		OrderReferences:    unionSorted(a.OrderReferences, b.OrderReferences),
		SuspiciousKeywords: unionSorted(a.SuspiciousKeywords, b.SuspiciousKeywords),
	}
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
