package intel

// Snapshot maps each intelligence category to a deduplicated, sorted list of
// matched strings. The JSON field names follow the collaborator wire contract.
type Snapshot struct {
	PhoneNumbers       []string `json:"phoneNumbers"`
	BankAccounts       []string `json:"bankAccounts"`
	PaymentHandles     []string `json:"upiIds"`
	Links              []string `json:"phishingLinks"`
	EmailAddresses     []string `json:"emailAddresses"`
	CaseReferences     []string `json:"caseReferences"`
	PolicyReferences   []string `json:"policyReferences"`
	OrderReferences    []string `json:"orderReferences"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Total returns the number of entries across all categories.
func (s Snapshot) Total() int {
	return len(s.PhoneNumbers) + len(s.BankAccounts) + len(s.PaymentHandles) +
		len(s.Links) + len(s.EmailAddresses) + len(s.CaseReferences) +
		len(s.PolicyReferences) + len(s.OrderReferences) + len(s.SuspiciousKeywords)
}

// Empty reports whether no category holds any entry.
func (s Snapshot) Empty() bool {
	return s.Total() == 0
}

// Normalize returns a copy with every category deduplicated, sorted and
// non-nil, so a snapshot from an untrusted source marshals the same way as
// one built by Extract.
func (s Snapshot) Normalize() Snapshot {
	return Merge(s, Snapshot{})
}
