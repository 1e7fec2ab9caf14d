package orchestrator

import "strings"

// instantAnswer is a canned reply for a known high-frequency question.
// Matching is substring containment against the lowercased query; a hit
// bypasses the entire pipeline (no steps, no trace) on a sub-second
// budget.
type instantAnswer struct {
	patterns []string
	answer   string
}

var instantAnswers = []instantAnswer{
	{
		patterns: []string{"interest rate", "what are the rates", "what is the apr"},
		answer: "The Aven card has variable interest rates ranging from 7.99% to 15.49% APR, " +
			"with a maximum of 18% during the life of the account. A 0.25% autopay discount is available.",
	},
	{
		patterns: []string{"annual fee"},
		answer:   "No, there is no annual fee for the Aven HELOC Credit Card.",
	},
	{
		patterns: []string{"cashback", "cash back"},
		answer: "You earn 2% cashback on all purchases and 7% cashback on travel booked " +
			"through Aven's travel portal.",
	},
	{
		patterns: []string{"credit limit", "maximum limit"},
		answer: "The maximum credit limit is $250,000, subject to your home equity and " +
			"creditworthiness.",
	},
	{
		patterns: []string{"how fast", "how long to get approved", "approval time"},
		answer:   "Approval can be as fast as 5 minutes for qualified applicants.",
	},
	{
		patterns: []string{"who issues", "what bank"},
		answer:   "The Aven Visa Credit Card is issued by Coastal Community Bank.",
	},
	{
		patterns: []string{"balance transfer"},
		answer:   "Yes, balance transfers are available with a 2.5% fee.",
	},
}

// lookupInstant returns the canned answer for query, if any.
func lookupInstant(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, ia := range instantAnswers {
		for _, p := range ia.patterns {
			if strings.Contains(q, p) {
				return ia.answer, true
			}
		}
	}
	return "", false
}
