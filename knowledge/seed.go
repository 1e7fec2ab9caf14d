package knowledge

import (
	"context"
	"fmt"
	"log"

	"github.com/avenkit/support-agent/core"
)

// SeedItems returns the built-in product documentation corpus. It
// covers the card's headline facts so a fresh deployment can answer
// questions before any external ingestion runs.
func SeedItems() []core.KnowledgeItem {
	return []core.KnowledgeItem{
		{
			ID:       "rates-overview",
			Title:    "Interest Rates",
			Category: "rates_fees",
			URL:      "https://www.aven.com/support/rates",
			Content: "The Aven HELOC Credit Card has variable interest rates ranging from " +
				"7.99% to 15.49% APR. The rate can never exceed 18% during the life of the " +
				"account. Enrolling in autopay earns a 0.25% rate discount.",
		},
		{
			ID:       "fees-overview",
			Title:    "Fees",
			Category: "rates_fees",
			URL:      "https://www.aven.com/support/fees",
			Content: "There is no annual fee and no origination fee. Balance transfers carry " +
				"a 2.5% fee. Cash-outs to a bank account carry a 2.5% fee. Late payments may " +
				"incur a fee as described in the cardholder agreement.",
		},
		{
			ID:       "credit-limit",
			Title:    "Credit Limits",
			Category: "product_limits",
			URL:      "https://www.aven.com/support/limits",
			Content: "Credit limits are based on home equity and creditworthiness, up to a " +
				"maximum of $250,000. The available limit may be adjusted over time as home " +
				"value and credit profile change.",
		},
		{
			ID:       "eligibility",
			Title:    "Eligibility Requirements",
			Category: "eligibility",
			URL:      "https://www.aven.com/support/eligibility",
			Content: "Applicants generally need a credit score of 600 or higher, verifiable " +
				"income of at least $50,000 per year, and sufficient equity in their home. " +
				"The home must be the applicant's primary or secondary residence.",
		},
		{
			ID:       "rewards",
			Title:    "Cashback Rewards",
			Category: "rewards",
			URL:      "https://www.aven.com/support/rewards",
			Content: "Cardholders earn 2% unlimited cashback on all purchases and 7% cashback " +
				"on hotels booked through the Aven travel portal. Cashback accrues as points " +
				"redeemable as statement credit.",
		},
		{
			ID:       "application",
			Title:    "Application Process",
			Category: "application_process",
			URL:      "https://www.aven.com/support/apply",
			Content: "Applying takes minutes online with no impact to your credit score for " +
				"checking your offer. Approval can be as fast as 5 minutes. Most applicants " +
				"complete income verification and notarization fully online.",
		},
		{
			ID:       "issuer",
			Title:    "Card Issuer",
			Category: "product_details",
			URL:      "https://www.aven.com/support/about",
			Content: "The Aven Visa Credit Card is issued by Coastal Community Bank, member " +
				"FDIC, pursuant to a license from Visa U.S.A. Inc. The card works anywhere " +
				"Visa is accepted.",
		},
		{
			ID:       "heloc-mechanics",
			Title:    "How the HELOC Card Works",
			Category: "product_details",
			URL:      "https://www.aven.com/support/how-it-works",
			Content: "The card is a home equity line of credit you can spend with like a " +
				"regular credit card. Purchases draw against your home equity line. You can " +
				"also transfer balances from other cards or cash out directly to your bank " +
				"account.",
		},
		{
			ID:       "protection",
			Title:    "Protection Services",
			Category: "protection_services",
			URL:      "https://www.aven.com/support/protection",
			Content: "Aven offers optional debt protection covering your minimum payments in " +
				"case of involuntary job loss. Standard Visa protections such as zero fraud " +
				"liability also apply.",
		},
		{
			ID:       "contact-support",
			Title:    "Contacting Support",
			Category: "support",
			URL:      "https://www.aven.com/support/contact",
			Content: "Support is available in the Aven app and by email at support@aven.com. " +
				"For account emergencies such as a lost or stolen card, call the number on " +
				"the back of your card any time.",
		},
	}
}

// Seed ingests the built-in corpus into the store.
func Seed(ctx context.Context, store *Store) error {
	for _, item := range SeedItems() {
		if err := store.Upsert(ctx, item); err != nil {
			return fmt.Errorf("seed %s: %w", item.ID, err)
		}
	}
	log.Printf("[CHROMEM] Seeded %d documents", store.Count())
	return nil
}
