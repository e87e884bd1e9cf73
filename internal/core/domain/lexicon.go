package domain

import "strings"

// RegionalLexicon holds the market-specific vocabulary used for boosting,
// relevance scoring and profile regional focus.
type RegionalLexicon struct {
	PriorityTerms []string `yaml:"priority_terms" json:"priority_terms"`
	Countries     []string `yaml:"countries" json:"countries"`
	Exchanges     []string `yaml:"exchanges" json:"exchanges"`
	Topics        []string `yaml:"topics" json:"topics"`
	MobileMoney   []string `yaml:"mobile_money" json:"mobile_money"`
}

// DefaultRegionalLexicon returns the African crypto market vocabulary
func DefaultRegionalLexicon() RegionalLexicon {
	return RegionalLexicon{
		PriorityTerms: []string{
			"binance africa", "luno", "quidax", "buycoins", "valr", "ice3x",
			"m-pesa", "orange money", "mtn money", "ecocash", "airtel money",
			"naira", "rand", "shilling", "franc cfa", "birr", "cedi",
			"lagos", "johannesburg", "nairobi", "cairo", "casablanca", "accra",
		},
		Countries: []string{
			"Nigeria", "Kenya", "South Africa", "Ghana", "Uganda", "Tanzania",
			"Rwanda", "Zimbabwe", "Botswana", "Zambia", "Morocco", "Egypt",
		},
		Exchanges: []string{
			"Binance Africa", "Luno", "Quidax", "BuyCoins", "Valr", "Ice3X",
			"Remitano", "NairaEx", "KuBitX", "Paxful", "Yellow Card", "Roqqu",
		},
		Topics: []string{
			"mobile money", "cross-border payments", "remittances", "financial inclusion",
			"inflation hedge", "currency devaluation", "peer-to-peer trading",
			"unbanked population", "diaspora payments", "economic instability",
		},
		MobileMoney: []string{"mobile money", "m-pesa", "orange money", "mtn money"},
	}
}

// MatchesPriority reports whether any priority term occurs in one of texts.
// texts are compared case-insensitively.
func (l RegionalLexicon) MatchesPriority(texts ...string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, term := range l.PriorityTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}

// MatchingPriorityTerms returns the priority terms whose first word occurs in query
func (l RegionalLexicon) MatchingPriorityTerms(query string) []string {
	lower := strings.ToLower(query)
	var out []string
	for _, term := range l.PriorityTerms {
		first, _, _ := strings.Cut(term, " ")
		if first != "" && strings.Contains(lower, first) {
			out = append(out, term)
		}
	}
	return out
}

// RelevanceMatches counts countries, exchanges and topics mentioned in the
// lower-cased text.
func (l RegionalLexicon) RelevanceMatches(lower string) int {
	n := 0
	for _, group := range [][]string{l.Countries, l.Exchanges, l.Topics} {
		for _, term := range group {
			if strings.Contains(lower, strings.ToLower(term)) {
				n++
			}
		}
	}
	return n
}

// Relevance scores how strongly the lower-cased text relates to the region.
// Saturates at 1 once saturation distinct terms are mentioned.
func (l RegionalLexicon) Relevance(lower string, saturation int) float64 {
	if saturation <= 0 {
		saturation = 1
	}
	r := float64(l.RelevanceMatches(lower)) / float64(saturation)
	if r > 1 {
		return 1
	}
	return r
}

// MentionsMobileMoney reports whether the lower-cased text mentions a mobile money rail
func (l RegionalLexicon) MentionsMobileMoney(lower string) bool {
	for _, term := range l.MobileMoney {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
