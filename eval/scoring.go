package eval

import "github.com/tmustier/webtk"

// Score computes hit@k and MRR for one case over provider results. URL
// matching normalizes both sides the same way the cache fingerprints URLs;
// domain matching is exact-or-subdomain.
func Score(results []webtk.SearchResult, c webtk.EvalCase, k int) *webtk.SearchScore {
	if c.K > 0 {
		k = c.K
	}
	top := results
	if len(top) > k {
		top = top[:k]
	}

	score := &webtk.SearchScore{
		K:                 k,
		HasURLCriteria:    len(c.ExpectedURLs) > 0,
		HasDomainCriteria: len(c.ExpectedDomains) > 0,
	}

	if score.HasURLCriteria {
		expected := make(map[string]string, len(c.ExpectedURLs))
		for _, u := range c.ExpectedURLs {
			expected[webtk.NormalizeURL(u)] = u
		}
		for rank, result := range top {
			if _, ok := expected[webtk.NormalizeURL(result.URL)]; ok {
				score.URLHit = true
				score.URLFirstHitRank = rank + 1
				score.URLMRR = 1.0 / float64(rank+1)
				break
			}
		}
		for _, u := range c.ExpectedURLs {
			normalized := webtk.NormalizeURL(u)
			for _, result := range top {
				if webtk.NormalizeURL(result.URL) == normalized {
					score.MatchedURLs = append(score.MatchedURLs, u)
					break
				}
			}
		}
	}

	if score.HasDomainCriteria {
		for rank, result := range top {
			if matchesAnyDomain(result.URL, c.ExpectedDomains) {
				score.DomainHit = true
				score.DomainFirstRank = rank + 1
				score.DomainMRR = 1.0 / float64(rank+1)
				break
			}
		}
		for _, domain := range c.ExpectedDomains {
			for _, result := range top {
				if webtk.HostMatchesDomain(webtk.Host(result.URL), domain) {
					score.MatchedDomains = append(score.MatchedDomains, domain)
					break
				}
			}
		}
	}

	return score
}

// Hit reports whether the case's criteria were met: any expected URL in
// the top k, or, for domain-only cases, any expected domain.
func Hit(score *webtk.SearchScore) bool {
	if score == nil {
		return false
	}
	if score.HasURLCriteria {
		return score.URLHit
	}
	if score.HasDomainCriteria {
		return score.DomainHit
	}
	return false
}

// MRR returns the reciprocal rank for the case's primary criteria.
func MRR(score *webtk.SearchScore) float64 {
	if score == nil {
		return 0
	}
	if score.HasURLCriteria {
		return score.URLMRR
	}
	return score.DomainMRR
}

func matchesAnyDomain(url string, domains []string) bool {
	host := webtk.Host(url)
	if host == "" {
		return false
	}
	for _, domain := range domains {
		if webtk.HostMatchesDomain(host, domain) {
			return true
		}
	}
	return false
}
