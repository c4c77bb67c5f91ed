package cluster

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenRe = regexp.MustCompile(`\w\w+`)

// englishStopWords is the scikit-learn English stop word list. "other" is on it, so
// the fallback category label carries no weight.
const englishStopWords = `
a about above across after afterwards again against all almost alone along already also
although always am among amongst amoungst amount an and another any anyhow anyone anything anyway
anywhere are around as at back be became because become becomes becoming been before beforehand
behind being below beside besides between beyond bill both bottom but by call can cannot cant co
con could couldnt cry de describe detail do done down due during each eg eight either eleven else
elsewhere empty enough etc even ever every everyone everything everywhere except few fifteen fifty
fill find fire first five for former formerly forty found four from front full further get give go
had has hasnt have he hence her here hereafter hereby herein hereupon hers herself him himself his
how however hundred i ie if in inc indeed interest into is it its itself keep last latter latterly
least less ltd made many may me meanwhile might mill mine more moreover most mostly move much must
my myself name namely neither never nevertheless next nine no nobody none noone nor not nothing now
nowhere of off often on once one only onto or other others otherwise our ours ourselves out over
own part per perhaps please put rather re same see seem seemed seeming seems serious several she
should show side since sincere six sixty so some somehow someone something sometime sometimes
somewhere still such system take ten than that the their them themselves then thence there
thereafter thereby therefore therein thereupon these they thick thin third this those though three
through throughout thru thus to together too top toward towards twelve twenty two un under until up
upon us very via was we well were what whatever when whence whenever where whereafter whereas
whereby wherein whereupon wherever whether which while whither who whoever whole whom whose why
will with within without would yet you your yours yourself yourselves
`

var stopwords = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(englishStopWords) {
		m[w] = struct{}{}
	}
	return m
}()

func tokenize(doc string) []string {
	var out []string
	for _, w := range tokenRe.FindAllString(strings.ToLower(doc), -1) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Vectorize builds L2-normalised TF-IDF vectors with smoothed idf,
// ln((1+n)/(1+df)) + 1. The vocabulary is sorted; documents made only of
// stopwords become zero vectors.
func Vectorize(docs []string) ([][]float64, []string) {
	tokens := make([][]string, len(docs))
	df := map[string]int{}
	for i, d := range docs {
		tokens[i] = tokenize(d)
		seen := map[string]bool{}
		for _, w := range tokens[i] {
			if !seen[w] {
				seen[w] = true
				df[w]++
			}
		}
	}

	vocab := make([]string, 0, len(df))
	for w := range df {
		vocab = append(vocab, w)
	}
	sort.Strings(vocab)
	col := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	n := float64(len(docs))
	for i, w := range vocab {
		col[w] = i
		idf[i] = math.Log((1+n)/(1+float64(df[w]))) + 1
	}

	vectors := make([][]float64, len(docs))
	for i, toks := range tokens {
		v := make([]float64, len(vocab))
		for _, w := range toks {
			v[col[w]]++
		}
		var norm float64
		for j := range v {
			v[j] *= idf[j]
			norm += v[j] * v[j]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range v {
				v[j] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors, vocab
}
