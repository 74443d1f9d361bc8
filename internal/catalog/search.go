package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/iwilltry42/bm25-go/bm25"
)

// searchIndex is a BM25 index over one document per catalog entry.
type searchIndex struct {
	okapi *bm25.BM25Okapi
	docs  []int // document index -> entry index
}

func newSearchIndex(entries []Entry) (*searchIndex, error) {
	var corpus []string
	var docs []int
	for i, e := range entries {
		doc := strings.Join([]string{e.CourseID, e.Title, e.Department, e.Description, e.Instructors}, " ")
		if len(tokenize(doc)) == 0 {
			continue
		}
		corpus = append(corpus, doc)
		docs = append(docs, i)
	}
	if len(corpus) == 0 {
		return nil, nil
	}

	// k1=1.5, b=0.75 are standard BM25 parameters
	okapi, err := bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create BM25 index: %w", err)
	}
	return &searchIndex{okapi: okapi, docs: docs}, nil
}

// tokenize lower-cases text and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// SearchRanked returns entries ordered by BM25 relevance to query, at most
// limit of them (limit <= 0 means no cap). When the index is empty or nothing
// scores, it falls back to Search.
func (s *Store) SearchRanked(query string, limit int) []Entry {
	s.once.Do(s.load)

	results := s.rank(query)
	if len(results) == 0 {
		results = s.Search(query)
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (s *Store) rank(query string) []Entry {
	if s.index == nil {
		return nil
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	scores, err := s.index.okapi.GetScores(tokens)
	if err != nil {
		s.log.WithError(err).Warn("BM25 scoring failed")
		return nil
	}

	type scoredDoc struct {
		entry int
		score float64
	}
	var hits []scoredDoc
	for docID, score := range scores {
		if score > 0 && docID < len(s.index.docs) {
			hits = append(hits, scoredDoc{entry: s.index.docs[docID], score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]Entry, len(hits))
	for i, h := range hits {
		out[i] = s.entries[h.entry]
	}
	return out
}
