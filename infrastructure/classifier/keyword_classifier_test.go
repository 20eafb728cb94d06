package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docketlabs/go-docket/internal/domain"
)

func TestNewKeywordValidation(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		_, err := NewKeyword("", KeywordConfig{})
		assert.Error(t, err)
	})

	t.Run("defaults applied", func(t *testing.T) {
		clf, err := NewKeyword("keyword", KeywordConfig{})
		require.NoError(t, err)
		assert.Equal(t, DefaultMatchThreshold, clf.config.MatchThreshold)
		assert.Equal(t, DefaultSimilarityThreshold, clf.config.SimilarityThreshold)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		_, err := NewKeyword("keyword", KeywordConfig{MatchThreshold: 1.5})
		assert.Error(t, err)
	})
}

func TestKeywordClassify(t *testing.T) {
	clf, err := NewKeyword("keyword", KeywordConfig{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     domain.Requirement
		doc     domain.Document
		matches bool
	}{
		{
			name: "all keywords present",
			req:  domain.Requirement{Name: "Commercial Invoice"},
			doc: domain.Document{
				Name:    "invoice.pdf",
				Summary: "Commercial invoice for the shipment",
			},
			matches: true,
		},
		{
			name: "no keywords present",
			req:  domain.Requirement{Name: "Insurance Certificate"},
			doc: domain.Document{
				Name:    "bol.pdf",
				Summary: "Ocean bill of lading",
			},
			matches: false,
		},
		{
			name: "case folding",
			req:  domain.Requirement{Name: "PACKING LIST"},
			doc: domain.Document{
				Name:     "packing.pdf",
				FullText: "packing list for container MSCU1234567",
			},
			matches: true,
		},
		{
			name: "minor misspelling tolerated",
			req:  domain.Requirement{Name: "Certificate Origin"},
			doc: domain.Document{
				Name:    "coo.pdf",
				Summary: "Certifcate of orgin issued by chamber of commerce",
			},
			matches: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judgment, err := clf.Classify(context.Background(), tt.req, tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.matches, judgment.Matches, "rationale: %s", judgment.Rationale)
		})
	}
}

func TestKeywordClassifyDeterministic(t *testing.T) {
	clf, err := NewKeyword("keyword", KeywordConfig{})
	require.NoError(t, err)

	req := domain.Requirement{
		Name:               "Commercial Invoice",
		ValidationCriteria: []string{"Must be signed", "Must show invoice number"},
	}
	doc := domain.Document{
		Name:     "invoice.pdf",
		Summary:  "Signed commercial invoice",
		FullText: "Invoice number 12345, signed by the exporter",
	}

	first, err := clf.Classify(context.Background(), req, doc)
	require.NoError(t, err)
	second, err := clf.Classify(context.Background(), req, doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestKeywordClassifyNoUsableKeywords(t *testing.T) {
	clf, err := NewKeyword("keyword", KeywordConfig{})
	require.NoError(t, err)

	judgment, err := clf.Classify(context.Background(), domain.Requirement{}, domain.Document{Name: "doc"})
	require.NoError(t, err)

	assert.False(t, judgment.Matches)
	assert.Zero(t, judgment.Confidence)
}

func TestKeywordCriteriaTokensFiltered(t *testing.T) {
	clf, err := NewKeyword("keyword", KeywordConfig{})
	require.NoError(t, err)

	// Short connective words in criteria must not become keywords.
	req := domain.Requirement{
		Name:               "Inspection",
		ValidationCriteria: []string{"to be of the set"},
	}
	keywords := clf.requirementKeywords(req)
	assert.Equal(t, []string{"inspection"}, keywords)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("invoice", "invoice"))
	assert.Equal(t, 1.0, similarity("", ""))
	assert.InDelta(t, 0.875, similarity("invoice", "invoince"), 0.01)
	assert.Less(t, similarity("invoice", "certificate"), 0.5)
}
