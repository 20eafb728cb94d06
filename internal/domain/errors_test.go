package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorEntryString(t *testing.T) {
	tests := []struct {
		name  string
		entry ErrorEntry
		want  string
	}{
		{
			name:  "message only",
			entry: ErrorEntry{Kind: ErrorKindValidation, Message: "no requirements to process"},
			want:  "[validation] no requirements to process",
		},
		{
			name: "with requirement",
			entry: ErrorEntry{
				Kind:        ErrorKindStateInvariant,
				Requirement: "Commercial Invoice",
				Message:     "recorded twice",
			},
			want: "[state_invariant] recorded twice (requirement=Commercial Invoice)",
		},
		{
			name: "with requirement and document",
			entry: ErrorEntry{
				Kind:        ErrorKindClassifier,
				Requirement: "Commercial Invoice",
				Document:    "invoice.pdf",
				Message:     "timeout",
			},
			want: "[classifier] timeout (requirement=Commercial Invoice, document=invoice.pdf)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.String())
		})
	}
}

func TestClassifierEntry(t *testing.T) {
	entry := ClassifierEntry("Commercial Invoice", "invoice.pdf", errors.New("rate limited"))

	assert.Equal(t, ErrorKindClassifier, entry.Kind)
	assert.Equal(t, "Commercial Invoice", entry.Requirement)
	assert.Equal(t, "invoice.pdf", entry.Document)
	assert.Equal(t, "rate limited", entry.Message)
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError("documents")
	assert.False(t, verr.HasErrors())

	verr.AddError("missing name")
	assert.True(t, verr.HasErrors())
	assert.Equal(t, "validation error for documents: missing name", verr.Error())

	verr.AddError("missing summary")
	assert.Contains(t, verr.Error(), "validation errors for documents")
}

func TestValidateDocuments(t *testing.T) {
	tests := []struct {
		name string
		docs []Document
		want []string
	}{
		{
			name: "valid documents",
			docs: []Document{
				{Name: "invoice.pdf", Summary: "invoice"},
				{Name: "bol.pdf", FullText: "bill of lading text"},
			},
		},
		{
			name: "empty list is valid",
		},
		{
			name: "missing name",
			docs: []Document{{Summary: "something"}},
			want: []string{"document 1: missing name"},
		},
		{
			name: "no content",
			docs: []Document{{Name: "empty.pdf"}},
			want: []string{"document 1 (empty.pdf): no summary or full text"},
		},
		{
			name: "multiple issues accumulate",
			docs: []Document{
				{},
				{Name: "ok.pdf", Summary: "fine"},
			},
			want: []string{
				"document 1: missing name",
				"document 1 (): no summary or full text",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateDocuments(tt.docs)
			if len(tt.want) == 0 {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, tt.want, verr.Errors)
		})
	}
}
