package references_test

import (
	"testing"

	"thinktank-backend/internal/references"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReferences(t *testing.T) {
	resolver := references.NewResolver()

	codes := resolver.ExtractReferences(
		"See [4:6 source] and [source: kb-002], plus [network-policies.pdf] and again [4:6 source].")

	assert.Equal(t, []string{"4:6", "kb-002", "network-policies.pdf"}, codes)
}

func TestExtractReferencesNone(t *testing.T) {
	resolver := references.NewResolver()
	assert.Empty(t, resolver.ExtractReferences("plain answer with no citations"))
}

func TestResolveRegistryId(t *testing.T) {
	resolver := references.NewResolver()

	doc := resolver.Resolve("kb-003")

	assert.Equal(t, "Network Security Policies", doc.Title)
	assert.Equal(t, 1.0, doc.Confidence)
}

func TestResolveVectorReference(t *testing.T) {
	resolver := references.NewResolver()

	doc := resolver.Resolve("4:6")

	assert.Equal(t, "kb-004", doc.Id)
	assert.Equal(t, 0.9, doc.Confidence)
}

func TestResolveFilenameMatch(t *testing.T) {
	resolver := references.NewResolver()

	doc := resolver.Resolve("o365-troubleshooting.pdf")

	assert.Equal(t, "kb-004", doc.Id)
	assert.Equal(t, 0.7, doc.Confidence)
}

func TestResolveUnknownCodeSynthesizesReference(t *testing.T) {
	resolver := references.NewResolver()

	doc := resolver.Resolve("backup-rotation-schedule.txt")

	assert.Equal(t, "Backup Rotation Schedule", doc.Title)
	assert.Equal(t, "/docs/backup-rotation-schedule.txt", doc.Url)
	assert.Equal(t, 0.3, doc.Confidence)
}

func TestProcessRewritesVectorMarkers(t *testing.T) {
	resolver := references.NewResolver()

	processed := resolver.Process("Follow the runbook [2:4 source] before escalating.")

	require.Len(t, processed.References, 1)
	assert.Equal(t, "kb-002", processed.References[0].Id)
	assert.Equal(t, "Follow the runbook [Incident Response Procedures] before escalating.",
		processed.EnhancedResponse)
	assert.Equal(t, "Follow the runbook [2:4 source] before escalating.",
		processed.OriginalResponse)
}

func TestRegisterMakesDocumentResolvable(t *testing.T) {
	resolver := references.NewResolver()
	resolver.Register(references.DocumentReference{
		Id:    "kb-100",
		Title: "VPN Setup Guide",
		Url:   "/docs/vpn-setup.pdf",
	})

	doc := resolver.Resolve("kb-100")

	assert.Equal(t, "VPN Setup Guide", doc.Title)
	assert.Equal(t, 1.0, doc.Confidence)
}
