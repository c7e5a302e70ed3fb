package facts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/domain/fact"
)

// Seed populates an empty index at startup. It first tries to recover known
// sample content already on the network (best-effort, tolerant of misses),
// and only writes the built-in sample corpus when discovery finds nothing.
// A non-empty index is left untouched.
func (s *Service) Seed(ctx context.Context, knownBlobIDs []string) error {
	if s.idx.Len() > 0 {
		return nil
	}

	recovered := s.discover(ctx, knownBlobIDs)
	if recovered > 0 {
		s.logger.Info("index seeded from existing remote content", zap.Int("facts", recovered))
		s.persist()
		return nil
	}

	for _, p := range sampleFacts() {
		if _, _, err := s.CreateFact(ctx, p); err != nil {
			return fmt.Errorf("seed fact %s: %w", p.ID, err)
		}
	}
	s.logger.Info("index seeded with sample corpus", zap.Int("facts", s.idx.Len()))
	return nil
}

// discover pulls known blob ids from the network and indexes whatever still
// resolves to a well-formed fact record.
func (s *Service) discover(ctx context.Context, blobIDs []string) int {
	recovered := 0
	for _, blobID := range blobIDs {
		if blobID == "" || !s.blobs.BlobExists(ctx, blobID) {
			continue
		}
		res, err := s.blobs.RetrieveBlob(ctx, blobID)
		if err != nil {
			s.logger.Warn("seed discovery skipped blob", zap.String("blob_id", blobID), zap.Error(err))
			continue
		}
		rec, err := parseBlobRecord(res.Data)
		if err != nil {
			s.logger.Warn("seed discovery skipped malformed blob", zap.String("blob_id", blobID), zap.Error(err))
			continue
		}
		f := hydrateFact(rec, blobID, contentHashOf(res.Data))
		s.idx.Put(indexRecord(&f))
		recovered++
	}
	return recovered
}

// sampleFacts is the fixed demo corpus written on first run.
func sampleFacts() []fact.Params {
	return []fact.Params{
		{
			ID:      "sample-btc-etf-inflows",
			Title:   "Spot Bitcoin ETFs recorded net inflows for six straight weeks",
			Summary: "Aggregated issuer disclosures show continuous net inflows into US spot Bitcoin ETFs over six consecutive weeks.",
			Sources: []string{
				"https://www.sec.gov/cgi-bin/browse-edgar",
				"https://farside.co.uk/btc/",
			},
			Author: "marketdesk",
			Tags: []fact.Tag{
				{Name: "bitcoin", Category: fact.CategoryTopic},
				{Name: "finance", Category: fact.CategoryTopic},
				{Name: "data-analysis", Category: fact.CategoryMethodology},
			},
			Importance: 0.7,
			Status:     fact.StatusVerified,
		},
		{
			ID:      "sample-eu-ai-act-timeline",
			Title:   "The EU AI Act's general-purpose model obligations apply from August 2025",
			Summary: "Regulation (EU) 2024/1689 staggers application dates; obligations for general-purpose AI models apply twelve months after entry into force.",
			Sources: []string{
				"https://eur-lex.europa.eu/eli/reg/2024/1689/oj",
			},
			Author: "policywatch",
			Tags: []fact.Tag{
				{Name: "regulation", Category: fact.CategoryType},
				{Name: "europe", Category: fact.CategoryRegion},
				{Name: "artificial-intelligence", Category: fact.CategoryTopic},
			},
			Importance: 0.6,
			Region:     "EU",
			Status:     fact.StatusVerified,
		},
		{
			ID:      "sample-coral-bleaching-2024",
			Title:   "2024 marked the fourth global coral bleaching event on record",
			Summary: "NOAA confirmed bleaching-level heat stress across all three ocean basins, the fourth global event since records began in 1998.",
			Sources: []string{
				"https://www.noaa.gov/news-release",
				"https://coralreefwatch.noaa.gov",
			},
			Author: "reefcheck",
			Tags: []fact.Tag{
				{Name: "climate", Category: fact.CategoryTopic},
				{Name: "oceans", Category: fact.CategoryTopic},
				{Name: "field-observation", Category: fact.CategoryMethodology},
			},
			Importance: 0.8,
			Status:     fact.StatusVerified,
		},
		{
			ID:      "sample-grid-storage-claim",
			Title:   "Claim: grid battery storage doubled globally in a single year",
			Summary: "Widely shared posts say installed grid-scale battery capacity doubled in one year; agency figures show roughly 90 percent growth, not a clean doubling.",
			Sources: []string{
				"https://www.iea.org/reports/batteries-and-secure-energy-transitions",
			},
			Author: "gridfacts",
			Tags: []fact.Tag{
				{Name: "energy", Category: fact.CategoryTopic},
				{Name: "statistics", Category: fact.CategoryMethodology},
			},
			Importance: 0.4,
			Status:     fact.StatusReview,
		},
		{
			ID:      "sample-viral-quake-photo",
			Title:   "Viral earthquake photo predates the reported event by nine years",
			Summary: "Reverse image search places the widely shared photo in a 2016 news archive; it does not depict the recent earthquake it is attached to.",
			Sources: []string{
				"https://tineye.com",
			},
			Author: "imageverify",
			Tags: []fact.Tag{
				{Name: "misinformation", Category: fact.CategoryType},
				{Name: "reverse-image-search", Category: fact.CategoryMethodology},
				{Name: "breaking", Category: fact.CategoryUrgency},
			},
			Importance: 0.9,
			Status:     fact.StatusFlagged,
		},
	}
}
