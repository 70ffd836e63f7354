package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarerhq/wayfarer/ai"
	"github.com/wayfarerhq/wayfarer/internal/markdown"
	"github.com/wayfarerhq/wayfarer/store"
)

// ingestConcurrency bounds parallel embedding calls; provider rate limits are
// per minute, so a small burst is safe.
const ingestConcurrency = 4

// seedFile is the on-disk dataset format: places with markdown summaries and
// the relations connecting them by UID (see scripts/seed/paris.json).
type seedFile struct {
	Places []struct {
		UID     string `json:"uid"`
		Name    string `json:"name"`
		City    string `json:"city"`
		Kind    string `json:"kind"`
		Summary string `json:"summary"`
	} `json:"places"`
	Relations []struct {
		Subject  string `json:"subject"`
		Relation string `json:"relation"`
		Object   string `json:"object"`
	} `json:"relations"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <seed.json>",
	Short: "Load a places and relations dataset, embed the summaries and store them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}

		cfg := ai.NewConfigFromProfile(instanceProfile)
		if !cfg.Enabled {
			return errors.New("ingest needs an embedding API key, set WAYFARER_LLM_API_KEY")
		}
		embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var seed seedFile
		if err := json.Unmarshal(raw, &seed); err != nil {
			return fmt.Errorf("parse seed file: %w", err)
		}

		ctx := cmd.Context()
		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(ingestConcurrency)
		for _, p := range seed.Places {
			p := p
			g.Go(func() error {
				summary := strings.TrimSpace(markdown.ToPlainText([]byte(p.Summary)))
				embedding, err := embedder.Embed(gctx, embeddingInput(p.Name, p.City, summary))
				if err != nil {
					return fmt.Errorf("embed %q: %w", p.UID, err)
				}
				if _, err := storeInstance.UpsertPlace(gctx, &store.UpsertPlace{
					UID:       p.UID,
					Name:      p.Name,
					City:      p.City,
					Kind:      p.Kind,
					Summary:   summary,
					Embedding: embedding,
				}); err != nil {
					return fmt.Errorf("upsert place %q: %w", p.UID, err)
				}
				slog.Debug("place ingested", "uid", p.UID)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, r := range seed.Relations {
			if _, err := storeInstance.UpsertRelation(ctx, &store.UpsertRelation{
				SubjectUID: r.Subject,
				Relation:   r.Relation,
				ObjectUID:  r.Object,
			}); err != nil {
				return fmt.Errorf("upsert relation %s %s %s: %w", r.Subject, r.Relation, r.Object, err)
			}
		}

		places, err := storeInstance.ListPlaces(ctx, &store.FindPlace{})
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d places and %d relations from %s (%d places in store)\n",
			len(seed.Places), len(seed.Relations), args[0], len(places))
		return nil
	},
}

// embeddingInput is the text a place is embedded under. Name and city stay in
// the text so bare destination queries still land near their places.
func embeddingInput(name, city, summary string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{name, city, summary} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ". ")
}
