package examples

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rickey-cpu/AIQuery/pkg/llm"
)

type seedFile struct {
	Examples []struct {
		Question string   `yaml:"question"`
		SQL      string   `yaml:"sql"`
		Tables   []string `yaml:"tables"`
	} `yaml:"examples"`
}

// LoadSeedFile reads a YAML exemplar file, embeds each question through the
// completion client, and adds the entries to the index. Entries whose
// embedding fails are added without one and skipped at retrieval time,
// so seeding still succeeds against a provider with no embedding support.
func LoadSeedFile(ctx context.Context, path string, client llm.CompletionClient, idx *Index) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read example seed: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse example seed: %w", err)
	}

	for _, ex := range seed.Examples {
		entry := Entry{Question: ex.Question, SQL: ex.SQL, Tables: ex.Tables}
		if client != nil {
			if emb, err := client.CreateEmbedding(ctx, ex.Question); err == nil {
				entry.Embedding = emb
			}
		}
		idx.Add(entry)
	}
	return nil
}

// DefaultEntries returns the built-in exemplar corpus for the sample
// e-commerce schema, without embeddings.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Question: "Show all customers from Hanoi",
			SQL:      "SELECT * FROM customers WHERE city = 'Hanoi'",
			Tables:   []string{"customers"},
		},
		{
			Question: "How many orders were placed last month?",
			SQL:      "SELECT COUNT(*) FROM orders WHERE created_at >= date('now', 'start of month', '-1 month') AND created_at < date('now', 'start of month')",
			Tables:   []string{"orders"},
		},
		{
			Question: "Top 5 products by revenue",
			SQL:      "SELECT p.name, SUM(oi.quantity * oi.unit_price) AS revenue FROM order_items oi JOIN products p ON p.id = oi.product_id GROUP BY p.name ORDER BY revenue DESC LIMIT 5",
			Tables:   []string{"order_items", "products"},
		},
		{
			Question: "Total revenue by city",
			SQL:      "SELECT c.city, SUM(o.total_amount) AS revenue FROM orders o JOIN customers c ON c.id = o.customer_id GROUP BY c.city",
			Tables:   []string{"orders", "customers"},
		},
	}
}

// SeedDefaults embeds and indexes the built-in exemplar corpus.
func SeedDefaults(ctx context.Context, client llm.CompletionClient, idx *Index) {
	for _, entry := range DefaultEntries() {
		if client != nil {
			if emb, err := client.CreateEmbedding(ctx, entry.Question); err == nil {
				entry.Embedding = emb
			}
		}
		idx.Add(entry)
	}
}
