package catalog

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// Seed is the YAML shape of a semantic-layer bootstrap file.
type Seed struct {
	Entities []struct {
		Name        string   `yaml:"name"`
		Table       string   `yaml:"table"`
		PrimaryKey  string   `yaml:"primary_key"`
		Description string   `yaml:"description"`
		Synonyms    []string `yaml:"synonyms"`
	} `yaml:"entities"`
	Metrics []struct {
		Name        string   `yaml:"name"`
		Expression  string   `yaml:"expression"`
		Table       string   `yaml:"table"`
		Filter      string   `yaml:"filter"`
		Description string   `yaml:"description"`
		Synonyms    []string `yaml:"synonyms"`
	} `yaml:"metrics"`
	ValueAliases []struct {
		Alias        string   `yaml:"alias"`
		Column       string   `yaml:"column"`
		Table        string   `yaml:"table"`
		Values       []string `yaml:"values"`
		Description  string   `yaml:"description"`
		IsExpression bool     `yaml:"is_expression"`
	} `yaml:"value_aliases"`
}

// LoadSeedFile reads a YAML seed file and applies it to the semantic layer
// for one agent. Duplicate names in the file fail the load.
func LoadSeedFile(path string, agentID uuid.UUID, layer *SemanticLayer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	return ApplySeed(&seed, agentID, layer)
}

// ApplySeed loads a parsed seed into the semantic layer for one agent.
func ApplySeed(seed *Seed, agentID uuid.UUID, layer *SemanticLayer) error {
	for _, e := range seed.Entities {
		err := layer.CreateEntity(&models.SemanticEntity{
			AgentID:     agentID,
			Name:        e.Name,
			Table:       e.Table,
			PrimaryKey:  e.PrimaryKey,
			Description: e.Description,
			Synonyms:    e.Synonyms,
		})
		if err != nil {
			return fmt.Errorf("seed entity %q: %w", e.Name, err)
		}
	}
	for _, m := range seed.Metrics {
		err := layer.CreateMetric(&models.SemanticMetric{
			AgentID:     agentID,
			Name:        m.Name,
			Expression:  m.Expression,
			Table:       m.Table,
			Filter:      m.Filter,
			Description: m.Description,
			Synonyms:    m.Synonyms,
		})
		if err != nil {
			return fmt.Errorf("seed metric %q: %w", m.Name, err)
		}
	}
	for _, a := range seed.ValueAliases {
		layer.AddValueAlias(&models.ValueAlias{
			Alias:        a.Alias,
			Column:       a.Column,
			Table:        a.Table,
			Values:       a.Values,
			Description:  a.Description,
			IsExpression: a.IsExpression,
		})
	}
	return nil
}

// DefaultSeed returns the built-in demo semantic mappings for the sample
// e-commerce schema. Synonyms cover both English and Vietnamese phrasing.
func DefaultSeed() *Seed {
	var seed Seed
	if err := yaml.Unmarshal([]byte(defaultSeedYAML), &seed); err != nil {
		panic(fmt.Sprintf("invalid built-in seed: %v", err))
	}
	return &seed
}

const defaultSeedYAML = `
entities:
  - name: customer
    table: customers
    primary_key: id
    description: A registered buyer account.
    synonyms: [customers, client, clients, buyer, buyers, "khách hàng", "khach hang"]
  - name: product
    table: products
    primary_key: id
    description: An item offered for sale.
    synonyms: [products, item, items, goods, "sản phẩm", "san pham"]
  - name: category
    table: categories
    primary_key: id
    description: A product category.
    synonyms: [categories, "danh mục", "danh muc"]
  - name: order
    table: orders
    primary_key: id
    description: A placed purchase order.
    synonyms: [orders, purchase, purchases, "đơn hàng", "don hang"]
  - name: order item
    table: order_items
    primary_key: id
    description: One line of an order.
    synonyms: [order items, line item, line items, "chi tiết đơn hàng"]
metrics:
  - name: revenue
    expression: SUM(orders.total_amount)
    table: orders
    filter: orders.status != 'cancelled'
    description: Total value of non-cancelled orders.
    synonyms: [sales, turnover, "doanh thu"]
  - name: order count
    expression: COUNT(orders.id)
    table: orders
    description: Number of orders placed.
    synonyms: [orders placed, number of orders, "số đơn hàng"]
  - name: average order value
    expression: AVG(orders.total_amount)
    table: orders
    description: Mean order total.
    synonyms: [aov, avg order, "giá trị đơn trung bình"]
value_aliases:
  - alias: HN
    column: city
    table: customers
    values: ["Hanoi", "Ha Noi"]
    description: Hanoi city aliases.
  - alias: HCM
    column: city
    table: customers
    values: ["Ho Chi Minh City", "Ho Chi Minh", "Saigon"]
    description: Ho Chi Minh City aliases.
  - alias: pending
    column: status
    table: orders
    values: ["pending", "awaiting_payment"]
    description: Orders not yet confirmed.
`

// DefaultSchema returns the built-in sample e-commerce schema used by the
// demo bootstrap and tests.
func DefaultSchema(sourceID uuid.UUID) *models.SchemaMetadata {
	return &models.SchemaMetadata{
		SourceID: sourceID,
		Tables: []models.Table{
			{
				Name:        "customers",
				Description: "Registered buyer accounts.",
				Columns: []models.Column{
					{Name: "id", DataType: "INTEGER", IsPrimary: true},
					{Name: "name", DataType: "TEXT"},
					{Name: "email", DataType: "TEXT"},
					{Name: "city", DataType: "TEXT"},
					{Name: "created_at", DataType: "TIMESTAMP"},
				},
				RequiredColumns: []string{"id", "name"},
				ExampleQueries: []models.ExampleQuery{
					{Question: "Show all customers from Hanoi", SQL: "SELECT * FROM customers WHERE city = 'Hanoi'"},
				},
			},
			{
				Name:        "categories",
				Description: "Product categories.",
				Columns: []models.Column{
					{Name: "id", DataType: "INTEGER", IsPrimary: true},
					{Name: "name", DataType: "TEXT"},
				},
			},
			{
				Name:        "products",
				Description: "Items offered for sale.",
				Columns: []models.Column{
					{Name: "id", DataType: "INTEGER", IsPrimary: true},
					{Name: "name", DataType: "TEXT"},
					{Name: "category_id", DataType: "INTEGER"},
					{Name: "price", DataType: "DECIMAL"},
					{Name: "stock", DataType: "INTEGER"},
				},
				JoinHints: []models.JoinHint{
					{Target: "categories", On: "products.category_id = categories.id"},
				},
			},
			{
				Name:        "orders",
				Description: "Placed purchase orders.",
				Columns: []models.Column{
					{Name: "id", DataType: "INTEGER", IsPrimary: true},
					{Name: "customer_id", DataType: "INTEGER"},
					{Name: "status", DataType: "TEXT"},
					{Name: "total_amount", DataType: "DECIMAL"},
					{Name: "created_at", DataType: "TIMESTAMP"},
				},
				RequiredColumns: []string{"id", "customer_id", "total_amount"},
				JoinHints: []models.JoinHint{
					{Target: "customers", On: "orders.customer_id = customers.id"},
				},
				ExampleQueries: []models.ExampleQuery{
					{Question: "Total revenue this month", SQL: "SELECT SUM(total_amount) FROM orders WHERE created_at >= date('now', 'start of month')"},
				},
			},
			{
				Name:        "order_items",
				Description: "Order line items.",
				Columns: []models.Column{
					{Name: "id", DataType: "INTEGER", IsPrimary: true},
					{Name: "order_id", DataType: "INTEGER"},
					{Name: "product_id", DataType: "INTEGER"},
					{Name: "quantity", DataType: "INTEGER"},
					{Name: "unit_price", DataType: "DECIMAL"},
				},
				JoinHints: []models.JoinHint{
					{Target: "orders", On: "order_items.order_id = orders.id"},
					{Target: "products", On: "order_items.product_id = products.id"},
				},
			},
		},
	}
}
