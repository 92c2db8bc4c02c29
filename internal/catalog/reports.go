package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type ClientStatistic struct {
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type CategoryChildrenCount struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ChildrenCount int    `json:"children_count"`
}

type TopProduct struct {
	ProductName    string `json:"product_name"`
	CategoryLevel1 string `json:"category_level1"`
	TotalSoldQty   int    `json:"total_sold_qty"`
}

// ClientStatistics: total belanja per customer, urut dari yang terbesar.
func (r *Repo) ClientStatistics(ctx context.Context) ([]ClientStatistic, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT cs.name, SUM(oi.unit_price * oi.qty) AS total_amount
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		JOIN customers cs ON o.customer_id = cs.id
		GROUP BY o.customer_id, cs.name
		ORDER BY total_amount DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClientStatistic
	for rows.Next() {
		var s ClientStatistic
		if err := rows.Scan(&s.Name, &s.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ChildrenCount melaporkan kategori level pertama (anak langsung dari root)
// beserta jumlah anak langsungnya, urut nama.
func (r *Repo) ChildrenCount(ctx context.Context) ([]CategoryChildrenCount, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.name, COUNT(child.id) AS children_count
		FROM categories c
		JOIN categories parent ON parent.id = c.parent_id
		LEFT JOIN categories child ON child.parent_id = c.id
		WHERE parent.parent_id IS NULL
		GROUP BY c.id, c.name
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryChildrenCount
	for rows.Next() {
		var c CategoryChildrenCount
		if err := rows.Scan(&c.ID, &c.Name, &c.ChildrenCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// productSales is one product's 30-day sales total plus its category.
type productSales struct {
	Name       string
	CategoryID int64
	SoldQty    int
}

type categoryNode struct {
	Name     string
	ParentID *int64
}

// TopProducts returns the top 5 products by quantity sold in the trailing 30
// days, each annotated with its root ancestor category. Sales are aggregated
// in SQL; the category ascent happens in Go so a bad parent chain (cycle,
// runaway depth) fails loudly instead of hanging a recursive query.
func (r *Repo) TopProducts(ctx context.Context) ([]TopProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.name, p.category_id, SUM(oi.qty) AS sold_qty
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.created_at >= now() - interval '30 days'
		GROUP BY p.id, p.name, p.category_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []productSales
	for rows.Next() {
		var s productSales
		if err := rows.Scan(&s.Name, &s.CategoryID, &s.SoldQty); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, nil
	}

	cats, err := r.loadCategories(ctx)
	if err != nil {
		return nil, err
	}
	return rankTopProducts(sales, cats, 5)
}

func (r *Repo) loadCategories(ctx context.Context) (map[int64]categoryNode, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, parent_id FROM categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := map[int64]categoryNode{}
	for rows.Next() {
		var id int64
		var n categoryNode
		if err := rows.Scan(&id, &n.Name, &n.ParentID); err != nil {
			return nil, err
		}
		cats[id] = n
	}
	return cats, rows.Err()
}

// rankTopProducts orders sales by quantity desc, product name asc, and cuts
// to limit rows, resolving each product's root category on the way.
func rankTopProducts(sales []productSales, cats map[int64]categoryNode, limit int) ([]TopProduct, error) {
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].SoldQty != sales[j].SoldQty {
			return sales[i].SoldQty > sales[j].SoldQty
		}
		return sales[i].Name < sales[j].Name
	})
	if len(sales) > limit {
		sales = sales[:limit]
	}

	out := make([]TopProduct, 0, len(sales))
	for _, s := range sales {
		root, err := rootCategory(cats, s.CategoryID)
		if err != nil {
			return nil, err
		}
		out = append(out, TopProduct{
			ProductName:    s.Name,
			CategoryLevel1: root,
			TotalSoldQty:   s.SoldQty,
		})
	}
	return out, nil
}

// rootCategory walks parent pointers up to the null-parent root. The schema
// does not structurally forbid a cycle, so the walk tracks visited ids and
// bails instead of spinning.
func rootCategory(cats map[int64]categoryNode, id int64) (string, error) {
	seen := map[int64]bool{}
	for {
		if seen[id] {
			return "", fmt.Errorf("category cycle at id %d", id)
		}
		seen[id] = true

		n, ok := cats[id]
		if !ok {
			return "", fmt.Errorf("category %d not found", id)
		}
		if n.ParentID == nil {
			return n.Name, nil
		}
		id = *n.ParentID
	}
}
