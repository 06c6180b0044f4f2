package inventory

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// CreateProduct adds a new product
// 新しい商品を追加
func (m *Manager) CreateProduct(ctx context.Context, product *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ValidateProduct(product); err != nil {
		return err
	}
	if _, exists := m.products[product.SKU]; exists {
		return ErrDuplicateProduct
	}

	p := product.Clone()
	p.Finish = ParseFinish(string(p.Finish))

	err := m.mutate(ctx, "create_product", true, func() error {
		m.products[p.SKU] = &p
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("商品作成完了",
		zap.String("sku", p.SKU),
		zap.String("name", p.Name),
	)

	return nil
}

// UpdateProduct replaces a product's attributes; color and note keep their own operations
// 商品の属性を更新（カラーとメモは専用操作で変更）
func (m *Manager) UpdateProduct(ctx context.Context, product *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ValidateProduct(product); err != nil {
		return err
	}
	existing, ok := m.products[product.SKU]
	if !ok {
		return ErrProductNotFound
	}

	p := product.Clone()
	p.Finish = ParseFinish(string(p.Finish))
	p.Color = existing.Color
	p.Note = existing.Note

	err := m.mutate(ctx, "update_product", true, func() error {
		m.products[p.SKU] = &p
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("商品更新完了", zap.String("sku", p.SKU))
	return nil
}

// DeleteProduct removes a product together with all of its batches
// 商品とそのすべてのバッチを削除
func (m *Manager) DeleteProduct(ctx context.Context, sku string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[sku]; !ok {
		return ErrProductNotFound
	}

	removed := 0
	err := m.mutate(ctx, "delete_product", true, func() error {
		delete(m.products, sku)
		for id, b := range m.batches {
			if b.ProductSKU == sku {
				delete(m.batches, id)
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("商品削除完了",
		zap.String("sku", sku),
		zap.Int("removed_batches", removed),
	)

	return nil
}

// SetProductColor changes a product's tag color
// 商品のタグカラーを変更
func (m *Manager) SetProductColor(ctx context.Context, sku string, color ColorKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ValidateColor(color); err != nil {
		return err
	}
	p, ok := m.products[sku]
	if !ok {
		return ErrProductNotFound
	}

	return m.mutate(ctx, "set_product_color", true, func() error {
		p.Color = color
		return nil
	})
}

// SetProductNote changes the dashboard note; not recorded in history
// ダッシュボードメモを変更（履歴には保存しない）
func (m *Manager) SetProductNote(ctx context.Context, sku, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[sku]
	if !ok {
		return ErrProductNotFound
	}

	return m.mutate(ctx, "set_product_note", false, func() error {
		p.Note = note
		return nil
	})
}

// GetProduct returns a copy of a product
// 商品のコピーを取得
func (m *Manager) GetProduct(ctx context.Context, sku string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[sku]
	if !ok {
		return nil, ErrProductNotFound
	}
	out := p.Clone()
	return &out, nil
}

// ListProducts returns copies of all products ordered by SKU
// すべての商品のコピーを取得
func (m *Manager) ListProducts(ctx context.Context) []Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.productList()
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// findProduct looks a product up by SKU first, then by EAN
func (m *Manager) findProduct(skuOrEAN string) *Product {
	key := strings.TrimSpace(skuOrEAN)
	if key == "" {
		return nil
	}
	if p, ok := m.products[key]; ok {
		return p
	}
	for _, p := range m.products {
		if p.EAN != "" && p.EAN == key {
			return p
		}
	}
	return nil
}
