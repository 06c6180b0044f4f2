package inventory

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	skuPattern = regexp.MustCompile(`^[a-zA-Z0-9_./-]+$`)
	eanPattern = regexp.MustCompile(`^[0-9]{8,14}$`)
)

var validColors = map[ColorKey]bool{
	ColorRed: true, ColorOrange: true, ColorYellow: true, ColorGreen: true, ColorBlue: true,
	ColorPurple: true, ColorPink: true, ColorCyan: true, ColorGray: true, ColorBrown: true,
}

var finishAliases = map[string]FinishType{
	"poler":   FinishPoler,
	"mat":     FinishMat,
	"carving": FinishCarving,
	"lappato": FinishLappato,
	"inne":    FinishOther,
	"other":   FinishOther,
}

// MaxSKULength matches the sku column width in the products table
const MaxSKULength = 100

// ValidateSKU SKUの形式をバリデーション
func ValidateSKU(sku string) error {
	if strings.TrimSpace(sku) == "" {
		return NewValidationError("sku", "SKUが空です", sku, nil)
	}
	if len(sku) > MaxSKULength {
		return NewValidationError("sku", "SKUが長すぎます", sku, nil)
	}
	if !skuPattern.MatchString(sku) {
		return NewValidationError("sku", "SKUに無効な文字が含まれています", sku, nil)
	}
	return nil
}

// ValidateEAN EANコードの形式をバリデーション
func ValidateEAN(ean string) error {
	if ean == "" {
		return nil // EANは任意
	}
	if !eanPattern.MatchString(ean) {
		return NewValidationError("ean", "EANは8〜14桁の数字である必要があります", ean, nil)
	}
	return nil
}

// ValidateQuantity バッチ数量をバリデーション（0より大きい値）
func ValidateQuantity(quantity float64) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || roundQuantity(quantity) < QuantityEpsilon {
		return NewValidationError("quantity", "数量は正の値である必要があります",
			strconv.FormatFloat(quantity, 'f', -1, 64), ErrInvalidQuantity)
	}
	return nil
}

// ValidateColor タグカラーをバリデーション（空はクリア）
func ValidateColor(color ColorKey) error {
	if color == "" || validColors[color] {
		return nil
	}
	return NewValidationError("color", "無効なカラーです", string(color), nil)
}

// ParseFinish 仕上げ区分を解析（未知の値は「Inne」）
func ParseFinish(raw string) FinishType {
	if f, ok := finishAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return f
	}
	return FinishOther
}

// ValidateProduct 商品全体をバリデーション
func ValidateProduct(p *Product) error {
	if p == nil {
		return NewValidationError("product", "商品が指定されていません", "nil", nil)
	}
	if err := ValidateSKU(p.SKU); err != nil {
		return err
	}
	if err := ValidateEAN(p.EAN); err != nil {
		return err
	}
	if p.LeadTimeDays < 0 {
		return NewValidationError("lead_time_days", "リードタイムは0以上である必要があります", fmt.Sprintf("%d", p.LeadTimeDays), nil)
	}
	if p.SafetyStockDays < 0 {
		return NewValidationError("safety_stock_days", "安全在庫日数は0以上である必要があります", fmt.Sprintf("%d", p.SafetyStockDays), nil)
	}
	if p.Sales6Months < 0 || math.IsNaN(p.Sales6Months) {
		return NewValidationError("sales_6_months", "販売量は0以上である必要があります", fmt.Sprintf("%.2f", p.Sales6Months), nil)
	}
	if p.Sales1Month != nil && (*p.Sales1Month < 0 || math.IsNaN(*p.Sales1Month)) {
		return NewValidationError("sales_1_month", "販売量は0以上である必要があります", fmt.Sprintf("%.2f", *p.Sales1Month), nil)
	}
	if err := ValidateColor(p.Color); err != nil {
		return err
	}
	return nil
}
