package inventory

import (
	"errors"
	"fmt"
)

// Common pipeline errors
// 共通のパイプラインエラー定義

var (
	// ErrInvalidQuantity is returned when a quantity is outside the allowed range
	// 数量が許容範囲外の場合のエラー
	ErrInvalidQuantity = errors.New("数量が無効です")

	// ErrUnknownEntity is returned when a batch id or product SKU doesn't exist
	// バッチIDまたはSKUが存在しない場合のエラー
	ErrUnknownEntity = errors.New("エンティティが見つかりません")

	// ErrBatchNotFound is returned when a batch doesn't exist
	// バッチが存在しない場合のエラー
	ErrBatchNotFound = fmt.Errorf("バッチ: %w", ErrUnknownEntity)

	// ErrProductNotFound is returned when a product doesn't exist
	// 商品が存在しない場合のエラー
	ErrProductNotFound = fmt.Errorf("商品: %w", ErrUnknownEntity)

	// ErrDuplicateProduct is returned when creating a product with a used SKU
	// 既に使用されているSKUで商品を作成しようとした場合のエラー
	ErrDuplicateProduct = errors.New("商品は既に存在します")

	// ErrInvalidWarehouse is returned for a warehouse outside the configured set
	// 設定外の倉庫名が指定された場合のエラー
	ErrInvalidWarehouse = errors.New("無効な倉庫名です")

	// ErrInvalidStatus is returned for an unknown batch status
	// 未知のバッチステータスの場合のエラー
	ErrInvalidStatus = errors.New("無効なステータスです")

	// ErrInvalidTransition is returned when an operation doesn't apply to the batch's status
	// バッチのステータスに対して操作が適用できない場合のエラー
	ErrInvalidTransition = errors.New("無効なステータス遷移です")
)

// ValidationError represents a validation error with details
// 詳細付きバリデーションエラーを表現
type ValidationError struct {
	Field   string `json:"field"`   // エラーフィールド
	Message string `json:"message"` // エラーメッセージ
	Value   string `json:"value"`   // 無効な値
	cause   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("バリデーションエラー [%s]: %s (値: %s)", e.Field, e.Message, e.Value)
}

func (e ValidationError) Unwrap() error {
	return e.cause
}

// BusinessRuleError represents a business rule violation
// ビジネスルール違反を表現
type BusinessRuleError struct {
	Rule    string `json:"rule"`    // ルール名
	Message string `json:"message"` // エラーメッセージ
	Context string `json:"context"` // コンテキスト情報
	cause   error
}

func (e BusinessRuleError) Error() string {
	return fmt.Sprintf("ビジネスルール違反 [%s]: %s (コンテキスト: %s)", e.Rule, e.Message, e.Context)
}

func (e BusinessRuleError) Unwrap() error {
	return e.cause
}

// StorageError represents a storage layer error
// ストレージ層のエラーを表現
type StorageError struct {
	Operation string `json:"operation"` // 操作名
	Message   string `json:"message"`   // エラーメッセージ
	Cause     error  `json:"cause"`     // 原因エラー
}

func (e StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ストレージエラー [%s]: %s (原因: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("ストレージエラー [%s]: %s", e.Operation, e.Message)
}

func (e StorageError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error wrapping a sentinel
// センチネルエラーをラップした新しいバリデーションエラーを作成
func NewValidationError(field, message, value string, cause error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		cause:   cause,
	}
}

// NewBusinessRuleError creates a new business rule error
// 新しいビジネスルールエラーを作成
func NewBusinessRuleError(rule, message, context string, cause error) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
		cause:   cause,
	}
}

// NewStorageError creates a new storage error
// 新しいストレージエラーを作成
func NewStorageError(operation, message string, cause error) *StorageError {
	return &StorageError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}
