package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maces/backend/internal/model"
)

const bodyColumn = "body"

// DocumentStore JSON 文档存储接口
// 过滤条件的 key 为点号分隔的字段路径（如 player.id），多个条件之间为 AND
type DocumentStore interface {
	Insert(ctx context.Context, table string, doc interface{}) (string, error)
	FindByFields(ctx context.Context, table string, filters map[string]interface{}) ([]model.Document, error)
	Update(ctx context.Context, table, id string, doc interface{}) (bool, error)
	// UpdateIf 仅当存储中的文档仍满足 expect 时才替换（条件写）
	UpdateIf(ctx context.Context, table, id string, doc interface{}, expect map[string]interface{}) (bool, error)
}

// EnsureDocumentTable 确保文档表及其索引存在（幂等）
// 内置迁移只覆盖默认表 attendance_records，配置了其他表名时由此建表
func EnsureDocumentTable(ctx context.Context, db *gorm.DB, table string) error {
	stmts := []struct {
		sql  string
		vars []interface{}
	}{
		{`CREATE TABLE IF NOT EXISTS ? (
			document_id UUID PRIMARY KEY,
			body        JSONB       NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, []interface{}{clause.Table{Name: table}}},
		{`CREATE INDEX IF NOT EXISTS ? ON ? USING GIN (body)`,
			[]interface{}{clause.Table{Name: "idx_" + table + "_body"}, clause.Table{Name: table}}},
		{`CREATE INDEX IF NOT EXISTS ? ON ? ((body ->> 'date'), (body ->> 'host_park_id'))`,
			[]interface{}{clause.Table{Name: "idx_" + table + "_park_day"}, clause.Table{Name: table}}},
	}

	for _, st := range stmts {
		if err := db.WithContext(ctx).Exec(st.sql, st.vars...).Error; err != nil {
			return fmt.Errorf("创建文档表 %s 失败: %w", table, err)
		}
	}
	return nil
}

// documentStore DocumentStore 的 GORM + JSONB 实现
type documentStore struct {
	db *gorm.DB
}

// NewDocumentStore 创建 DocumentStore 实例
func NewDocumentStore(db *gorm.DB) DocumentStore {
	return &documentStore{db: db}
}

func (s *documentStore) Insert(ctx context.Context, table string, doc interface{}) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("序列化文档失败: %w", err)
	}

	row := model.Document{
		DocumentID: uuid.New().String(),
		Body:       datatypes.JSON(body),
	}
	if err := s.db.WithContext(ctx).Table(table).Create(&row).Error; err != nil {
		return "", err
	}
	return row.DocumentID, nil
}

func (s *documentStore) FindByFields(ctx context.Context, table string, filters map[string]interface{}) ([]model.Document, error) {
	var docs []model.Document
	err := withFieldFilters(s.db.WithContext(ctx).Table(table), filters).
		Order("created_at ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *documentStore) Update(ctx context.Context, table, id string, doc interface{}) (bool, error) {
	return s.UpdateIf(ctx, table, id, doc, nil)
}

func (s *documentStore) UpdateIf(ctx context.Context, table, id string, doc interface{}, expect map[string]interface{}) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("序列化文档失败: %w", err)
	}

	q := s.db.WithContext(ctx).Table(table).Where("document_id = ?", id)
	result := withFieldFilters(q, expect).
		Updates(map[string]interface{}{
			bodyColumn:   datatypes.JSON(body),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// withFieldFilters 将字段路径条件追加为 JSON 等值查询，按路径排序保证 SQL 稳定
// 取值按文本比较（json_extract_path_text），数字与布尔先格式化为字符串
// false 例外：缺失的 key 与 JSON null 都视为 false，条件改写为"不包含 true"
func withFieldFilters(q *gorm.DB, filters map[string]interface{}) *gorm.DB {
	paths := make([]string, 0, len(filters))
	for p := range filters {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		keys := strings.Split(p, ".")
		if b, ok := filters[p].(bool); ok && !b {
			q = q.Where("NOT ("+bodyColumn+" @> ?::jsonb)", nestedJSON(keys, true))
			continue
		}
		q = q.Where(datatypes.JSONQuery(bodyColumn).Equals(fmt.Sprint(filters[p]), keys...))
	}
	return q
}

// nestedJSON 按路径构造单值 JSON 文档，如 [player active] → {"player":{"active":true}}
func nestedJSON(keys []string, value interface{}) string {
	for i := len(keys) - 1; i >= 0; i-- {
		value = map[string]interface{}{keys[i]: value}
	}
	b, _ := json.Marshal(value)
	return string(b)
}
