package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ── JSON 列通用编解码 ──

// scanJSON 将 PostgreSQL JSONB（或 SQLite TEXT）列解析到 dst。
func scanJSON(src interface{}, dst interface{}, typeName string) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("%s.Scan: unsupported type %T", typeName, src)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%s.Scan: %w", typeName, err)
	}
	return nil
}

func valueJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ── 附件 ──

// Attachment 已持久化的附件引用
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Attachments 对应 requests.files JSONB 数组
type Attachments []Attachment

func (a *Attachments) Scan(src interface{}) error {
	if src == nil {
		*a = Attachments{}
		return nil
	}
	out := Attachments{}
	if err := scanJSON(src, &out, "Attachments"); err != nil {
		return err
	}
	*a = out
	return nil
}

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return valueJSON([]Attachment(a))
}

// ── 违规项 ──

// Irregularity 申请中的一条违规项
type Irregularity struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Authorized  bool   `json:"authorized"`
}

// Irregularities 对应 requests.irregularities JSONB 数组
type Irregularities []Irregularity

func (r *Irregularities) Scan(src interface{}) error {
	if src == nil {
		*r = Irregularities{}
		return nil
	}
	out := Irregularities{}
	if err := scanJSON(src, &out, "Irregularities"); err != nil {
		return err
	}
	*r = out
	return nil
}

func (r Irregularities) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return valueJSON([]Irregularity(r))
}

// ── 任意键值 ──

// JSONMap 对应 JSONB 对象列（协调员资料等）
type JSONMap map[string]interface{}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	out := JSONMap{}
	if err := scanJSON(src, &out, "JSONMap"); err != nil {
		return err
	}
	*m = out
	return nil
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return valueJSON(map[string]interface{}(m))
}

// BaseModel 时间戳字段，由 GORM 在写入时填充
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// newID 主键为空时生成 UUID（SQLite 测试库没有 gen_random_uuid）
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
