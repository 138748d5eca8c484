// Package export 生成可下载的文档：CSV 表格与 PDF 回执。
package export

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Field 一列：列名与取值
type Field struct {
	Key   string
	Value any
}

// Record 一行，列顺序即输出顺序
type Record []Field

// CSV 生成 CSV 文本。
// 表头取自第一条记录的列名；所有值（含表头）都以双引号包裹，内部引号加倍；
// 行之间以 \n 分隔，末尾不带换行。空输入返回空串。
func CSV(records []Record) string {
	if len(records) == 0 {
		return ""
	}

	headers := make([]string, len(records[0]))
	for i, f := range records[0] {
		headers[i] = f.Key
	}

	rows := make([]string, 0, len(records)+1)
	rows = append(rows, joinQuoted(headers))

	for _, rec := range records {
		byKey := make(map[string]any, len(rec))
		for _, f := range rec {
			byKey[f.Key] = f.Value
		}
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = CellString(byKey[h])
		}
		rows = append(rows, joinQuoted(cells))
	}
	return strings.Join(rows, "\n")
}

func joinQuoted(cells []string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// CellString 单元格文本：
// 切片以 "; " 连接（对象元素 JSON 编码），对象 JSON 编码，nil 为空串。
// XLSX 导出复用同一规则。
func CellString(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return CellString(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return ""
		}
		if b, ok := v.([]byte); ok {
			return string(b)
		}
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = elemString(rv.Index(i).Interface())
		}
		return strings.Join(parts, "; ")
	case reflect.Map, reflect.Struct:
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
		return jsonString(v)
	default:
		return fmt.Sprint(v)
	}
}

func elemString(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ""
	}
	switch reflect.Indirect(rv).Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return jsonString(v)
	}
	return fmt.Sprint(v)
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
