package model

import (
	"testing"
)

func TestAttachments_RoundTrip(t *testing.T) {
	in := Attachments{{Name: "a.pdf", Path: "2024.1/x_a.pdf", URL: "/files/2024.1/x_a.pdf"}}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value 失败: %v", err)
	}

	var out Attachments
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("期望 %v，实际 %v", in, out)
	}
}

func TestAttachments_NilIsEmptyArray(t *testing.T) {
	v, _ := Attachments(nil).Value()
	if v != "[]" {
		t.Errorf("期望 []，实际 %v", v)
	}

	var out Attachments
	if err := out.Scan(nil); err != nil || out == nil || len(out) != 0 {
		t.Errorf("Scan(nil) 应得到空切片，实际 %v, err=%v", out, err)
	}
}

func TestJSONMap_ScanRejectsUnknownType(t *testing.T) {
	var m JSONMap
	if err := m.Scan(42); err == nil {
		t.Error("期望类型错误")
	}
}

func TestStatusColor(t *testing.T) {
	cases := map[string]string{
		StatusApproved:          "success",
		StatusRejected:          "danger",
		StatusPartiallyApproved: "info",
		StatusPending:           "default",
		"qualquer":              "default",
	}
	for status, want := range cases {
		if got := StatusColor(status); got != want {
			t.Errorf("StatusColor(%q) = %q，期望 %q", status, got, want)
		}
	}
}

func TestRequest_BeforeCreateDefaults(t *testing.T) {
	r := &Request{}
	_ = r.BeforeCreate(nil)
	if r.RequestID == "" {
		t.Error("应生成 ID")
	}
	if r.Status != StatusPending {
		t.Errorf("默认状态应为 %s，实际 %s", StatusPending, r.Status)
	}
}
