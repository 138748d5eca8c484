package service

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	accessCodeLength   = 6
)

// NewAccessCode 生成 {6 位大写字母数字}/{学期}，不做碰撞检查
func NewAccessCode(semester string) (string, error) {
	code, err := gonanoid.Generate(accessCodeAlphabet, accessCodeLength)
	if err != nil {
		return "", err
	}
	return code + "/" + semester, nil
}
