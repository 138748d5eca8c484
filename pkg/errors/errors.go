package errors

import (
	"errors"
	"fmt"
)

// ErrTransport 远程存储（数据库 / 附件存储 / 邮件通道）调用失败
var ErrTransport = errors.New("远程服务调用失败")

// OpError 记录失败的操作名与底层错误
// errors.Is(err, ErrTransport) 为真，同时可通过 errors.Unwrap 取得原始错误
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Is 使 OpError 同时匹配 ErrTransport
func (e *OpError) Is(target error) bool { return target == ErrTransport }

// Transport 将远程调用错误包装为传输类错误；err 为 nil 时返回 nil
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// IsTransport 判断是否为传输类错误
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
