// Command admin 运维命令行：创建工作人员账号、执行数据库迁移。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(&commandLine{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
