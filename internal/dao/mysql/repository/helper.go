// Package repository 基于 gorm 的 Repository 实现
package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Olamide1/loopline/pkg/errorx"
)

// ==================== 错误包装辅助函数 ====================

// wrapDBErrorf 包装数据库错误，按错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - ErrDuplicatedKey -> CodeDuplicate（需要 gorm.Config.TranslateError）
//   - 其他错误 -> CodeDBError
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errorx.Wrapf(err, codeOf(err), format, args...)
}

func codeOf(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errorx.CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errorx.CodeDuplicate
	default:
		return errorx.CodeDBError
	}
}
