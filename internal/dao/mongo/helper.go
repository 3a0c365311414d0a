package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Olamide1/loopline/pkg/errorx"
)

// wrapMongoErrorf 与 gorm 实现保持一致的错误码
//   - ErrNoDocuments -> CodeNotFound
//   - 唯一索引冲突 -> CodeDuplicate
//   - 其他错误 -> CodeDBError
func wrapMongoErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	code := errorx.CodeDBError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		code = errorx.CodeNotFound
	case mongo.IsDuplicateKeyError(err):
		code = errorx.CodeDuplicate
	}
	return errorx.Wrapf(err, code, format, args...)
}
