package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Olamide1/loopline/pkg/errorx"
)

func TestWrapDBErrorf(t *testing.T) {
	assert.NoError(t, wrapDBErrorf(nil, "noop"))

	cases := []struct {
		err  error
		code int
	}{
		{gorm.ErrRecordNotFound, errorx.CodeNotFound},
		{fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), errorx.CodeDuplicate},
		{errors.New("connection reset"), errorx.CodeDBError},
	}
	for _, tc := range cases {
		err := wrapDBErrorf(tc.err, "op %d", 1)
		assert.Equal(t, tc.code, errorx.GetCode(err))
		assert.ErrorIs(t, err, tc.err)
		assert.Contains(t, err.Error(), "op 1")
	}
	assert.True(t, errorx.IsDuplicate(wrapDBErrorf(gorm.ErrDuplicatedKey, "dup")))
}
