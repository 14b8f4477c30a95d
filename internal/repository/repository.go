package repository

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFound 记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// 查找类方法 (Find*) 未命中时返回 nil, nil；按主键获取 (Get*) 未命中时返回 gorm.ErrRecordNotFound
