package domain

import "errors"

var (
	ErrAnimationNotFound = errors.New("animation not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrGroupNotFound     = errors.New("user group not found")
	ErrDuplicateCommand  = errors.New("duplicate animation command")
	ErrDuplicateCategory = errors.New("duplicate category name")
	ErrCategoryNotEmpty  = errors.New("category is not empty")
	ErrInvalidCommand    = errors.New("invalid animation command")
	ErrNoDocument        = errors.New("document not found")
)
