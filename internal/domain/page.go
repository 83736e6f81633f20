package domain

type PageRequest struct {
	Page int // 从 0 开始
	Size int
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page[T any] struct {
	Content    []T   `json:"content"`
	Number     int   `json:"number"` // 从 1 开始
	Size       int   `json:"size"`
	TotalPages int   `json:"totalPages"`
	TotalItems int64 `json:"totalItems"`
}

func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	return &Page[T]{
		Content:    content,
		Number:     req.Page + 1,
		Size:       req.Size,
		TotalPages: totalPages,
		TotalItems: total,
	}
}
