package model

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest задаёт номер страницы (с нуля) и её размер.
type PageRequest struct {
	Number int
	Size   int
}

// Normalize подставляет значения по умолчанию и ограничивает размер страницы.
func (p PageRequest) Normalize() PageRequest {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Offset возвращает смещение первой записи страницы.
func (p PageRequest) Offset() int {
	return p.Number * p.Size
}

// Page содержит одну страницу результатов и общее число записей.
type Page[T any] struct {
	Items  []T
	Number int
	Size   int
	Total  int64
}
