package model

import "errors"

// Виды ошибок ядра. Конкретные ошибки оборачивают их через fmt.Errorf("%w: ...").
var (
	// ErrNotFound возвращается, если сущность не существует или не принадлежит пользователю.
	ErrNotFound = errors.New("not found")
	// ErrValidation возвращается при некорректных входных данных.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration означает ошибку связывания компонентов; в корректной сборке не возникает.
	ErrConfiguration = errors.New("configuration error")
	// ErrPaymentProvider возвращается, если внешний провайдер оплаты не выполнил запрос.
	ErrPaymentProvider = errors.New("payment provider error")
	// ErrNoInventory возвращается при попытке арендовать автомобиль без свободных единиц.
	ErrNoInventory = errors.New("no inventory available")
)
