package models

// MigrationReport — итог миграции гостевого журнала.
// Дубликаты не являются ошибкой: клиент вправе очистить журнал,
// когда каждая запись попала в accepted или duplicates.
type MigrationReport struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}
