// Package cli реализует команды для ручного взаимодействия с прокси через
// его внешний HTTP контракт.
//
// Структура:
//   - client.go — HTTP-клиент для /submit и /message
//   - output.go — форматирование вывода (таблица/JSON)
//   - submit.go — команда "submit"
//   - status.go — команда "status"
package cli
