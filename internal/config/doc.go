// Package config собирает процесс-wide конфигурацию, читаемую один раз
// при старте из переменных окружения.
//
// Бинарники relaygate-api, relaygate-send и relaygate-reconciler используют
// один и тот же набор значений по умолчанию из этого пакета, чтобы не
// расходиться в поведении при отсутствии переменных окружения;
// relaygate-cli этот пакет не использует.
package config
