// Package fingerprint вычисляет детерминированный отпечаток записи анализа.
//
// Отпечаток строится по определяющим полям записи и используется миграцией
// гостевого журнала для схлопывания дубликатов: повторная отправка той же
// записи даёт тот же отпечаток независимо от клиентских идентификаторов.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Compute возвращает hex-представление SHA-256 по определяющим полям записи.
// CreatedAt нормализуется к UTC с точностью до секунды, score — до шести
// знаков, чтобы сериализация на клиенте не влияла на результат.
func Compute(createdAt time.Time, label string, score float64, imageURL string) string {
	parts := []string{
		fmt.Sprintf("%d", createdAt.UTC().Unix()),
		label,
		fmt.Sprintf("%.6f", score),
		imageURL,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
