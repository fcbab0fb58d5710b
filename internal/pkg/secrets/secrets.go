// secrets — односторонее хэширование паролей/refresh-секретов и генерация
// случайных refresh-секретов. Один и тот же примитив используется и для
// паролей аккаунтов, и для refresh-секретов; сами значения хэшей между
// доменами никогда не пересекаются.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// RefreshSecretLen — длина refresh-секрета в байтах до кодирования.
const RefreshSecretLen = 64

// Hash хэширует секрет bcrypt-ом поверх SHA-256-дайджеста.
// Пре-дайджест снимает ограничение bcrypt в 72 байта входа, поэтому примитив
// одинаково пригоден и для паролей, и для 64-байтных refresh-секретов.
func Hash(plain string) (string, error) {
	const op = "secrets.Hash"

	b, err := bcrypt.GenerateFromPassword(digest(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// Verify сверяет секрет с хэшем. На битом входе не паникует и не возвращает
// ошибку — только false.
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), digest(plain)) == nil
}

// NewRefreshSecret генерирует случайный refresh-секрет: 64 байта из
// криптографически стойкого источника, закодированные base64url.
// Внутри нет никакой структуры — чистый bearer-секрет.
func NewRefreshSecret() (string, error) {
	const op = "secrets.NewRefreshSecret"

	b := make([]byte, RefreshSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func digest(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.RawURLEncoding.EncodeToString(sum[:]))
}
