package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"app/internal/domain/model"
)

// 同一ユーザー・同一金額・同一カート内容なら必ず同じ値になる。
// 金額が同じでも中身の違うカートは別の決済として扱うため、
// 明細もハッシュに含める。
func OrderFingerprint(userID int64, amount int64, lines []model.CartLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%d:%d", l.ProductID, l.Quantity))
	}
	sort.Strings(parts)

	h := sha256.New()
	fmt.Fprintf(h, "%d-%d-%s", userID, amount, strings.Join(parts, ","))
	return hex.EncodeToString(h.Sum(nil))
}

// 金額ベースの簡易版。/payment/initializeで使う。
func PaymentFingerprint(userID int64, amount int64) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d-%d", userID, amount)))
	return hex.EncodeToString(h[:])
}
