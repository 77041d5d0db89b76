package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// webhookの署名検証。生のJSONボディに対するHMAC-SHA512（hex）。
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
