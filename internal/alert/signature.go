package alert

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"platewatch/internal/types"
)

// SignatureHeader is the HTTP header carrying the payload signature.
const SignatureHeader = "X-Platewatch-Signature"

// SignPayload generates the signature header value for a webhook payload.
// The signed content is "{unix_timestamp}.{payload}" using HMAC-SHA256,
// rendered as "t=<unix>,v1=<hex>". Receivers recompute the HMAC over the
// same content and compare, rejecting stale timestamps to prevent replay.
func SignPayload(payload []byte, secret types.SecretString, now time.Time) (string, error) {
	if secret.Unmask() == "" {
		return "", fmt.Errorf("alert signature: signing secret is empty")
	}

	timestamp := now.Unix()

	mac := hmac.New(sha256.New, []byte(secret.Unmask()))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)

	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil))), nil
}
