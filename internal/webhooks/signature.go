package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac>". The MAC covers
// "<unix seconds>.<raw body>" so a captured delivery cannot be replayed
// with a fresh timestamp.
const SignatureHeader = "X-Signature"

var ErrBadSignature = errors.New("webhook signature mismatch")

// SignHMAC returns lowercase hex of HMAC-SHA256 over ts.body.
func SignHMAC(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureValue formats the header value for body signed at ts.
func SignatureValue(secret string, ts int64, body []byte) string {
	return "t=" + strconv.FormatInt(ts, 10) + ",v1=" + SignHMAC(secret, ts, body)
}

// VerifyHMAC checks a SignatureHeader value against body. tolerance bounds
// the age of the timestamp; 0 skips the age check.
func VerifyHMAC(secret string, body []byte, header string, now time.Time, tolerance time.Duration) error {
	var (
		ts  int64
		sig []byte
		err error
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			if ts, err = strconv.ParseInt(v, 10, 64); err != nil {
				return ErrBadSignature
			}
		case "v1":
			if sig, err = hex.DecodeString(v); err != nil {
				return ErrBadSignature
			}
		}
	}
	if ts == 0 || sig == nil {
		return ErrBadSignature
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return ErrBadSignature
		}
	}
	expected, _ := hex.DecodeString(SignHMAC(secret, ts, body))
	if !hmac.Equal(expected, sig) {
		return ErrBadSignature
	}
	return nil
}
