package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultMaxAge = 5 * time.Minute

// The four rejection kinds stay distinguishable for logging. Callers facing
// the network must collapse them into one uniform rejection so the failure
// mode never leaks to the sender.
var (
	ErrSignatureMissing   = errors.New("signature: request is not signed")
	ErrSignatureMalformed = errors.New("signature: malformed signature")
	ErrSignatureExpired   = errors.New("signature: timestamp outside replay window")
	ErrSignatureMismatch  = errors.New("signature: digest mismatch")
)

// IsRejection reports whether err is any of the verification failure kinds.
func IsRejection(err error) bool {
	return errors.Is(err, ErrSignatureMissing) ||
		errors.Is(err, ErrSignatureMalformed) ||
		errors.Is(err, ErrSignatureExpired) ||
		errors.Is(err, ErrSignatureMismatch)
}

// Header is the parsed form of the inbound signature value,
// `t=<unix-seconds>,signature=<hex-sha256-hmac>`.
type Header struct {
	Timestamp int64
	Signature string
}

// ParseHeader splits the raw value on the first comma, then takes the value
// after the first "=" in each segment. Both segments are mandatory.
func ParseHeader(raw string) (Header, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Header{}, fmt.Errorf("%w: empty signature value", ErrSignatureMissing)
	}

	timestampPart, signaturePart, found := strings.Cut(trimmed, ",")
	if !found {
		return Header{}, fmt.Errorf("%w: expected t=<ts>,signature=<hex>", ErrSignatureMissing)
	}
	timestampValue := segmentValue(timestampPart)
	signatureValue := segmentValue(signaturePart)
	if timestampValue == "" || signatureValue == "" {
		return Header{}, fmt.Errorf("%w: expected t=<ts>,signature=<hex>", ErrSignatureMissing)
	}

	timestamp, err := strconv.ParseInt(timestampValue, 10, 64)
	if err != nil {
		return Header{}, fmt.Errorf("%w: invalid timestamp %q", ErrSignatureMalformed, timestampValue)
	}
	return Header{Timestamp: timestamp, Signature: signatureValue}, nil
}

func segmentValue(segment string) string {
	_, value, found := strings.Cut(segment, "=")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}

// Compute returns the hex-encoded HMAC-SHA256 of `payload + "." + timestamp`.
func Compute(payload []byte, timestamp int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	_, _ = mac.Write([]byte("." + strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign serializes fields and returns a complete signature value suitable for
// the inbound `signature` query parameter.
func Sign(fields *Fields, timestamp int64, secret string) (string, error) {
	payload, err := fields.Serialize()
	if err != nil {
		return "", err
	}
	digest := Compute(payload, timestamp, secret)
	return fmt.Sprintf("t=%d,signature=%s", timestamp, digest), nil
}

// Verifier checks signed payloads against a freshness window. The zero value
// uses DefaultMaxAge and the wall clock.
type Verifier struct {
	MaxAge time.Duration
	Now    func() time.Time
}

// Verify reconstructs the canonical payload from fields and validates the raw
// signature value against secret. The timestamp is validated independently of
// the digest: `now - ts` must lie in [0, MaxAge], boundary inclusive. The
// digest comparison is constant time; a decoded length mismatch counts as a
// mismatch, not an error.
func (v Verifier) Verify(fields *Fields, rawHeader string, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("signature: secret is required")
	}

	header, err := ParseHeader(rawHeader)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if v.Now != nil {
		now = v.Now().UTC()
	}
	maxAge := v.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	age := now.Unix() - header.Timestamp
	if age < 0 {
		return fmt.Errorf("%w: timestamp %ds in the future", ErrSignatureExpired, -age)
	}
	if age > int64(maxAge/time.Second) {
		return fmt.Errorf("%w: age %ds exceeds %ds", ErrSignatureExpired, age, int64(maxAge/time.Second))
	}

	payload, err := fields.Serialize()
	if err != nil {
		return err
	}
	expected := Compute(payload, header.Timestamp, secret)

	provided, err := hex.DecodeString(header.Signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", ErrSignatureMalformed)
	}
	expectedRaw, err := hex.DecodeString(expected)
	if err != nil {
		return fmt.Errorf("signature: encode expected digest: %w", err)
	}
	if subtle.ConstantTimeCompare(provided, expectedRaw) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
