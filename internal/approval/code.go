/**
 * @description
 * This file implements the daily approval-code engine, the second-factor
 * gate on every approve operation. The 6-digit code is a pure function of
 * (secret, actor, UTC date): it is derived on demand, shown to the approver
 * out-of-band, and never persisted anywhere. Verification therefore needs no
 * lookup and is safe to replicate across any number of stateless handlers.
 *
 * Verification accepts today's or yesterday's UTC code; the one-day grace
 * window absorbs clock and timezone edges around the UTC midnight rollover.
 *
 * @dependencies
 * - crypto/hmac, crypto/sha256, crypto/subtle, encoding/binary: Standard Go libraries.
 */

package approval

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// Engine derives and verifies daily approval codes.
type Engine struct {
	secret []byte
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewEngine creates an engine with the institution's shared secret.
func NewEngine(secret string) *Engine {
	return &Engine{secret: []byte(secret), now: time.Now}
}

// Code returns the 6-digit approval code for an actor on the UTC day of t.
func (e *Engine) Code(actor string, t time.Time) string {
	day := t.UTC().Format("2006-01-02")
	mac := hmac.New(sha256.New, e.secret)
	mac.Write([]byte(strings.ToLower(actor) + "|" + day))
	sum := mac.Sum(nil)

	n := binary.BigEndian.Uint64(sum[:8]) % 1_000_000
	return fmt.Sprintf("%06d", n)
}

// Verify reports whether the submitted code matches the actor's code for
// today or yesterday (UTC). Comparison is constant-time.
func (e *Engine) Verify(actor, submitted string) bool {
	now := e.now()
	today := e.Code(actor, now)
	yesterday := e.Code(actor, now.AddDate(0, 0, -1))

	okToday := subtle.ConstantTimeCompare([]byte(submitted), []byte(today)) == 1
	okYesterday := subtle.ConstantTimeCompare([]byte(submitted), []byte(yesterday)) == 1
	return okToday || okYesterday
}
