// Package pinlock provides PIN hashing and the inactivity auto-lock timer
// used by the privacy settings. The core only ever stores the hash; the
// plaintext PIN never leaves this package's callers.
package pinlock

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"
)

// HashPIN returns the lowercase hex SHA-256 digest of the entered PIN, the
// format stored in PrivacySettings.PINHash.
func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// VerifyPIN reports whether the entered PIN matches the stored hash. The
// comparison is constant time.
func VerifyPIN(pin, hash string) bool {
	computed := HashPIN(pin)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// AutoLock fires a callback after a period of inactivity. Reset must be
// called on every user interaction; a timeout of zero disables locking.
type AutoLock struct {
	mu      sync.Mutex
	timer   *time.Timer
	timeout time.Duration
	onLock  func()
	stopped bool
}

// NewAutoLock constructs a stopped auto-lock; call Reset to arm it.
func NewAutoLock(timeout time.Duration, onLock func()) *AutoLock {
	return &AutoLock{timeout: timeout, onLock: onLock}
}

// Reset re-arms the inactivity timer, replacing any pending one.
func (l *AutoLock) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.timeout <= 0 {
		return
	}
	l.timer = time.AfterFunc(l.timeout, l.onLock)
}

// Stop cancels any pending lock and prevents future arming.
func (l *AutoLock) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// SetTimeout updates the inactivity window and re-arms the timer.
func (l *AutoLock) SetTimeout(timeout time.Duration) {
	l.mu.Lock()
	l.timeout = timeout
	l.mu.Unlock()
	l.Reset()
}
