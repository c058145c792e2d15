package uploads

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	tokenLength   = 10
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
	maxNameLength = 255
	fallbackBase  = "file"
)

// GenerateName builds the stored name "<base>_<unix-millis>_<token><ext>" for
// an uploaded file. The extension is kept verbatim; directory components of
// the original name are discarded. Uniqueness is probabilistic: no lock and
// no existence check are involved.
func GenerateName(original string, now time.Time) string {
	name := original
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" || base == "." || base == ".." {
		base = fallbackBase
	}

	suffix := fmt.Sprintf("_%d_%s%s", now.UnixMilli(), randomToken(tokenLength), ext)
	if over := len(base) + len(suffix) - maxNameLength; over > 0 {
		if over >= len(base) {
			base = fallbackBase
		} else {
			base = strings.ToValidUTF8(base[:len(base)-over], "")
		}
	}
	return base + suffix
}

// randomToken returns n characters drawn uniformly from the base-36 alphabet
func randomToken(n int) string {
	// 252 is the largest multiple of 36 below 256; bytes above it are redrawn to avoid bias
	const limit = 252
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, base36[b%36])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
