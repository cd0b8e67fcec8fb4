package files

import (
	"context"
	"crypto/md5"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/assetpipe/assetpipe/internal/asset"
	"github.com/assetpipe/assetpipe/internal/settings"
	"github.com/assetpipe/assetpipe/internal/storage"
)

// maxNameAttempts caps collision resolution. Beyond this the resolver
// fails with asset.ErrNameExhausted instead of looping further.
const maxNameAttempts = 10000

var leadingDot = regexp.MustCompile(`^\.`)

// NameResolver assigns collision-free storage keys. The exists-then-write
// sequence is not atomic: two concurrent ingestions can resolve the same
// name. Callers that need stronger guarantees must serialize by desired
// name or use an adapter with atomic create-if-absent.
type NameResolver struct {
	adapter  storage.Adapter
	strategy string
	now      func() time.Time
}

// NewNameResolver creates a resolver using the given naming strategy
// (settings.NamingOriginal or settings.NamingHash).
func NewNameResolver(adapter storage.Adapter, strategy string) *NameResolver {
	return &NameResolver{
		adapter:  adapter,
		strategy: strategy,
		now:      time.Now,
	}
}

// Resolve sanitizes desired and appends numeric suffixes until the
// adapter reports no collision. The returned name never exists in the
// adapter at the time of the check.
func (r *NameResolver) Resolve(ctx context.Context, desired string) (string, error) {
	name := sanitizeName(desired)
	if r.strategy == settings.NamingHash {
		name = r.hashName(name)
	}

	candidate := name
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		exists, err := r.adapter.Has(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check name %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = nextCandidate(candidate)
	}
	return "", fmt.Errorf("%w: %s", asset.ErrNameExhausted, name)
}

// sanitizeName replaces a leading dot with a literal "dot-" prefix and
// spaces with underscores.
func sanitizeName(fileName string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	if base == "" {
		// Dotfile with no further extension, e.g. ".hidden".
		base, ext = ext, ""
	}
	base = leadingDot.ReplaceAllString(base, "dot-")
	base = strings.ReplaceAll(base, " ", "_")
	return base + ext
}

// hashName replaces the name with an md5 of the current microtime and the
// original name, keeping the extension. Hashed names are still passed
// through collision resolution.
func (r *NameResolver) hashName(fileName string) string {
	ext := path.Ext(fileName)
	sum := md5.Sum([]byte(strconv.FormatInt(r.now().UnixMicro(), 10) + fileName))
	return fmt.Sprintf("%x%s", sum, ext)
}

// nextCandidate increments a trailing "-<digits>" suffix before the
// extension, or appends "-1" when none is present. The suffix is
// multi-digit on purpose: the original single-digit match misparsed
// "-10" as "-1" plus a literal zero.
func nextCandidate(fileName string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)

	suffix := regexp.MustCompile(`-(\d+)$`)
	if m := suffix.FindStringSubmatch(base); m != nil {
		n, _ := strconv.Atoi(m[1])
		return suffix.ReplaceAllString(base, "") + "-" + strconv.Itoa(n+1) + ext
	}
	return base + "-1" + ext
}
